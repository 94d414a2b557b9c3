package sourcemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"

	"go.k6.io/smdecode/errext"
)

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("minimal", func(t *testing.T) {
		t.Parallel()
		doc, err := Parse([]byte(`{"version":3,"sources":["a.js"],"names":[],"mappings":"AAAA"}`))
		require.NoError(t, err)
		assert.Equal(t, 3, doc.Version)
		assert.Equal(t, []null.String{null.StringFrom("a.js")}, doc.Sources)
		assert.Empty(t, doc.Names)
		assert.Equal(t, "AAAA", doc.Mappings)
		assert.False(t, doc.IsIndexMap())
	})

	t.Run("optional fields", func(t *testing.T) {
		t.Parallel()
		doc, err := Parse([]byte(`{
			"version": 3,
			"file": "out.min.js",
			"sourceRoot": "src/",
			"sources": ["a.js", null],
			"sourcesContent": ["let a = 1;", null],
			"names": ["a"],
			"mappings": ""
		}`))
		require.NoError(t, err)
		assert.Equal(t, "out.min.js", doc.File)
		assert.Equal(t, "src/", doc.SourceRoot)
		assert.Equal(t, []null.String{null.StringFrom("a.js"), {}}, doc.Sources)
		assert.Equal(t, []null.String{null.StringFrom("let a = 1;"), {}}, doc.SourcesContent)
		assert.Equal(t, []string{"a"}, doc.Names)
	})

	t.Run("sources and names default to empty", func(t *testing.T) {
		t.Parallel()
		doc, err := Parse([]byte(`{"version":3,"mappings":""}`))
		require.NoError(t, err)
		assert.NotNil(t, doc.Sources)
		assert.Empty(t, doc.Sources)
		assert.NotNil(t, doc.Names)
		assert.Empty(t, doc.Names)
	})

	t.Run("XSSI prefix", func(t *testing.T) {
		t.Parallel()
		doc, err := Parse([]byte(")]}'\n" + `{"version":3,"sources":["a.js"],"mappings":"AAAA"}`))
		require.NoError(t, err)
		assert.Equal(t, "AAAA", doc.Mappings)
	})
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		data   string
		expMsg string
	}{
		{name: "empty", data: "", expMsg: "invalid sourcemap: empty sourcemap"},
		{name: "whitespace only", data: " \n\t ", expMsg: "invalid sourcemap: empty sourcemap"},
		{name: "malformed JSON", data: `{"version":3,`, expMsg: "malformed JSON"},
		{name: "not JSON", data: `version: 3`, expMsg: "malformed JSON"},
		{name: "array", data: `[1, 2]`, expMsg: "sourcemap must be a JSON object"},
		{name: "empty array", data: `[]`, expMsg: "sourcemap must be a JSON object"},
		{name: "string", data: `"mappings"`, expMsg: "sourcemap must be a JSON object"},
		{name: "number", data: `3`, expMsg: "sourcemap must be a JSON object"},
		{name: "field of wrong type", data: `{"version":3,"file":1,"mappings":""}`, expMsg: `unexpected number for field "file"`},
		{name: "missing version", data: `{"sources":[],"mappings":""}`, expMsg: "missing version"},
		{name: "null version", data: `{"version":null,"mappings":""}`, expMsg: "missing version"},
		{name: "wrong version", data: `{"version":2,"mappings":""}`, expMsg: "unsupported version 2"},
		{name: "version as string", data: `{"version":"3","mappings":""}`, expMsg: `unsupported version "3"`},
		{name: "missing mappings", data: `{"version":3,"sources":[]}`, expMsg: "missing mappings"},
		{name: "null mappings", data: `{"version":3,"mappings":null}`, expMsg: "missing mappings"},
		{name: "mappings not a string", data: `{"version":3,"mappings":[1]}`, expMsg: "missing mappings"},
		{name: "sources not strings", data: `{"version":3,"sources":[1],"mappings":""}`, expMsg: "invalid document"},
		{name: "XSSI prefix only", data: `)]}'`, expMsg: "malformed JSON"},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tc.data))
			require.Error(t, err)
			assert.Equal(t, errext.InvalidSourceMap, errext.KindOf(err))
			assert.Contains(t, err.Error(), tc.expMsg)
		})
	}
}

func TestParseSections(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		doc, err := Parse([]byte(`{
			"version": 3,
			"sections": [
				{"offset": {"line": 0, "column": 0}, "map": {"version":3,"sources":["a.js"],"mappings":"AAAA"}},
				{"offset": {"line": 2, "column": 10}, "map": {"version":3,"sources":["b.js"],"mappings":"AAAA"}}
			]
		}`))
		require.NoError(t, err)
		require.True(t, doc.IsIndexMap())
		require.Len(t, doc.Sections, 2)
		assert.Equal(t, Offset{Line: 2, Column: 10}, doc.Sections[1].Offset)
		assert.Equal(t, []null.String{null.StringFrom("b.js")}, doc.Sections[1].Map.Sources)
	})

	testCases := []struct {
		name   string
		data   string
		expMsg string
	}{
		{
			name:   "url section",
			data:   `{"version":3,"sections":[{"offset":{"line":0,"column":0},"url":"a.map"}]}`,
			expMsg: "section 0: sections with url are not supported",
		},
		{
			name:   "missing map",
			data:   `{"version":3,"sections":[{"offset":{"line":0,"column":0}}]}`,
			expMsg: "section 0: missing map",
		},
		{
			name:   "missing offset",
			data:   `{"version":3,"sections":[{"map":{"version":3,"mappings":""}}]}`,
			expMsg: "section 0: missing offset",
		},
		{
			name: "unordered",
			data: `{"version":3,"sections":[` +
				`{"offset":{"line":1,"column":0},"map":{"version":3,"mappings":""}},` +
				`{"offset":{"line":0,"column":5},"map":{"version":3,"mappings":""}}]}`,
			expMsg: "section 1: sections are not ordered",
		},
		{
			name:   "invalid inner map",
			data:   `{"version":3,"sections":[{"offset":{"line":0,"column":0},"map":{"version":2,"mappings":""}}]}`,
			expMsg: "section 0: unsupported version 2",
		},
		{
			name: "nested",
			data: `{"version":3,"sections":[{"offset":{"line":0,"column":0},` +
				`"map":{"version":3,"sections":[]}}]}`,
			expMsg: "section 0: nested sections are not supported",
		},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tc.data))
			require.Error(t, err)
			assert.Equal(t, errext.InvalidSourceMap, errext.KindOf(err))
			assert.Contains(t, err.Error(), tc.expMsg)
		})
	}
}
