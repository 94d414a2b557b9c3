// Package sourcemap decodes source map v3 documents and resolves generated
// positions back to their original source.
//
// Parse validates a document, DecodeMappings turns its "mappings" field into
// an Index, and OriginalPositionFor queries it. A Consumer ties the three
// together, decoding lazily on the first query and supporting index maps
// (documents made of "sections").
package sourcemap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/guregu/null.v3"

	"go.k6.io/smdecode/errext"
)

// SupportedVersion is the only source map version that can be decoded.
const SupportedVersion = 3

// xssiPrefix may be prepended by servers to protect the map from being
// loaded as a script; it runs until the end of the first line.
const xssiPrefix = ")]}'"

// Document is a validated source map. It must not be modified after Parse.
type Document struct {
	Version        int
	File           string
	SourceRoot     string
	Sources        []null.String
	SourcesContent []null.String
	Names          []string
	Mappings       string

	// Sections is only set for index maps, which have no Mappings.
	Sections []Section
}

// Section is one part of an index map, starting at Offset in the generated
// file. Offsets are 0-based.
type Section struct {
	Offset Offset
	Map    *Document
}

// Offset is a 0-based generated position.
type Offset struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (o Offset) after(other Offset) bool {
	return o.Line > other.Line || (o.Line == other.Line && o.Column > other.Column)
}

// IsIndexMap reports whether the document is made of sections.
func (d *Document) IsIndexMap() bool {
	return len(d.Sections) > 0
}

type rawDocument struct {
	Version        json.RawMessage `json:"version"`
	File           string          `json:"file"`
	SourceRoot     string          `json:"sourceRoot"`
	Sources        []null.String   `json:"sources"`
	SourcesContent []null.String   `json:"sourcesContent"`
	Names          []string        `json:"names"`
	Mappings       json.RawMessage `json:"mappings"`
	Sections       []rawSection    `json:"sections"`
}

type rawSection struct {
	Offset *Offset          `json:"offset"`
	URL    string           `json:"url"`
	Map    *json.RawMessage `json:"map"`
}

// Parse validates data as a source map v3 document. Every failure is an
// errext.InvalidSourceMap error.
func Parse(data []byte) (*Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errext.InvalidSourceMapf("empty sourcemap")
	}
	if bytes.HasPrefix(data, []byte(xssiPrefix)) {
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			data = data[i+1:]
		} else {
			data = nil
		}
	}
	return parseDocument(data, true)
}

func parseDocument(data []byte, allowSections bool) (*Document, error) {
	if !json.Valid(data) {
		var v interface{}
		err := json.Unmarshal(data, &v)
		return nil, &errext.Error{Kind: errext.InvalidSourceMap, Message: "malformed JSON: " + err.Error(), Err: err}
	}

	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field == "" {
			return nil, &errext.Error{Kind: errext.InvalidSourceMap, Message: "sourcemap must be a JSON object", Err: err}
		}
		if errors.As(err, &typeErr) {
			return nil, &errext.Error{
				Kind:    errext.InvalidSourceMap,
				Message: fmt.Sprintf("unexpected %s for field %q", typeErr.Value, typeErr.Field),
				Err:     err,
			}
		}
		return nil, &errext.Error{Kind: errext.InvalidSourceMap, Message: "invalid document: " + err.Error(), Err: err}
	}

	if len(raw.Version) == 0 || string(raw.Version) == "null" {
		return nil, errext.InvalidSourceMapf("missing version")
	}
	var version int
	if err := json.Unmarshal(raw.Version, &version); err != nil || version != SupportedVersion {
		return nil, errext.InvalidSourceMapf("unsupported version %s, only version %d is supported",
			raw.Version, SupportedVersion)
	}

	doc := &Document{
		Version:        version,
		File:           raw.File,
		SourceRoot:     raw.SourceRoot,
		Sources:        raw.Sources,
		SourcesContent: raw.SourcesContent,
		Names:          raw.Names,
	}
	if doc.Sources == nil {
		doc.Sources = []null.String{}
	}
	if doc.Names == nil {
		doc.Names = []string{}
	}

	if raw.Sections != nil {
		if !allowSections {
			return nil, errext.InvalidSourceMapf("nested sections are not supported")
		}
		sections, err := parseSections(raw.Sections)
		if err != nil {
			return nil, err
		}
		doc.Sections = sections
		return doc, nil
	}

	if len(raw.Mappings) == 0 {
		return nil, errext.InvalidSourceMapf("missing mappings")
	}
	if err := json.Unmarshal(raw.Mappings, &doc.Mappings); err != nil || string(raw.Mappings) == "null" {
		return nil, errext.InvalidSourceMapf("missing mappings: \"mappings\" must be a string")
	}
	return doc, nil
}

func parseSections(raw []rawSection) ([]Section, error) {
	sections := make([]Section, 0, len(raw))
	for i, rs := range raw {
		if rs.URL != "" {
			return nil, errext.InvalidSourceMapf("section %d: sections with url are not supported", i)
		}
		if rs.Map == nil {
			return nil, errext.InvalidSourceMapf("section %d: missing map", i)
		}
		if rs.Offset == nil {
			return nil, errext.InvalidSourceMapf("section %d: missing offset", i)
		}
		if rs.Offset.Line < 0 || rs.Offset.Column < 0 {
			return nil, errext.InvalidSourceMapf("section %d: negative offset", i)
		}
		if i > 0 && !rs.Offset.after(sections[i-1].Offset) {
			return nil, errext.InvalidSourceMapf("section %d: sections are not ordered", i)
		}
		m, err := parseDocument(*rs.Map, false)
		if err != nil {
			var kerr *errext.Error
			if errors.As(err, &kerr) {
				return nil, &errext.Error{
					Kind:    errext.InvalidSourceMap,
					Message: fmt.Sprintf("section %d: %s", i, kerr.Message),
					Err:     kerr.Err,
				}
			}
			return nil, err
		}
		sections = append(sections, Section{Offset: *rs.Offset, Map: m})
	}
	return sections, nil
}
