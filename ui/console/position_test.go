package console

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"

	"go.k6.io/smdecode/sourcemap"
)

func TestFormatPosition(t *testing.T) {
	t.Parallel()

	pos := sourcemap.Position{
		Source: null.StringFrom("src/app.ts"),
		Line:   null.IntFrom(12),
		Column: null.IntFrom(4),
		Name:   null.StringFrom("main"),
	}

	t.Run("Plain", func(t *testing.T) {
		t.Parallel()
		th := NewTheme(false)
		assert.Equal(t, "Original position: src/app.ts:12:4 (main)", th.FormatPosition(pos))

		unnamed := pos
		unnamed.Name = null.String{}
		assert.Equal(t, "Original position: src/app.ts:12:4", th.FormatPosition(unnamed))
		assert.Equal(t, "Original position: <no original position>", th.FormatPosition(sourcemap.Position{}))
	})

	t.Run("Colored", func(t *testing.T) {
		t.Parallel()
		out := NewTheme(true).FormatPosition(pos)
		assert.Contains(t, out, "\x1b[36msrc/app.ts\x1b[0m")
		assert.Contains(t, out, "\x1b[32mmain\x1b[0m")
	})
}

func TestFormatExcerpt(t *testing.T) {
	t.Parallel()

	content := "const a = 1;\n\tfoo(a);\n"
	th := NewTheme(false)

	out, ok := th.FormatExcerpt(content, 2, 2, 0)
	require.True(t, ok)
	assert.Equal(t, "2 | \tfoo(a);\n    \t ^", out)

	out, ok = th.FormatExcerpt(content, 1, 100, 0)
	require.True(t, ok)
	assert.Equal(t, "1 | const a = 1;\n                ^", out)

	_, ok = th.FormatExcerpt(content, 3, 0, 0)
	assert.False(t, ok)
}

func TestFormatExcerptWidth(t *testing.T) {
	t.Parallel()

	th := NewTheme(false)
	content := "0123456789abcdefghij"

	out, ok := th.FormatExcerpt(content, 1, 15, 14)
	require.True(t, ok)
	assert.Equal(t, "1 | \u2026bcdefghi\u2026\n         ^", out)

	out, ok = th.FormatExcerpt(content, 1, 1, 14)
	require.True(t, ok)
	assert.Equal(t, "1 | 01234567\u2026\n     ^", out)

	out, ok = th.FormatExcerpt(content, 1, 19, 14)
	require.True(t, ok)
	assert.Equal(t, "1 | \u2026cdefghij\n            ^", out)

	out, ok = th.FormatExcerpt(content, 1, 3, 80)
	require.True(t, ok)
	assert.Equal(t, "1 | 0123456789abcdefghij\n       ^", out)
}

func TestSourceLine(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		content string
		line    int
		exp     string
		ok      bool
	}{
		{"a\nb", 2, "b", true},
		{"a\r\nb\r\n", 1, "a", true},
		{"a\nb\n", 3, "", false},
		{"a", 0, "", false},
		{"a", 2, "", false},
		{"a\n\nc", 2, "", true},
	}
	for _, tc := range testCases {
		text, ok := SourceLine(tc.content, tc.line)
		assert.Equal(t, tc.ok, ok, "%q:%d", tc.content, tc.line)
		assert.Equal(t, tc.exp, text, "%q:%d", tc.content, tc.line)
	}
}

func TestWriter(t *testing.T) {
	t.Parallel()

	var (
		buf bytes.Buffer
		mu  sync.Mutex
		wg  sync.WaitGroup
	)
	w := &Writer{Mutex: &mu, Writer: &buf}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = w.Write([]byte("line\n"))
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, buf.Len())
}
