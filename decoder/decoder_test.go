package decoder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"

	"go.k6.io/smdecode/errext"
	"go.k6.io/smdecode/lib/testutils"
	"go.k6.io/smdecode/lib/types"
	"go.k6.io/smdecode/loader"
	"go.k6.io/smdecode/sourcemap"
)

const (
	simpleMap = `{"version":3,"sources":["a.js"],"names":[],"mappings":"AAAA"}`
	namedMap  = `{"version":3,"sourceRoot":"src","sources":["app.ts"],"names":["main"],"mappings":";AACAA,UAAUA"}`
)

func newTestDecoder(t *testing.T, conf Config, files map[string]string) (*Decoder, *testutils.SimpleLogrusHook) {
	t.Helper()

	fs := afero.NewMemMapFs()
	for name, data := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(data), 0o644))
	}
	logger := testutils.NewLogger(t)
	hook := testutils.NewLogHook(logrus.DebugLevel)
	logger.AddHook(hook)

	d, err := New(logger, NewConfig().Apply(conf), loader.Options{
		FS:    fs,
		Getwd: func() (string, error) { return "/maps", nil },
	})
	require.NoError(t, err)
	return d, hook
}

func TestDecode(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"/maps/simple.js.map":  simpleMap,
		"/maps/named.js.map":   namedMap,
		"/maps/empty.js.map":   `{"version":3,"sources":[],"names":[],"mappings":""}`,
		"/maps/corrupt.js.map": `{"version":3,"sources":["a.js"],"names":[],"mappings":"@"}`,
		"/maps/blank.js.map":   ``,
	}

	t.Run("Simple", func(t *testing.T) {
		t.Parallel()
		d, _ := newTestDecoder(t, Config{}, files)
		pos, err := d.Decode(context.Background(), "simple", 0, 1)
		require.NoError(t, err)
		assert.Equal(t, sourcemap.Position{
			Source: null.StringFrom("a.js"),
			Line:   null.IntFrom(1),
			Column: null.IntFrom(0),
		}, pos)
	})

	t.Run("GreatestLowerBound", func(t *testing.T) {
		t.Parallel()
		d, _ := newTestDecoder(t, Config{}, files)
		pos, err := d.Decode(context.Background(), "/maps/named.js.map", 12, 2)
		require.NoError(t, err)
		assert.Equal(t, "src/app.ts:2:10 (main)", pos.String())
	})

	t.Run("SourceRootPolicy", func(t *testing.T) {
		t.Parallel()
		d, _ := newTestDecoder(t, Config{SourceRootPolicy: null.StringFrom("ignore")}, files)
		pos, err := d.Decode(context.Background(), "named.js.map", 0, 2)
		require.NoError(t, err)
		assert.Equal(t, "app.ts", pos.Source.String)
	})

	t.Run("NotFound", func(t *testing.T) {
		t.Parallel()
		d, _ := newTestDecoder(t, Config{}, files)
		_, err := d.Decode(context.Background(), "simple", 0, 2)
		require.Error(t, err)
		assert.Equal(t, errext.InvalidSourceMap, errext.KindOf(err))
		assert.EqualError(t, err, "invalid sourcemap: could not find original position for line 2, column 0")

		_, err = d.Decode(context.Background(), "empty", 0, 1)
		assert.EqualError(t, err, "invalid sourcemap: could not find original position for line 1, column 0")
	})

	t.Run("CorruptMappings", func(t *testing.T) {
		t.Parallel()
		d, _ := newTestDecoder(t, Config{}, files)
		_, err := d.Decode(context.Background(), "corrupt", 0, 1)
		require.Error(t, err)
		assert.Equal(t, errext.InvalidSourceMap, errext.KindOf(err))
	})

	t.Run("EmptyDocument", func(t *testing.T) {
		t.Parallel()
		d, _ := newTestDecoder(t, Config{}, files)
		_, err := d.Decode(context.Background(), "blank", 0, 1)
		require.Error(t, err)
		assert.Equal(t, errext.InvalidSourceMap, errext.KindOf(err))
		assert.Contains(t, err.Error(), "empty sourcemap")
	})

	t.Run("MissingFile", func(t *testing.T) {
		t.Parallel()
		d, _ := newTestDecoder(t, Config{}, files)
		_, err := d.Decode(context.Background(), "missing", 0, 1)
		require.Error(t, err)
		assert.Equal(t, errext.NotFound, errext.KindOf(err))
		assert.EqualError(t, err, "sourcemap not found at: missing.js.map")
	})

	t.Run("Deterministic", func(t *testing.T) {
		t.Parallel()
		d, _ := newTestDecoder(t, Config{CacheSize: null.IntFrom(0)}, files)
		first, err := d.Decode(context.Background(), "named", 3, 2)
		require.NoError(t, err)
		second, err := d.Decode(context.Background(), "named", 3, 2)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestDecodeInvalidInput(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte(simpleMap))
	}))
	t.Cleanup(srv.Close)

	d, _ := newTestDecoder(t, Config{}, nil)
	testCases := []struct {
		name, locator string
		column, line  int
		msg           string
	}{
		{"NegativeColumn", srv.URL + "/a.js.map", -1, 1, "invalid input: column number must be a non-negative integer, got: -1"},
		{"ZeroLine", srv.URL + "/a.js.map", 0, 0, "invalid input: line number must be a positive integer, got: 0"},
		{"EmptyLocator", "", 0, 1, "invalid input: the sourcemap file path must be a non-empty string"},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := d.Decode(context.Background(), tc.locator, tc.column, tc.line)
			require.Error(t, err)
			assert.Equal(t, errext.InvalidInput, errext.KindOf(err))
			assert.EqualError(t, err, tc.msg)
		})
	}
	t.Cleanup(func() {
		assert.Equal(t, int32(0), requests.Load())
	})
}

func TestDecodeRemote(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/simple.js.map", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "tests/1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(simpleMap))
	})
	mux.HandleFunc("/slow.js.map", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	d, _ := newTestDecoder(t, Config{
		UserAgent: null.StringFrom("tests/1.0"),
		Timeout:   types.NullDurationFrom(100 * time.Millisecond),
	}, nil)

	pos, err := d.Decode(context.Background(), srv.URL+"/simple.js.map", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, "a.js:1:0", pos.String())
	assert.Equal(t, int32(1), requests.Load())

	_, err = d.Decode(context.Background(), srv.URL+"/missing.js.map", 0, 1)
	require.Error(t, err)
	var kerr *errext.Error
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, errext.Network, kerr.Kind)
	assert.Equal(t, http.StatusNotFound, kerr.Status)

	_, err = d.Decode(context.Background(), srv.URL+"/slow.js.map", 0, 1)
	require.Error(t, err)
	assert.Equal(t, errext.Network, errext.KindOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOpenCache(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"/maps/a.js.map": simpleMap,
		"/maps/b.js.map": simpleMap,
		"/maps/c.js.map": namedMap,
	}

	t.Run("Enabled", func(t *testing.T) {
		t.Parallel()
		d, hook := newTestDecoder(t, Config{CacheSize: null.IntFrom(1)}, files)
		a, err := d.Open(context.Background(), "a")
		require.NoError(t, err)
		b, err := d.Open(context.Background(), "b")
		require.NoError(t, err)
		assert.Same(t, a, b, "identical content is decoded once")
		assert.True(t, testutils.LogContains(hook.Drain(), logrus.DebugLevel, "Reusing a decoded sourcemap"))

		_, err = d.Open(context.Background(), "c")
		require.NoError(t, err)
		again, err := d.Open(context.Background(), "a")
		require.NoError(t, err)
		assert.NotSame(t, a, again, "evicted by c")
	})

	t.Run("Disabled", func(t *testing.T) {
		t.Parallel()
		d, _ := newTestDecoder(t, Config{CacheSize: null.IntFrom(0)}, files)
		a, err := d.Open(context.Background(), "a")
		require.NoError(t, err)
		b, err := d.Open(context.Background(), "a")
		require.NoError(t, err)
		assert.NotSame(t, a, b)
	})
}

func TestNewInvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := New(testutils.NewLogger(t), NewConfig().Apply(Config{CacheSize: null.IntFrom(-3)}), loader.Options{
		FS: afero.NewMemMapFs(),
	})
	assert.Error(t, err)
}

func TestLookupSourceContent(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"/maps/content.js.map": `{"version":3,"sourceRoot":"src/","sources":["a.ts","b.ts"],` +
			`"sourcesContent":["let a = 1;",null],"names":[],"mappings":"AAAA,ECAA"}`,
	}
	d, _ := newTestDecoder(t, Config{}, files)

	res, err := d.Lookup(context.Background(), "content", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, "src/a.ts", res.Position.Source.String)
	assert.Equal(t, null.StringFrom("let a = 1;"), res.SourceContent)

	res, err = d.Lookup(context.Background(), "content", 2, 1)
	require.NoError(t, err)
	assert.Equal(t, "src/b.ts", res.Position.Source.String)
	assert.False(t, res.SourceContent.Valid)
}
