package tests

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"go.k6.io/smdecode/cmd"
	"go.k6.io/smdecode/lib/consts"
)

func TestErrorLogFormat(t *testing.T) {
	t.Parallel()

	t.Run("Text", func(t *testing.T) {
		t.Parallel()

		ts := getSingleMapTestState(t, "app.js.map", simpleMap, []string{"missing", "0"}, 1)
		cmd.ExecuteWithGlobalState(ts.GlobalState)

		stderr := ts.Stderr.String()
		assert.Contains(t, stderr, `level=error msg="sourcemap not found at: missing.js.map"`)
		assert.Contains(t, stderr, "category=NotFound")
		assert.Contains(t, stderr, "locator=missing.js.map")
		assert.NotContains(t, stderr, "\x1b[")
	})

	t.Run("JSON", func(t *testing.T) {
		t.Parallel()

		ts := getSingleMapTestState(t, "app.js.map", simpleMap, []string{"missing", "0", "--log-format", "json"}, 1)
		cmd.ExecuteWithGlobalState(ts.GlobalState)

		line := strings.TrimSpace(ts.Stderr.String())
		assert.Equal(t, "error", gjson.Get(line, "level").String())
		assert.Equal(t, "NotFound", gjson.Get(line, "category").String())
		assert.Equal(t, "sourcemap not found at: missing.js.map", gjson.Get(line, "msg").String())
	})

	t.Run("Raw", func(t *testing.T) {
		t.Parallel()

		ts := getSingleMapTestState(t, "app.js.map", simpleMap, []string{"missing", "0"}, 1)
		ts.Flags.LogFormat = "raw"
		cmd.ExecuteWithGlobalState(ts.GlobalState)

		assert.Equal(t, "sourcemap not found at: missing.js.map\n", ts.Stderr.String())
	})

	t.Run("UnsupportedFormat", func(t *testing.T) {
		t.Parallel()

		ts := getSingleMapTestState(t, "app.js.map", simpleMap, []string{"app", "0", "--log-format", "xml"}, 1)
		cmd.ExecuteWithGlobalState(ts.GlobalState)

		assert.Empty(t, ts.Stdout.String())
	})
}

func TestLogOutput(t *testing.T) {
	t.Parallel()

	t.Run("None", func(t *testing.T) {
		t.Parallel()

		ts := getSingleMapTestState(t, "app.js.map", simpleMap, []string{"missing", "0", "--log-output", "none"}, 1)
		cmd.ExecuteWithGlobalState(ts.GlobalState)

		assert.Empty(t, ts.Stderr.String())
	})

	t.Run("Stdout", func(t *testing.T) {
		t.Parallel()

		ts := getSingleMapTestState(t, "app.js.map", simpleMap, []string{"missing", "0", "--log-output=stdout"}, 1)
		cmd.ExecuteWithGlobalState(ts.GlobalState)

		assert.Contains(t, ts.Stdout.String(), "category=NotFound")
		assert.Empty(t, ts.Stderr.String())
	})

	t.Run("File", func(t *testing.T) {
		t.Parallel()

		ts := getSingleMapTestState(t, "app.js.map", simpleMap,
			[]string{"app", "0", "--verbose", "--log-output", "file=smdecode.log", "--log-format", "json"}, 0)
		cmd.ExecuteWithGlobalState(ts.GlobalState)

		assert.Equal(t, "a.js", gjson.Get(ts.Stdout.String(), "source").String())
		assert.Empty(t, ts.Stderr.String())

		data, err := afero.ReadFile(ts.FS, ts.Cwd+"smdecode.log")
		require.NoError(t, err)
		logs := string(data)
		assert.Contains(t, logs, `"msg":"Loading..."`)
		assert.Contains(t, logs, `"msg":"Resolved"`)
		assert.Contains(t, logs, `"position":"a.js:1:0"`)
	})

	t.Run("FileWithLevel", func(t *testing.T) {
		t.Parallel()

		ts := getSingleMapTestState(t, "app.js.map", simpleMap,
			[]string{"missing", "0", "--verbose", "--log-output", "file=smdecode.log,level=error"}, 1)
		ts.Flags.NoColor = true
		cmd.ExecuteWithGlobalState(ts.GlobalState)

		data, err := afero.ReadFile(ts.FS, ts.Cwd+"smdecode.log")
		require.NoError(t, err)
		logs := string(data)
		assert.Contains(t, logs, "sourcemap not found at: missing.js.map")
		assert.NotContains(t, logs, "Loading...")
	})

	t.Run("Unsupported", func(t *testing.T) {
		t.Parallel()

		ts := getSingleMapTestState(t, "app.js.map", simpleMap, []string{"app", "0", "--log-output", "syslog"}, 1)
		cmd.ExecuteWithGlobalState(ts.GlobalState)

		assert.Empty(t, ts.Stdout.String())
	})
}

func TestVersion(t *testing.T) {
	t.Parallel()

	t.Run("Text", func(t *testing.T) {
		t.Parallel()

		ts := NewGlobalTestState(t)
		ts.CmdArgs = []string{"smdecode", "version"}
		cmd.ExecuteWithGlobalState(ts.GlobalState)

		assert.True(t, strings.HasPrefix(ts.Stdout.String(), "smdecode v"+consts.Version))
	})

	t.Run("JSON", func(t *testing.T) {
		t.Parallel()

		ts := NewGlobalTestState(t)
		ts.CmdArgs = []string{"smdecode", "version", "--json"}
		cmd.ExecuteWithGlobalState(ts.GlobalState)

		stdout := ts.Stdout.String()
		assert.Equal(t, consts.Version, gjson.Get(stdout, "version").String())
		assert.True(t, gjson.Get(stdout, "go").Exists())
	})
}

func TestHelpErrorCategories(t *testing.T) {
	t.Parallel()

	ts := NewGlobalTestState(t)
	ts.CmdArgs = []string{"smdecode", "--help"}
	cmd.ExecuteWithGlobalState(ts.GlobalState)

	stdout := ts.Stdout.String()
	assert.Contains(t, stdout, consts.Banner)
	for _, category := range []string{"InvalidInput", "NotFound", "Network", "InvalidSourceMap"} {
		assert.Contains(t, stdout, category)
	}
	assert.Contains(t, stdout, "a failure without\n                    an HTTP response (DNS, refused connection, timeout) has status 0")
}
