package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/guregu/null.v3"

	"go.k6.io/smdecode/cmd/state"
	"go.k6.io/smdecode/decoder"
	"go.k6.io/smdecode/errext"
	"go.k6.io/smdecode/loader"
	"go.k6.io/smdecode/sourcemap"
	"go.k6.io/smdecode/ui/console"
)

const (
	formatJSON = "json"
	formatText = "text"
)

// decodeCmd resolves one generated position. It is the root command.
type decodeCmd struct {
	gs *state.GlobalState

	line       int
	column     int
	format     string
	showSource bool
}

// decodeOutput is the position, plus the original line of code when it was
// asked for.
type decodeOutput struct {
	sourcemap.Position
	SourceLine *null.String `json:"sourceLine,omitempty"`
}

func (c *decodeCmd) flagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("", pflag.ContinueOnError)
	flags.SortFlags = false
	flags.IntVarP(&c.line, "line", "l", 1, "1-based line in the generated file")
	flags.IntVarP(&c.column, "column", "c", 0, "0-based column in the generated file, instead of the positional argument")
	flags.StringVarP(&c.format, "format", "f", formatJSON, "output format, possible values are: 'json', 'text'")
	flags.BoolVar(&c.showSource, "show-source", false, "print the original line of code, when the sourcemap embeds it")
	flags.String("source-root-policy", "join",
		"how sourceRoot is combined with the sources, possible values are: 'join', 'concat', 'ignore'")
	flags.Duration("timeout", 0, "timeout for fetching a remote sourcemap (default 30s)")
	return flags
}

// errorCategories is appended to the help text of the base command.
const errorCategories = `Errors are logged to stderr with one of these categories and exit code 1:
  InvalidInput      the line, column or sourcemap path is not valid
  NotFound          the local sourcemap file does not exist
  Network           the remote sourcemap could not be fetched; a failure without
                    an HTTP response (DNS, refused connection, timeout) has status 0
  InvalidSourceMap  the sourcemap is malformed or the position has no original source`

func (c *decodeCmd) example() string {
	bin := c.gs.BinaryName
	return fmt.Sprintf(`  # Resolve column 120 of the first line of dist/app.js
  %[1]s dist/app.js.map 120

  # The extension is optional, .js.map is appended when it is missing
  %[1]s dist/app 120 --line 3

  # Fetch the sourcemap and print the original line of code
  %[1]s https://example.com/app.js.map 4521 --format text --show-source`, bin)
}

func (c *decodeCmd) args(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("column") {
		return exactArgsWithMsg(1, "arg should be the sourcemap file path or URL")(cmd, args)
	}
	return exactArgsWithMsg(2, "args should be the sourcemap file path or URL and a column number")(cmd, args)
}

func (c *decodeCmd) config(flags *pflag.FlagSet) (decoder.Config, error) {
	cli := decoder.Config{
		Timeout:          getNullDuration(flags, "timeout"),
		SourceRootPolicy: getNullString(flags, "source-root-policy"),
	}
	conf, err := decoder.GetConsolidatedConfig(c.gs.Env, cli)
	if err != nil {
		return decoder.Config{}, &errext.Error{Kind: errext.InvalidInput, Err: err}
	}
	return conf, nil
}

func (c *decodeCmd) run(cmd *cobra.Command, args []string) error {
	column := c.column
	if !cmd.Flags().Changed("column") {
		var err error
		column, err = strconv.Atoi(args[1])
		if err != nil {
			return errext.NewInvalidInput("column number must be a non-negative integer, got: %q", args[1])
		}
	}
	if c.format != formatJSON && c.format != formatText {
		return errext.NewInvalidInput("unsupported output format %q, expected json or text", c.format)
	}
	locator := args[0]
	if err := decoder.ValidatePosition(locator, column, c.line); err != nil {
		return err
	}

	conf, err := c.config(cmd.Flags())
	if err != nil {
		return err
	}
	d, err := decoder.New(c.gs.Logger, conf, loader.Options{
		FS:    c.gs.FS,
		Getwd: c.gs.Getwd,
		Stdin: c.gs.Stdin,
	})
	if err != nil {
		return err
	}

	res, err := d.Lookup(c.gs.Ctx, locator, column, c.line)
	if err != nil {
		return err
	}

	if c.format == formatText {
		return c.printText(res)
	}
	return c.printJSON(res)
}

func (c *decodeCmd) printJSON(res decoder.Result) error {
	out := decodeOutput{Position: res.Position}
	if c.showSource {
		line := null.String{}
		if res.SourceContent.Valid {
			text, ok := console.SourceLine(res.SourceContent.String, int(res.Position.Line.Int64))
			line = null.NewString(text, ok)
		}
		out.SourceLine = &line
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal the position: %w", err)
	}
	printToStdout(c.gs, string(data)+"\n")
	return nil
}

func (c *decodeCmd) printText(res decoder.Result) error {
	theme := console.NewTheme(!c.gs.Flags.NoColor && c.gs.Stdout.IsTTY)
	printToStdout(c.gs, theme.FormatPosition(res.Position)+"\n")
	if !c.showSource {
		return nil
	}

	pos := res.Position
	if res.SourceContent.Valid {
		excerpt, ok := theme.FormatExcerpt(
			res.SourceContent.String, int(pos.Line.Int64), int(pos.Column.Int64), c.gs.Stdout.Width)
		if ok {
			printToStdout(c.gs, excerpt+"\n")
			return nil
		}
	}
	c.gs.Logger.WithField("source", pos.Source.String).Warn("The sourcemap doesn't embed this line of the original source")
	return nil
}
