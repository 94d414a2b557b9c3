package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"go.k6.io/smdecode/cmd/state"
	"go.k6.io/smdecode/decoder"
	"go.k6.io/smdecode/errext"
	"go.k6.io/smdecode/loader"
	"go.k6.io/smdecode/sourcemap"
)

const formatYAML = "yaml"

// inspectOutput describes a sourcemap without resolving anything in it.
type inspectOutput struct {
	File           string    `json:"file" yaml:"file"`
	SourceRoot     string    `json:"sourceRoot" yaml:"sourceRoot"`
	Sources        []*string `json:"sources" yaml:"sources"`
	SourcesContent int       `json:"sourcesContent" yaml:"sourcesContent"`
	Names          int       `json:"names" yaml:"names"`

	sourcemap.Stats `yaml:",inline"`
}

func newInspectOutput(doc *sourcemap.Document, stats sourcemap.Stats) inspectOutput {
	out := inspectOutput{
		File:       doc.File,
		SourceRoot: doc.SourceRoot,
		Sources:    []*string{},
		Stats:      stats,
	}
	docs := []*sourcemap.Document{doc}
	for _, s := range doc.Sections {
		docs = append(docs, s.Map)
	}
	for _, d := range docs {
		for _, src := range d.Sources {
			out.Sources = append(out.Sources, src.Ptr())
		}
		out.Names += len(d.Names)
		for _, content := range d.SourcesContent {
			if content.Valid {
				out.SourcesContent++
			}
		}
	}
	return out
}

type inspectCmd struct {
	gs     *state.GlobalState
	format string
}

func (c *inspectCmd) run(_ *cobra.Command, args []string) error {
	if c.format != formatJSON && c.format != formatYAML {
		return errext.NewInvalidInput("unsupported output format %q, expected json or yaml", c.format)
	}

	conf, err := decoder.GetConsolidatedConfig(c.gs.Env, decoder.Config{})
	if err != nil {
		return &errext.Error{Kind: errext.InvalidInput, Err: err}
	}
	d, err := decoder.New(c.gs.Logger, conf, loader.Options{
		FS:    c.gs.FS,
		Getwd: c.gs.Getwd,
		Stdin: c.gs.Stdin,
	})
	if err != nil {
		return err
	}

	consumer, err := d.Open(c.gs.Ctx, args[0])
	if err != nil {
		return err
	}
	stats, err := consumer.Stats()
	if err != nil {
		return errext.AsInvalidSourceMap(err)
	}
	out := newInspectOutput(consumer.Document(), stats)

	if c.format == formatYAML {
		data, err := yaml.Marshal(out)
		if err != nil {
			return fmt.Errorf("could not marshal YAML: %w", err)
		}
		printToStdout(c.gs, string(data))
		return nil
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal the summary: %w", err)
	}
	printToStdout(c.gs, string(data)+"\n")
	return nil
}

func getCmdInspect(gs *state.GlobalState) *cobra.Command {
	c := &inspectCmd{gs: gs}

	inspectCmd := &cobra.Command{
		Use:   "inspect <mapFilePath>",
		Short: "Decode a sourcemap and print a summary of it",
		Long: `Decode a sourcemap and print a summary of it.

The whole mappings string is decoded, so this also validates the sourcemap.`,
		Example: fmt.Sprintf("  %[1]s inspect dist/app.js.map\n  %[1]s inspect --format yaml https://example.com/app.js.map",
			gs.BinaryName),
		Args: exactArgsWithMsg(1, "arg should be the sourcemap file path or URL"),
		RunE: c.run,
	}
	inspectCmd.Flags().StringVarP(&c.format, "format", "f", formatJSON,
		"output format, possible values are: 'json', 'yaml'")

	return inspectCmd
}
