// Package cli is the pagebuilder command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pagebuilder/internal/app"
	"pagebuilder/internal/config"
	"pagebuilder/internal/logging"
)

type rootOptions struct {
	configPath string
	jsonOut    bool
}

// NewRootCommand builds the pagebuilder command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "pagebuilder",
		Short: "Build pages from typed content blocks",
		Long: `
pagebuilder keeps projects of pages made of typed content blocks (headings,
paragraphs, images, buttons, shapes and more) and exposes the editing engine
to AI agents over MCP.
`,
		SilenceUsage: true,
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", config.FileName, "Path to the config file.")
	flags.BoolVar(&opts.jsonOut, "json", false, "Print results as JSON.")

	root.AddCommand(
		newMCPCommand(opts),
		newProjectsCommand(opts),
		newPagesCommand(opts),
		newBlocksCommand(opts),
		newLayersCommand(opts),
	)
	return root
}

func (o *rootOptions) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// withApp runs fn against a started App. Autosave is off for one-shot
// commands; edits are saved on shutdown.
func (o *rootOptions) withApp(ctx context.Context, fn func(*app.App) error) (err error) {
	cfg, logger, err := o.load()
	if err != nil {
		return err
	}
	defer logger.Sync()
	cfg.Autosave.Enabled = false

	a := app.New(cfg, logger)
	if err := a.Startup(ctx); err != nil {
		return err
	}
	defer func() {
		if serr := a.Shutdown(ctx); serr != nil && err == nil {
			err = serr
		}
	}()
	return fn(a)
}

func (o *rootOptions) printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func newMCPCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdin/stdout",
		Long: `
Runs a standalone MCP server. Every edit is saved immediately; destructive
tools wait for approval from a running pagebuilder app.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer logger.Sync()
			return app.ServeMCP(cfg, logger)
		},
	}
}
