package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pagebuilder/internal/app"
	"pagebuilder/internal/domain"
)

// ── projects ───────────────────────────────────────────────

func newProjectsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List and create projects",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				projects, err := a.ListProjects()
				if err != nil {
					return err
				}
				if opts.jsonOut {
					return opts.printJSON(cmd.OutOrStdout(), projects)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME")
				for _, p := range projects {
					fmt.Fprintf(tw, "%s\t%s\n", p.ID, p.Name)
				}
				return tw.Flush()
			})
		},
	}, &cobra.Command{
		Use:   "create NAME",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				p, err := a.CreateProject(args[0])
				if err != nil {
					return err
				}
				if opts.jsonOut {
					return opts.printJSON(cmd.OutOrStdout(), p)
				}
				fmt.Fprintln(cmd.OutOrStdout(), p.ID)
				return nil
			})
		},
	})
	return cmd
}

// ── pages ──────────────────────────────────────────────────

func newPagesCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages",
		Short: "List and create pages of a project",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list PROJECT_ID",
		Short: "List the pages of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				pages, err := a.ListPages(args[0])
				if err != nil {
					return err
				}
				if opts.jsonOut {
					return opts.printJSON(cmd.OutOrStdout(), pages)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tORDER")
				for _, p := range pages {
					fmt.Fprintf(tw, "%s\t%s\t%d\n", p.ID, p.Name, p.Order)
				}
				return tw.Flush()
			})
		},
	}, &cobra.Command{
		Use:   "create PROJECT_ID NAME",
		Short: "Create a page",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				p, err := a.CreatePage(args[0], args[1])
				if err != nil {
					return err
				}
				if opts.jsonOut {
					return opts.printJSON(cmd.OutOrStdout(), p)
				}
				fmt.Fprintln(cmd.OutOrStdout(), p.ID)
				return nil
			})
		},
	})
	return cmd
}

// ── blocks ─────────────────────────────────────────────────

func newBlocksCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blocks",
		Short: "List and add blocks of a page",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list PAGE_ID",
		Short: "List the blocks of a page from back to front",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				if _, err := a.OpenPage(args[0]); err != nil {
					return err
				}
				blocks := a.GetBlocks()
				if opts.jsonOut {
					return opts.printJSON(cmd.OutOrStdout(), blocks)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "INDEX\tID\tTYPE\tSUMMARY")
				for i, b := range blocks {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i, b.ID, b.Type, b.Summary())
				}
				return tw.Flush()
			})
		},
	}, newBlocksAddCommand(opts))
	return cmd
}

func newBlocksAddCommand(opts *rootOptions) *cobra.Command {
	var (
		index   int
		content string
	)
	cmd := &cobra.Command{
		Use:   "add PAGE_ID TYPE",
		Short: "Add a block with default content",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch domain.Patch
			if content != "" {
				if err := json.Unmarshal([]byte(content), &patch); err != nil {
					return fmt.Errorf("--content must be a JSON object: %w", err)
				}
			}
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				if _, err := a.OpenPage(args[0]); err != nil {
					return err
				}
				var (
					b   domain.Block
					err error
				)
				if cmd.Flags().Changed("index") {
					b, err = a.DropBlock(args[1], index)
				} else {
					b, err = a.AddBlock(args[1])
				}
				if err != nil {
					return err
				}
				if len(patch) > 0 {
					if err := a.UpdateBlock(b.ID, patch); err != nil {
						return err
					}
				}
				if err := a.SavePage(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), b.ID)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&index, "index", 0, "Depth index to insert at, 0 is the back. Default: in front.")
	cmd.Flags().StringVar(&content, "content", "", "JSON object of content fields to set.")
	return cmd
}

// ── layers ─────────────────────────────────────────────────

func newLayersCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "layers PAGE_ID",
		Short: "Show the layer list of a page, front first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				if _, err := a.OpenPage(args[0]); err != nil {
					return err
				}
				rows := a.GetLayers()
				if opts.jsonOut {
					return opts.printJSON(cmd.OutOrStdout(), rows)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "#\tID\tTYPE\tSUMMARY")
				for _, r := range rows {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.Index, r.ID, r.Type, r.Summary)
				}
				return tw.Flush()
			})
		},
	}
}
