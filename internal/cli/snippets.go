package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/snippet-desk/internal/apperror"
	"github.com/sakif/snippet-desk/internal/media"
	"github.com/sakif/snippet-desk/internal/model"
	"github.com/sakif/snippet-desk/internal/store"
)

func newListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List snippets, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.connect(cmd.Context())
			if err != nil {
				return err
			}
			st := store.New(c, app.log())
			if err := st.Refresh(cmd.Context()); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tMEDIA\tMODIFIED")
			for _, s := range st.All() {
				title := s.Description
				if title == "" {
					title = "(untitled)"
				}
				modified := "-"
				if !s.LastModificationDate.IsZero() {
					modified = s.LastModificationDate.Local().Format(time.DateTime)
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.ID, title, len(s.MediaPaths), modified)
			}
			return w.Flush()
		},
	}
}

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one snippet as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.connect(cmd.Context())
			if err != nil {
				return err
			}
			st := store.New(c, app.log())
			if err := st.Refresh(cmd.Context()); err != nil {
				return err
			}
			s, ok := st.Find(model.ID(args[0]))
			if !ok {
				return apperror.NotFound("snippet", args[0])
			}
			return writeJSON(cmd, s)
		},
	}
}

func newNewCmd(app *App) *cobra.Command {
	var title, description, code, categories string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a snippet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := model.Blank(time.Now())
			s.Description = title
			s.FullDescription = description
			s.CodeContent = code
			s.Categories = model.SplitCategories(categories)
			if s.IsBlank() {
				// The editor would reclaim it on exit anyway.
				return apperror.Usage("refusing to create an empty snippet: pass --title, --description or --code")
			}

			c, err := app.connect(cmd.Context())
			if err != nil {
				return err
			}
			created, err := c.Create(cmd.Context(), s)
			if err != nil {
				return err
			}
			return writeJSON(cmd, created)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Title")
	cmd.Flags().StringVar(&description, "description", "", "Long description")
	cmd.Flags().StringVar(&code, "code", "", "Code body")
	cmd.Flags().StringVar(&categories, "categories", "", "Comma-separated categories")
	return cmd
}

func newDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a snippet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.connect(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.Delete(cmd.Context(), model.ID(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newAttachCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <id> <path>",
		Short: "Upload a media file to a snippet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.connect(cmd.Context())
			if err != nil {
				return err
			}
			f, closer, err := media.OpenFile(args[1])
			if err != nil {
				return err
			}
			defer closer.Close()

			updated, err := media.NewManager(c, app.log()).Upload(cmd.Context(), model.Snippet{ID: model.ID(args[0])}, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "attached %s (%d media)\n", f.Name, len(updated.MediaPaths))
			if updated.FirstMediaURL != "" {
				fmt.Fprintln(cmd.OutOrStdout(), c.ResolveURL(updated.FirstMediaURL))
			}
			return nil
		},
	}
}

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check that the host is reachable and this device is allowed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.client()
			if err != nil {
				return err
			}
			st, err := c.Status(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd, st)
		},
	}
}

func newPairCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pair <code>",
		Short: "Exchange the host's pairing code for a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.client()
			if err != nil {
				return err
			}
			name, _ := os.Hostname()
			token, err := c.Pair(cmd.Context(), strings.TrimSpace(args[0]), name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintln(cmd.ErrOrStderr(), "export SNIPPETS_TOKEN=<token above> to use it")
			return nil
		},
	}
}
