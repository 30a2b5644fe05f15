package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"naskahlokal/internal/document/service"
	"naskahlokal/internal/export"
	"naskahlokal/internal/session"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "list",
		Short:        "List documents, most recently updated first",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := openStores(rootOpts)
			defer s.close()

			docs, err := s.catalog().GetDocuments(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(docs) == 0 {
				fmt.Fprintln(out, "No documents.")
				return nil
			}
			for _, d := range docs {
				fmt.Fprintf(out, "%s\t%s\t%s\n", d.ID, formatMillis(d.UpdatedAt), d.Title)
			}
			return nil
		},
	}
}

// NewNewCommand creates the new command.
func NewNewCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "new <title>",
		Short:        "Create an empty document",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := openStores(rootOpts)
			defer s.close()

			doc, err := s.catalog().CreateDocument(cmd.Context(), strings.Join(args, " "))
			if errors.Is(err, session.ErrNoTitle) {
				return fmt.Errorf("title cannot be empty")
			}
			if err != nil {
				return err
			}
			if err := s.prefs.SetLastDocID(cmd.Context(), doc.ID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), doc.ID)
			return nil
		},
	}
}

// NewRemoveCommand creates the rm command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "rm <id>",
		Short:        "Delete a document",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := openStores(rootOpts)
			defer s.close()

			if err := s.catalog().DeleteDocument(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var toStdout bool

	cmd := &cobra.Command{
		Use:   "export <id> [dir]",
		Short: "Write a document to a .txt file named after its title",
		Long: `Write a document's text to <dir>/<title>.txt, where every character of
the title outside a-z and 0-9 becomes an underscore. dir defaults to the
current directory.`,
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := openStores(rootOpts)
			defer s.close()

			doc, err := s.catalog().GetDocument(cmd.Context(), args[0])
			if errors.Is(err, service.ErrNotFound) {
				return fmt.Errorf("document %s not found", args[0])
			}
			if err != nil {
				return err
			}

			if toStdout {
				return export.WriteText(cmd.OutOrStdout(), doc.Content)
			}
			dir := "."
			if len(args) == 2 {
				dir = args[1]
			}
			path, err := export.SaveFile(dir, doc.DisplayTitle(), doc.Content)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&toStdout, "stdout", false, "write the text to stdout instead of a file")
	return cmd
}
