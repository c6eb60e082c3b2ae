package cli

import (
	"fmt"
	"os"

	"github.com/alexanderramin/crawl/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newImportCmd(app *App) *cobra.Command {
	var parentRef string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import nodes from a YAML seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, err := resolveOptionalRef(app, parentRef)
			if err != nil {
				return err
			}
			result, err := app.Imports.ImportFile(cmd.Context(), args[0], parentID)
			if err != nil {
				return err
			}
			printOutcome(cmd.OutOrStdout(), fmt.Sprintf("Imported %d nodes starting with", result.NodeCount), result.Outcome)
			return nil
		},
	}

	cmd.Flags().StringVar(&parentRef, "parent", "", "Import under this node")
	return cmd
}

func newExportCmd(app *App) *cobra.Command {
	var rootRef, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog, or one subtree, as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rootID, err := resolveOptionalRef(app, rootRef)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return app.Imports.Export(cmd.Context(), cmd.OutOrStdout(), rootID)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			if err := app.Imports.Export(cmd.Context(), f, rootID); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", formatter.Bold(output))
			return nil
		},
	}

	cmd.Flags().StringVar(&rootRef, "root", "", "Only export this subtree")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}
