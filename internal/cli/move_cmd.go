package cli

import (
	"fmt"

	"github.com/alexanderramin/crawl/internal/tree"
	"github.com/spf13/cobra"
)

func newMoveCmd(app *App) *cobra.Command {
	var overRef string
	var below, into bool

	cmd := &cobra.Command{
		Use:   "move REF... --over REF",
		Short: "Drop nodes above, below or into another node",
		Long: `Drop one or more nodes relative to the --over node, as if dragged onto
its row. Without --below or --into the nodes land above it. Several nodes
can only be moved together inside the template catalog.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if below && into {
				return fmt.Errorf("--below and --into are mutually exclusive")
			}
			pos := tree.PositionFromDropBelow(below)
			if into {
				pos = tree.Into
			}

			over, err := resolveRef(app, overRef)
			if err != nil {
				return err
			}
			ids := make([]string, 0, len(args))
			for _, ref := range args {
				row, err := resolveRef(app, ref)
				if err != nil {
					return err
				}
				ids = append(ids, row.Node.ID)
			}

			if len(ids) == 1 {
				outcome, err := app.Catalog.Move(cmd.Context(), ids[0], over.Node.ID, pos)
				if err != nil {
					return err
				}
				printOutcome(cmd.OutOrStdout(), "Moved", outcome)
				return nil
			}
			outcome, err := app.Catalog.MoveMany(cmd.Context(), ids, over.Node.ID, pos)
			if err != nil {
				return err
			}
			printOutcome(cmd.OutOrStdout(), fmt.Sprintf("Moved %d nodes with", len(ids)), outcome)
			return nil
		},
	}

	cmd.Flags().StringVar(&overRef, "over", "", "Node the drop lands on")
	cmd.Flags().BoolVar(&below, "below", false, "Drop below the node")
	cmd.Flags().BoolVar(&into, "into", false, "Drop into the node")
	_ = cmd.MarkFlagRequired("over")
	return cmd
}

func newPasteCmd(app *App) *cobra.Command {
	var targetRef string
	var cut bool

	cmd := &cobra.Command{
		Use:   "paste SRC",
		Short: "Copy (or cut) a subtree and paste it into another node",
		Long: `Copy SRC and everything under it into --into, or to the root of its
catalog when --into is omitted. Pasted nodes get new ids; names that clash
are numbered. With --cut the source is removed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := resolveRef(app, args[0])
			if err != nil {
				return err
			}
			target, err := resolveOptionalRef(app, targetRef)
			if err != nil {
				return err
			}

			if cut {
				err = app.Catalog.Cut(src.Node.ID)
			} else {
				err = app.Catalog.Copy(src.Node.ID)
			}
			if err != nil {
				return err
			}
			outcome, err := app.Catalog.Paste(cmd.Context(), target)
			if err != nil {
				return err
			}
			printOutcome(cmd.OutOrStdout(), "Pasted", outcome)
			return nil
		},
	}

	cmd.Flags().StringVar(&targetRef, "into", "", "Node to paste into (default: catalog root)")
	cmd.Flags().BoolVar(&cut, "cut", false, "Remove the source after pasting")
	return cmd
}
