package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/crawl/internal/cli/formatter"
	"github.com/alexanderramin/crawl/internal/domain"
	"github.com/alexanderramin/crawl/internal/tree"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func newTreeCmd(app *App) *cobra.Command {
	var hideInactive bool
	var at, rootRef string

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := app.now()
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("--at must be RFC3339: %w", err)
				}
				now = t
			}
			rows := app.Catalog.VisibleRows(now, hideInactive)

			if rootRef == "" {
				fmt.Fprint(cmd.OutOrStdout(), formatter.RenderCatalog(rows, now))
				return nil
			}
			root, err := resolveRef(app, rootRef)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTree(formatter.ItemsFromRows(subtreeRows(rows, root.Node.ID), now)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&hideInactive, "hide-inactive", false, "Hide nodes that are off now")
	cmd.Flags().StringVar(&at, "at", "", "Evaluate schedules at this RFC3339 time")
	cmd.Flags().StringVar(&rootRef, "root", "", "Only show this subtree")
	return cmd
}

// subtreeRows keeps the rows under rootID, rebased to depth 0.
func subtreeRows(rows []tree.Row, rootID string) []tree.Row {
	var out []tree.Row
	base := -1
	for _, r := range rows {
		if !containsID(r.Path, rootID) {
			continue
		}
		if base < 0 {
			base = r.Depth
		}
		r.Depth -= base
		out = append(out, r)
	}
	return out
}

func containsID(path []string, id string) bool {
	for _, p := range path {
		if p == id {
			return true
		}
	}
	return false
}

func newFindCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "find TEXT",
		Short: "List nodes whose name contains TEXT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			needle := strings.ToLower(args[0])
			now := app.now()
			var out [][]string
			for _, r := range app.Catalog.Rows() {
				if !strings.Contains(strings.ToLower(r.Node.Name), needle) {
					continue
				}
				state := formatter.StateMark(formatter.StateLive)
				if !r.Node.LiveAt(now) {
					state = formatter.StateMark(formatter.StateOff)
				}
				out = append(out, []string{formatter.TruncID(r.Node.ID), string(r.Node.Type), state, r.DisplayPath})
			}
			if len(out) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("No matches"))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable([]string{"ID", "TYPE", "", "PATH"}, out))
			return nil
		},
	}
}

func newAddCmd(app *App) *cobra.Command {
	var typ, name, parentRef string
	var inactive bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := domain.ParseNodeType(typ)
			if err != nil {
				return err
			}
			n := &domain.Node{Type: t, Name: name, Active: !inactive}
			if parentRef != "" {
				parent, err := resolveRef(app, parentRef)
				if err != nil {
					return err
				}
				n.ParentID = &parent.Node.ID
			}

			outcome, err := app.Catalog.Create(cmd.Context(), n)
			if err != nil {
				return err
			}
			printOutcome(cmd.OutOrStdout(), "Created", outcome)
			return nil
		},
	}

	cmd.Flags().StringVar(&typ, "type", "", "Node type (folder|bucket|itemFolder|item|templateFolder|template)")
	cmd.Flags().StringVar(&name, "name", "", "Node name")
	cmd.Flags().StringVar(&parentRef, "parent", "", "Parent node")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "Create switched off")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename REF NAME",
		Short: "Rename a node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := resolveRef(app, args[0])
			if err != nil {
				return err
			}
			outcome, err := app.Catalog.Rename(cmd.Context(), row.Node.ID, args[1])
			if err != nil {
				return err
			}
			printOutcome(cmd.OutOrStdout(), "Renamed to", outcome)
			return nil
		},
	}
}

func newRemoveCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "rm REF",
		Short: "Delete a node and everything under it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := resolveRef(app, args[0])
			if err != nil {
				return err
			}
			if !yes {
				if !app.interactive() {
					return fmt.Errorf("refusing to delete %q without --yes", row.DisplayPath)
				}
				count := len(app.Catalog.Forest().Subtree(row.Node.ID))
				ok, err := app.confirm(fmt.Sprintf("Delete %s (%d nodes)?", row.DisplayPath, count))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Cancelled"))
					return nil
				}
			}

			outcome, err := app.Catalog.Delete(cmd.Context(), row.Node.ID)
			if err != nil {
				return err
			}
			printOutcome(cmd.OutOrStdout(), "Deleted", outcome)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func (a *App) confirm(title string) (bool, error) {
	if a.Confirm != nil {
		return a.Confirm(title)
	}
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Delete").
				Negative("Keep").
				Value(&ok),
		),
	).Run()
	return ok, err
}

func newToggleCmd(app *App) *cobra.Command {
	var on, off bool

	cmd := &cobra.Command{
		Use:   "toggle REF",
		Short: "Switch a node on or off",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := resolveRef(app, args[0])
			if err != nil {
				return err
			}
			active := !row.Node.Active
			switch {
			case on && off:
				return fmt.Errorf("--on and --off are mutually exclusive")
			case on:
				active = true
			case off:
				active = false
			}

			outcome, err := app.Catalog.SetActive(cmd.Context(), row.Node.ID, active)
			if err != nil {
				return err
			}
			verb := "Switched off"
			if active {
				verb = "Switched on"
			}
			printOutcome(cmd.OutOrStdout(), verb, outcome)
			return nil
		},
	}

	cmd.Flags().BoolVar(&on, "on", false, "Switch on")
	cmd.Flags().BoolVar(&off, "off", false, "Switch off")
	return cmd
}
