package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/taskbench/internal/harness"
)

// TaskSummary is one row of list output.
type TaskSummary struct {
	ID                 int    `json:"id"`
	Name               string `json:"name"`
	Component          string `json:"component"`
	Layout             string `json:"layout"`
	Graded             bool   `json:"graded"`
	RequiresSubmission bool   `json:"requires_submission"`
}

// ListResult is the list command payload.
type ListResult struct {
	Catalog string        `json:"catalog"`
	Tasks   []TaskSummary `json:"tasks"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var catalogPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tasks in a catalog",
		Long: `List every task in the catalog in display order.

Without --catalog the catalog.path config value is used; when that is
empty too, the built-in catalog is listed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, catalogPath, cmd)
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog YAML file")

	return cmd
}

func runList(opts *RootOptions, catalogPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cat, path, err := openCatalog(opts, formatter, catalogPath)
	if err != nil {
		return err
	}

	result := ListResult{Catalog: catalogLabel(path), Tasks: summarize(cat)}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tLAYOUT\tGRADED\tSUBMIT")
	for _, t := range result.Tasks {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.Name, t.Layout, yesNo(t.Graded), yesNo(t.RequiresSubmission))
	}
	return tw.Flush()
}

func summarize(cat *harness.Catalog) []TaskSummary {
	tasks := cat.All()
	out := make([]TaskSummary, len(tasks))
	for i, t := range tasks {
		out[i] = TaskSummary{
			ID:                 t.ID,
			Name:               t.Name,
			Component:          t.Component,
			Layout:             t.Layout,
			Graded:             t.Graded(),
			RequiresSubmission: t.RequiresSubmission,
		}
	}
	return out
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
