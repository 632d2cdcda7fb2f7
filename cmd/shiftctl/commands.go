package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"shift-production/internal/catalog"
)

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List machine types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			types, err := newClient().FetchTypes(ctx)
			if err != nil {
				return err
			}
			for _, t := range types {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
}

func newMachinesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "machines TYPE",
		Short: "List machines of a type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			machines, err := newClient().FetchMachines(ctx, args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTYPE")
			for _, m := range machines {
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.ID, m.Name, m.Type)
			}
			return w.Flush()
		},
	}
}

func newItemsCmd() *cobra.Command {
	var tree bool

	cmd := &cobra.Command{
		Use:   "items TYPE",
		Short: "List items for a machine type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			items, err := newClient().FetchItems(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if tree {
				for _, c := range catalog.Categories(items) {
					fmt.Fprintln(out, c)
					for _, sc := range catalog.SubCategories(items, c) {
						fmt.Fprintf(out, "  %s\n", sc)
						for _, size := range catalog.Sizes(items, c, sc) {
							fmt.Fprintf(out, "    %s\n", size)
						}
					}
				}
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCATEGORY\tSUBCATEGORY\tSIZE")
			for _, it := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", it.ID, it.Category, it.SubCategory, it.Size)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&tree, "tree", false, "show the category > subcategory > size cascade")
	return cmd
}

func newPeopleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "people",
		Short: "List doers and supervisors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			c := newClient()
			doers, err := c.FetchDoers(ctx)
			if err != nil {
				return err
			}
			supervisors, err := c.FetchSupervisors(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ROLE\tNAME\tEMAIL\tPHONE")
			for _, p := range doers {
				fmt.Fprintf(w, "doer\t%s\t%s\t%s\n", p.Name, p.Email, p.Phone)
			}
			for _, p := range supervisors {
				fmt.Fprintf(w, "supervisor\t%s\t%s\t%s\n", p.Name, p.Email, p.Phone)
			}
			return w.Flush()
		},
	}
}

func newEntriesCmd() *cobra.Command {
	var report, from, to string

	cmd := &cobra.Command{
		Use:   "entries",
		Short: "Print appended production rows as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			rows, err := newClient().Entries(ctx, report, from, to)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), rows)
		},
	}

	cmd.Flags().StringVar(&report, "report", "shift", "report to read: shift or daily")
	cmd.Flags().StringVar(&from, "from", "", "first production date, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last production date, YYYY-MM-DD")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
