package cmd

import (
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/hktouw/formtree/pkg/tree"
)

func newRegionsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List the regions that have patches registered, per tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			root := svc.Catalog()

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Tree", "Region", "Match", "Patches", "Policy")
			for _, t := range root.SortedTrees() {
				reg, err := root.Registry(t.Name)
				if err != nil {
					return err
				}
				policy, err := tree.ParseApplyPolicy(t.Policy)
				if err != nil {
					return err
				}
				for _, key := range reg.Regions() {
					n := len(reg.Lookup(key))
					if err := table.Append(t.Name, key.String(), "exact", strconv.Itoa(n), policy.String()); err != nil {
						return err
					}
				}
				for _, p := range reg.Patterns() {
					if err := table.Append(t.Name, p, "pattern", "", policy.String()); err != nil {
						return err
					}
				}
			}
			return table.Render()
		},
	}
}
