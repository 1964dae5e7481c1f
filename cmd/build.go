package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thediveo/enumflag/v2"

	"github.com/hktouw/formtree/pkg/tree"
)

func newBuildCommand(a *app) *cobra.Command {
	var (
		region string
		format outputFormat
		report bool
	)

	cmd := &cobra.Command{
		Use:   "build <tree>",
		Short: "Build a tree with the patches of a region applied",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}

			name := args[0]
			res, err := svc.BuildTree(cmd.Context(), name, tree.ParseRegionKey(region))
			if err != nil {
				return err
			}
			t, err := svc.Catalog().Tree(name)
			if err != nil {
				return err
			}

			bs, err := encode(res.Root, t.Keys, format)
			if err != nil {
				return err
			}
			if _, err := cmd.OutOrStdout().Write(bs); err != nil {
				return err
			}

			if report {
				w := cmd.ErrOrStderr()
				for _, applied := range res.Report.Applied {
					fmt.Fprintf(w, "applied patch %d at /%s\n", applied.Patch, strings.Join(applied.Path, "/"))
				}
				for _, i := range res.Report.Unused {
					fmt.Fprintf(w, "patch %d matched no node\n", i)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&region, "region", "r", "", "region key as region/locality (default: no region)")
	cmd.Flags().VarP(enumflag.New(&format, "format", outputFormatNames, enumflag.EnumCaseInsensitive),
		"format", "f", "output format (yaml, json)")
	cmd.Flags().BoolVar(&report, "report", false, "print where patches were applied to stderr")

	return cmd
}
