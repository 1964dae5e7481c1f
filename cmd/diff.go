package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thediveo/enumflag/v2"

	"github.com/hktouw/formtree/internal/jsonpatch"
	"github.com/hktouw/formtree/pkg/tree"
)

type diffFormat int

const (
	diffMergePatch diffFormat = iota
	diffUnified
)

var diffFormatNames = map[diffFormat][]string{
	diffMergePatch: {"merge-patch"},
	diffUnified:    {"unified"},
}

func newDiffCommand(a *app) *cobra.Command {
	var (
		region string
		format diffFormat
	)

	cmd := &cobra.Command{
		Use:   "diff <tree>",
		Short: "Show what the patches of a region change in a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}

			name := args[0]
			key := tree.ParseRegionKey(region)
			t, err := svc.Catalog().Tree(name)
			if err != nil {
				return err
			}
			base, err := svc.BaseTree(cmd.Context(), name)
			if err != nil {
				return err
			}
			res, err := svc.BuildTree(cmd.Context(), name, key)
			if err != nil {
				return err
			}

			var out []byte
			switch format {
			case diffMergePatch:
				baseJSON, err := base.EncodeJSON(t.Keys)
				if err != nil {
					return err
				}
				variantJSON, err := res.Root.EncodeJSON(t.Keys)
				if err != nil {
					return err
				}
				patch, err := jsonpatch.Diff(baseJSON, variantJSON)
				if err != nil {
					return err
				}
				if out, err = indentJSON(patch); err != nil {
					return err
				}
			case diffUnified:
				baseYAML, err := base.EncodeYAML(t.Keys)
				if err != nil {
					return err
				}
				variantYAML, err := res.Root.EncodeYAML(t.Keys)
				if err != nil {
					return err
				}
				out = []byte(jsonpatch.Unified(name, name+"@"+key.String(), string(baseYAML), string(variantYAML)))
			default:
				return fmt.Errorf("unknown diff format %d", format)
			}

			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().StringVarP(&region, "region", "r", "", "region key as region/locality")
	cmd.Flags().VarP(enumflag.New(&format, "format", diffFormatNames, enumflag.EnumCaseInsensitive),
		"format", "f", "diff format (merge-patch, unified)")
	_ = cmd.MarkFlagRequired("region")

	return cmd
}
