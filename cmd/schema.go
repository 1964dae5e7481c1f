package cmd

import (
	"github.com/spf13/cobra"

	ext_config "github.com/hktouw/formtree/config"
	"github.com/hktouw/formtree/internal/config"
)

func newSchemaCommand(*app) *cobra.Command {
	var reflect bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of catalog files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bs := ext_config.Schema()
			if reflect {
				var err error
				if bs, err = config.ReflectSchema(); err != nil {
					return err
				}
				bs = append(bs, '\n')
			}
			_, err := cmd.OutOrStdout().Write(bs)
			return err
		},
	}
	cmd.Flags().BoolVar(&reflect, "reflect", false, "derive the schema from the catalog types instead of printing the embedded one")

	return cmd
}
