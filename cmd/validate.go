package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hktouw/formtree/internal/config"
	"github.com/hktouw/formtree/pkg/tree"
)

var errInvalidCatalog = errors.New("invalid catalog")

func newValidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [files...]",
		Short: "Check catalog files",
		Long: `Check catalog files against the catalog schema and decode every tree and
patch set they define. Without arguments, the configured catalog sources are
merged and checked as a whole.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			if len(args) == 0 {
				root, err := a.loader().Load(cmd.Context())
				if err == nil {
					err = check(root)
				}
				if err != nil {
					return fmt.Errorf("%w: %w", errInvalidCatalog, err)
				}
				fmt.Fprintf(w, "ok: %d trees, %d patch sets\n", len(root.Trees), len(root.PatchSets))
				return nil
			}

			var failed int
			for _, file := range args {
				if err := validateFile(file); err != nil {
					a.log.Debugf("validation of %s failed: %v", file, err)
					fmt.Fprintf(w, "%s: %v\n", file, err)
					failed++
					continue
				}
				fmt.Fprintf(w, "%s: ok\n", file)
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d files failed", errInvalidCatalog, failed, len(args))
			}
			return nil
		},
	}
}

func validateFile(file string) error {
	root, err := config.ParseFile(file)
	if err != nil {
		return err
	}
	return check(root)
}

// check decodes every tree and compiles its patches for every registered
// region.
func check(root *config.Root) error {
	for _, t := range root.SortedTrees() {
		if _, err := t.Base(); err != nil {
			return err
		}
		reg, err := root.Registry(t.Name)
		if err != nil {
			return err
		}
		for _, key := range reg.Regions() {
			var errs []error
			tree.Compile(reg.Lookup(key), func(d tree.Descriptor, err error) {
				errs = append(errs, fmt.Errorf("tree %q, region %s: %s: %w", t.Name, key, d, err))
			})
			if err := errors.Join(errs...); err != nil {
				return err
			}
		}
	}
	return nil
}
