package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/thediveo/enumflag/v2"

	"github.com/hktouw/formtree/internal/config"
	"github.com/hktouw/formtree/internal/pool"
	"github.com/hktouw/formtree/internal/service"
	"github.com/hktouw/formtree/pkg/tree"
)

func newWatchCommand(a *app) *cobra.Command {
	var (
		region   string
		format   outputFormat
		interval time.Duration
		once     bool
	)

	cmd := &cobra.Command{
		Use:   "watch <tree>",
		Short: "Rebuild a tree whenever the catalog changes",
		Long: `Reload the catalog periodically and print the tree again each time the
catalog changed. Runs until interrupted, or until the first load with --once.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			key := tree.ParseRegionKey(region)
			out := cmd.OutOrStdout()
			loader := a.loader()
			svc := a.newService()

			render := func(ctx context.Context, root *config.Root) error {
				res, err := svc.BuildTree(ctx, name, key)
				if err != nil {
					return err
				}
				t, err := root.Tree(name)
				if err != nil {
					return err
				}
				bs, err := encode(res.Root, t.Keys, format)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(out, "---\n%s", bs)
				return err
			}

			var failed error
			w := service.NewCatalogWorker(svc, loader.Load, a.log).
				WithInterval(interval).
				WithSingleShot(once).
				WithOnChange(func(ctx context.Context, root *config.Root) {
					if failed = render(ctx, root); failed != nil {
						a.log.Errorf("failed to build tree %q for %s: %v", name, key, failed)
					}
				})

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			p := pool.New(ctx, 1)
			defer p.Close()
			p.Add("catalog", w.Execute)

			select {
			case <-w.Done():
			case <-ctx.Done():
			}

			if once {
				if st := w.Status(); st.State == service.ReloadFailed {
					return errors.New(st.Message)
				}
				return failed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&region, "region", "r", "", "region key as region/locality (default: no region)")
	cmd.Flags().VarP(enumflag.New(&format, "format", outputFormatNames, enumflag.EnumCaseInsensitive),
		"format", "f", "output format (yaml, json)")
	cmd.Flags().DurationVar(&interval, "interval", 10*time.Second, "catalog reload interval")
	cmd.Flags().BoolVar(&once, "once", false, "exit after the first catalog load")

	return cmd
}
