package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/thediveo/enumflag/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hktouw/formtree/internal/progress"
	"github.com/hktouw/formtree/internal/service"
)

func newRenderAllCommand(a *app) *cobra.Command {
	var (
		out          string
		format       outputFormat
		showProgress bool
	)

	cmd := &cobra.Command{
		Use:   "render-all",
		Short: "Render every tree for every registered region",
		Long: `Render every tree of the catalog once without a region and once for each
region that has patches registered. Files are written to
<out>/<tree>/<region>/<locality>.<ext>.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			targets, err := svc.Targets()
			if err != nil {
				return err
			}

			bar := progress.New(cmd.ErrOrStderr(), len(targets), "rendering", showProgress)
			defer bar.Finish()

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(runtime.GOMAXPROCS(0))
			for _, target := range targets {
				g.Go(func() error {
					defer bar.Add(1)
					res, err := svc.BuildTree(ctx, target.Tree, target.Region)
					if err != nil {
						return fmt.Errorf("tree %q, region %s: %w", target.Tree, target.Region, err)
					}
					return writeTarget(svc, out, format, target, res)
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			a.log.Infof("rendered %d trees to %s", len(targets), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output directory")
	cmd.Flags().VarP(enumflag.New(&format, "format", outputFormatNames, enumflag.EnumCaseInsensitive),
		"format", "f", "output format (yaml, json)")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "show a progress bar")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func writeTarget(svc *service.Service, out string, format outputFormat, target service.Target, res *service.Result) error {
	t, err := svc.Catalog().Tree(target.Tree)
	if err != nil {
		return err
	}
	bs, err := encode(res.Root, t.Keys, format)
	if err != nil {
		return err
	}

	dir := filepath.Join(out, target.Tree, target.Region.Region)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, target.Region.Locality+format.ext()), bs, 0o644)
}
