package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	cfgpkg "github.com/KaramelBytes/tableloom/internal/config"
	"github.com/KaramelBytes/tableloom/internal/dashboard"
	"github.com/KaramelBytes/tableloom/internal/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	srvAddr        string
	srvDatasets    []string
	srvSkipMissing bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interactive dashboards and the JSON API",
	Long: `Load every configured dataset (or the ones named with --dataset) and serve
the dashboards over HTTP until interrupted. A dataset that fails to load stops
the server from starting unless --skip-missing is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		addr := c.ListenAddr
		if srvAddr != "" {
			addr = srvAddr
		}

		profiles := c.Datasets
		if len(srvDatasets) > 0 {
			profiles = profiles[:0:0]
			for _, name := range srvDatasets {
				p, err := c.Dataset(name)
				if err != nil {
					return err
				}
				profiles = append(profiles, p)
			}
		}

		boards, skipped, err := loadDashboards(c, profiles, srvSkipMissing)
		if err != nil {
			return err
		}
		for _, err := range skipped {
			warnf(cmd.ErrOrStderr(), "skipping %v", err)
		}
		if len(boards) == 0 {
			return fmt.Errorf("no datasets could be loaded")
		}

		srv, err := server.New(boards, logger)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		okf(cmd.OutOrStdout(), "Serving %d dataset(s) on %s", len(boards), addr)
		return srv.Run(ctx, addr, time.Duration(c.ShutdownTimeoutSec)*time.Second)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (overrides listen_addr, default :8080)")
	serveCmd.Flags().StringSliceVarP(&srvDatasets, "dataset", "d", nil, "serve only these datasets (repeatable)")
	serveCmd.Flags().BoolVar(&srvSkipMissing, "skip-missing", false, "skip datasets that fail to load instead of exiting")
}

// loadDashboards loads the profiles concurrently, keeping profile order. With
// skipMissing, datasets that fail to load are returned in skipped instead of
// failing the whole load.
func loadDashboards(c *cfgpkg.Global, profiles []cfgpkg.Profile, skipMissing bool) ([]*dashboard.Dashboard, []error, error) {
	boards := make([]*dashboard.Dashboard, len(profiles))
	failed := make([]error, len(profiles))
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, p := range profiles {
		g.Go(func() error {
			path := c.ResolvePath(p)
			d, err := dashboard.Load(path, p, summaryOptions())
			if err != nil {
				err = fmt.Errorf("dataset %s: %w", p.Name, err)
				if !skipMissing {
					return err
				}
				logger.Warn("dataset skipped", "dataset", p.Name, "path", path, "error", err)
				failed[i] = err
				return nil
			}
			logger.Info("dataset loaded", "dataset", p.Name, "path", path, "rows", d.Table().Rows(), "columns", len(d.Table().Cols))
			boards[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	var out []*dashboard.Dashboard
	var skipped []error
	for i := range profiles {
		if boards[i] != nil {
			out = append(out, boards[i])
		}
		if failed[i] != nil {
			skipped = append(skipped, failed[i])
		}
	}
	return out, skipped, nil
}
