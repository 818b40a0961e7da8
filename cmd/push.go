package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/penwern/geomodel-harvest/internal/ckan"
	"github.com/penwern/geomodel-harvest/internal/geonetwork"
	"github.com/penwern/geomodel-harvest/internal/harvest"
	"github.com/penwern/geomodel-harvest/pkg/config"
	"github.com/penwern/geomodel-harvest/pkg/utils"
	"github.com/spf13/cobra"
)

func newPushCmd(root *rootOptions) *cobra.Command {
	var override config.PushConfig

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Copy CKAN records into geonetwork",
		Long: `Lists every public package of a CKAN catalogue, fetches its ISO 19115 rendering
and inserts it into geonetwork. Records already present are rejected by
geonetwork and reported as failures.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			pcfg := cfg.Push(&override)

			hc := utils.NewHTTPClient(cfg.HTTPTimeout, cfg.AllowInsecureTLS)
			defer hc.Close()

			gn, err := geonetwork.NewClient(pcfg, hc)
			if err != nil {
				return err
			}
			src, err := ckan.NewClient(pcfg.CKANURL, hc)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, err = harvest.Push(ctx, src, gn)
			return err
		},
	}
	cmd.Flags().StringVar(&override.CKANURL, "ckan-url", "", "CKAN catalogue URL (overrides GMH_CKAN_URL)")
	cmd.Flags().StringVar(&override.GeonetworkURL, "geonetwork-url", "", "Geonetwork base URL (overrides GMH_GEONETWORK_URL)")
	cmd.Flags().StringVar(&override.GeonetworkUser, "geonetwork-user", "", "Geonetwork user (overrides GMH_GEONETWORK_USERNAME)")
	cmd.Flags().StringVar(&override.GeonetworkPassword, "geonetwork-password", "", "Geonetwork password (overrides GMH_GEONETWORK_PASSWORD)")
	return cmd
}
