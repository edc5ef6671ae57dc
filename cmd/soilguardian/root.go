package main

import (
	"github.com/spf13/cobra"

	"github.com/JaimeStill/soilguardian/internal/config"
)

// loader resolves the configuration selected by the persistent --config flag.
type loader func() (*config.Config, error)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "soilguardian",
		Short: "Soil-based crop recommendation service",
		Long: "SoilGuardian trains crop classification models from soil measurements and serves " +
			"ranked crop recommendations with fertilizer, irrigation and amendment plans.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is ./config.toml)")

	load := func() (*config.Config, error) {
		return config.Load(configPath)
	}

	root.AddCommand(
		newTrainCmd(load),
		newAPICmd(load),
		newRecommendCmd(load),
	)
	return root
}
