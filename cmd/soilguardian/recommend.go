package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/soilguardian/internal/infrastructure"
	"github.com/JaimeStill/soilguardian/internal/recommendations"
	"github.com/JaimeStill/soilguardian/internal/soil"
	"github.com/JaimeStill/soilguardian/pkg/validation"
)

func newRecommendCmd(load loader) *cobra.Command {
	var (
		sample   soil.Sample
		optional struct{ organicMatter, conductivity, salinity float64 }
		topN     int
		output   string
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend crops for a single soil sample",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("organic-matter") {
				sample.OrganicMatter = &optional.organicMatter
			}
			if flags.Changed("conductivity") {
				sample.Conductivity = &optional.conductivity
			}
			if flags.Changed("salinity") {
				sample.Salinity = &optional.salinity
			}

			reading := soil.ReadingFrom(sample)
			if err := validation.Struct(reading); err != nil {
				return err
			}
			if topN == 0 {
				topN = cfg.Model.DefaultTopN
			}

			infra, err := infrastructure.New(cfg)
			if err != nil {
				return err
			}

			sys := recommendations.New(
				infra.Registry,
				infra.Tables,
				infra.Store,
				cfg.Model.Recommendations(),
				infra.Logger,
				cfg.API.Pagination,
			)

			result, err := sys.Recommend(cmd.Context(), sample, recommendations.Options{
				TopN:                 topN,
				IncludeComprehensive: true,
			})
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&sample.PH, "ph", 0, "soil pH (0-14)")
	flags.Float64Var(&sample.Nitrogen, "nitrogen", 0, "nitrogen, mg/kg")
	flags.Float64Var(&sample.Phosphorus, "phosphorus", 0, "phosphorus, mg/kg")
	flags.Float64Var(&sample.Potassium, "potassium", 0, "potassium, mg/kg")
	flags.Float64Var(&sample.Moisture, "moisture", 0, "moisture, percent")
	flags.Float64Var(&sample.Temperature, "temperature", 0, "temperature, degrees C")
	flags.Float64Var(&optional.organicMatter, "organic-matter", 0, "organic matter, percent")
	flags.Float64Var(&optional.conductivity, "conductivity", 0, "electrical conductivity, dS/m")
	flags.Float64Var(&optional.salinity, "salinity", 0, "salinity, dS/m")
	flags.IntVar(&topN, "top-n", 0, "number of recommendations (defaults to model.default_top_n)")
	flags.StringVarP(&output, "output", "o", "", "write JSON to this file instead of stdout")

	for _, name := range []string{"ph", "nitrogen", "phosphorus", "potassium", "moisture", "temperature"} {
		cmd.MarkFlagRequired(name)
	}
	return cmd
}
