package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/soilguardian/internal/classifier"
	"github.com/JaimeStill/soilguardian/internal/infrastructure"
	"github.com/JaimeStill/soilguardian/internal/training"
)

func newTrainCmd(load loader) *cobra.Command {
	opts := training.DefaultOptions()
	var (
		algorithm string
		version   string
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a crop classification model and save it to artifact storage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			alg, err := classifier.ParseAlgorithm(algorithm)
			if err != nil {
				return err
			}
			opts.Algorithm = alg

			opts.Version = cfg.Model.Version
			if version != "" {
				opts.Version = version
			}

			infra, err := infrastructure.New(cfg)
			if err != nil {
				return err
			}

			trainer := training.New(infra.Tables, infra.Registry, infra.Tracker, infra.Logger)
			result, err := trainer.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}

			m := result.Model
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "model %s (%s) trained on %d samples\n", m.Version, m.Algorithm, m.Samples)
			fmt.Fprintf(out, "  accuracy  %.4f\n", m.Metrics.Accuracy)
			fmt.Fprintf(out, "  precision %.4f\n", m.Metrics.Precision)
			fmt.Fprintf(out, "  recall    %.4f\n", m.Metrics.Recall)
			fmt.Fprintf(out, "  f1        %.4f\n", m.Metrics.F1)
			if result.Tracked {
				fmt.Fprintf(out, "  run       %s\n", result.RunID)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Source, "source", opts.Source, "training data source: synthetic or csv")
	flags.StringVar(&opts.DataFile, "data-file", "", "labeled CSV dataset (required for --source csv)")
	flags.IntVar(&opts.Samples, "n-samples", opts.Samples, "number of synthetic samples")
	flags.StringVar(&algorithm, "algorithm", string(opts.Algorithm), "gaussian_nb or nearest_centroid")
	flags.StringVar(&version, "model-version", "", "artifact version (defaults to model.version)")
	flags.Uint64Var(&opts.Seed, "random-seed", opts.Seed, "seed for data generation and the train/test split")
	flags.BoolVar(&opts.SkipTracking, "skip-tracking", false, "do not record the run with the tracking server")
	return cmd
}
