// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/luxfi/custody"
	"github.com/luxfi/custody/config"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "custody",
	Short: "Validator-set custody and oraclization approval tooling",
	Long: `Tooling for the validator-set custody core: replay a scenario of bond
events and finalized blocks through the dual-majority approval engine, and
inspect multisig safety margins.`,
	Version: fmt.Sprintf("%s (built %s)", version, buildDate),
}

func init() {
	for _, cmd := range []*cobra.Command{replayCmd, marginCmd} {
		cmd.Flags().String(config.ConfigFileKey, "", "Path to a JSON config file")
		cmd.Flags().String(config.LogLevelKey, "", "Log level")
		cmd.Flags().Uint16(config.MetricsPortKey, 0, "Prometheus metrics port (0 disables)")
		cmd.Flags().Int(config.WorkersKey, 0, "Evaluation worker count")
		cmd.Flags().String(config.ScenarioFileKey, "", "Path to the scenario JSON file")
		rootCmd.AddCommand(cmd)
	}
}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a scenario through the approval engine",
	Long: `Replay applies a scenario's bond and membership events to a fresh
registry, then evaluates each finalized block's oraclizations and prints the
verdicts.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}

		scenario, registry, err := buildRegistry(cfg, logger)
		if err != nil {
			return err
		}

		registerer := prometheus.NewRegistry()
		if cfg.MetricsPort != 0 {
			startMetricsServer(logger, registerer, cfg.MetricsPort)
		}
		engine := custody.NewEngine(logger, registerer)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		pipeline := custody.NewPipeline(logger, engine, registry, cfg.Workers)
		pipeline.Start(ctx)

		go func() {
			defer pipeline.Close()
			for _, block := range scenario.Blocks {
				tally, err := block.tally()
				if err != nil {
					logger.Error("invalid block entry", log.Err(err))
					return
				}
				oracls, err := block.oraclizations()
				if err != nil {
					logger.Error("invalid block entry", log.Err(err))
					return
				}
				job := custody.BlockJob{Tally: tally, Oraclizations: oracls}
				if err := pipeline.Submit(ctx, job); err != nil {
					logger.Error("failed to submit block", log.Err(err))
					return
				}
			}
		}()

		for result := range pipeline.Results() {
			if result.Err != nil {
				fmt.Printf("block %d: error: %v\n", result.Height, result.Err)
				continue
			}
			for _, verdict := range result.Verdicts {
				fmt.Printf(
					"block %d coin %s: %s",
					result.Height, verdict.Coin, verdict.Status,
				)
				if verdict.Reason != custody.ReasonNone {
					fmt.Printf(" (%s)", verdict.Reason)
				}
				fmt.Println()
			}
		}
		return nil
	},
}

var marginCmd = &cobra.Command{
	Use:   "margin",
	Short: "Print multisig safety margins per validator set",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}

		_, registry, err := buildRegistry(cfg, logger)
		if err != nil {
			return err
		}

		tracker := custody.NewThresholdTracker(logger, registry)
		for i := 0; i < registry.Len(); i++ {
			index := custody.SetID(i)
			margin, err := tracker.SafetyMargin(index)
			if err != nil {
				return err
			}
			needs, err := tracker.NeedsReformation(index)
			if err != nil {
				return err
			}
			fmt.Printf("set %d: safety margin %d, needs reformation %t\n", i, margin, needs)
		}
		return nil
	},
}

func setup(cmd *cobra.Command) (config.Config, log.Logger, error) {
	v, err := config.BuildViper(cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}
	cfg, err := config.NewConfig(v)
	if err != nil {
		return config.Config{}, nil, err
	}
	if cfg.ScenarioFile == "" {
		return config.Config{}, nil, fmt.Errorf("scenario file not set")
	}
	return cfg, log.NewLogger("custody"), nil
}

func buildRegistry(cfg config.Config, logger log.Logger) (*Scenario, *custody.Registry, error) {
	scenario, err := LoadScenario(cfg.ScenarioFile)
	if err != nil {
		return nil, nil, err
	}

	genesisCoins, err := scenario.Genesis.coinIDs()
	if err != nil {
		return nil, nil, err
	}
	ledger := custody.NewLedger()
	registry, err := custody.NewRegistry(
		logger,
		ledger,
		custody.Amount(scenario.Genesis.BondPerShare),
		genesisCoins,
	)
	if err != nil {
		return nil, nil, err
	}

	for _, set := range scenario.Sets {
		coins, err := set.coinIDs()
		if err != nil {
			return nil, nil, err
		}
		if _, err := registry.CreateSet(custody.Amount(set.BondPerShare), coins); err != nil {
			return nil, nil, err
		}
	}

	for _, entry := range scenario.Events {
		validator, err := ids.NodeIDFromString(entry.Validator)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid validator %q: %w", entry.Validator, err)
		}
		err = registry.ApplyBondEvent(custody.BondEvent{
			Validator:    validator,
			Set:          custody.SetID(entry.Set),
			DeltaShares:  entry.DeltaShares,
			NewTotalBond: custody.Amount(entry.NewTotalBond),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to apply event: %w", err)
		}
	}

	return scenario, registry, nil
}

func startMetricsServer(logger log.Logger, registerer *prometheus.Registry, port uint16) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registerer, promhttp.HandlerOpts{}))
	go func() {
		addr := fmt.Sprintf(":%d", port)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics server exited", log.Err(err))
		}
	}()
}
