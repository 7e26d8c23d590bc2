package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/openprocure/allocator/pkg/alloc"
	csvrepo "github.com/openprocure/allocator/pkg/infrastructure/csv"
	"github.com/openprocure/allocator/pkg/solver"
)

var runCmd = &cli.Command{
	Name:    "run",
	Usage:   "Solve a bid allocation scenario",
	Aliases: []string{"r"},
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "items",
			Required: true,
			Usage:    "specify the input items CSV",
		},
		&cli.StringFlag{
			Name:     "bids",
			Required: true,
			Usage:    "specify the input bids CSV",
		},
		&cli.StringFlag{
			Name:  "constraints",
			Usage: "specify the input constraints CSV (optional)",
		},
		&cli.StringFlag{
			Name:  "objective",
			Usage: "specify the objective: cost, value",
		},
		&cli.BoolFlag{
			Name:  "partial",
			Usage: "allow partial demand fulfillment",
		},
		&cli.Float64Flag{
			Name:  "penalty",
			Usage: "specify the penalty per unit of unmet demand",
		},
		&cli.DurationFlag{
			Name:  "time-limit",
			Usage: "specify the solve time limit",
		},
		&cli.BoolFlag{
			Name:  "integer-lots",
			Usage: "force whole-number award quantities",
		},
		&cli.StringFlag{
			Name:  "output",
			Usage: "specify the output file (default stdout)",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "specify the output format: text, json",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable debug logging",
		},
	},
	Action: func(ctx *cli.Context) error {
		cfg, err := loadEnvConfig()
		if err != nil {
			return err
		}

		if ctx.IsSet("objective") {
			cfg.Objective = ctx.String("objective")
		}
		if ctx.IsSet("partial") {
			cfg.Partial = ctx.Bool("partial")
		}
		if ctx.IsSet("penalty") {
			cfg.Penalty = ctx.Float64("penalty")
		}
		if ctx.IsSet("time-limit") {
			cfg.TimeLimit = ctx.Duration("time-limit")
		}
		if ctx.IsSet("integer-lots") {
			cfg.IntegerLots = ctx.Bool("integer-lots")
		}
		if ctx.IsSet("format") {
			cfg.Format = ctx.String("format")
		}
		if ctx.IsSet("verbose") {
			cfg.Verbose = ctx.Bool("verbose")
		}
		if err := validateEnvConfig(cfg); err != nil {
			return err
		}

		return doRun(ctx, cfg)
	},
}

func doRun(ctx *cli.Context, cfg *EnvConfig) error {
	var (
		itemsFile       = ctx.String("items")
		bidsFile        = ctx.String("bids")
		constraintsFile = ctx.String("constraints")
		outputFile      = ctx.String("output")
	)

	mode := alloc.MinimizeCost
	if cfg.Objective == "value" {
		mode = alloc.MaximizeValue
	}

	loader := csvrepo.NewLoader()

	items, err := loader.LoadItems(itemsFile)
	if err != nil {
		return fmt.Errorf("load items failed: %w", err)
	}
	bids, err := loader.LoadBids(bidsFile)
	if err != nil {
		return fmt.Errorf("load bids failed: %w", err)
	}

	var specs []alloc.ConstraintSpec
	if constraintsFile != "" {
		specs, err = loader.LoadConstraints(constraintsFile)
		if err != nil {
			return fmt.Errorf("load constraints failed: %w", err)
		}
	}

	catalog, err := alloc.LoadCatalog(items, bids)
	if err != nil {
		return fmt.Errorf("load catalog failed: %w", err)
	}

	level := zerolog.InfoLevel
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()

	engine := alloc.NewEngineWithBackend(solver.NewBackend(), alloc.Config{
		ObjectiveMode:           mode,
		AllowPartialFulfillment: cfg.Partial,
		UnmetDemandPenalty:      cfg.Penalty,
		TimeLimit:               cfg.TimeLimit,
		IntegerLots:             cfg.IntegerLots,
		EnableCache:             cfg.Cache,
	}, log)

	result, err := engine.Run(ctx.Context, catalog, specs)
	if err != nil {
		return err
	}

	return generateOutput(result, OutputConfig{
		Format:     cfg.Format,
		OutputFile: outputFile,
	})
}
