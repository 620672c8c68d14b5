package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/bot-detection-pipeline/internal/core/llm"
	"github.com/lueurxax/bot-detection-pipeline/internal/evaluate"
	"github.com/lueurxax/bot-detection-pipeline/internal/pipeline"
	"github.com/lueurxax/bot-detection-pipeline/internal/platform/config"
	"github.com/lueurxax/bot-detection-pipeline/internal/platform/observability"
)

type flags struct {
	mode         string
	baseModel    string
	epochs       string
	batchSize    string
	lrMultiplier string
	skipBaseline bool
	dryRun       bool
	noWait       bool
	model        string
	evalFile     string
	output       string
	writeRunFile bool
	runTag       string
	detectorName string
}

func parseFlags() flags {
	f := flags{}

	flag.StringVar(&f.mode, "mode", "", "Pipeline mode (prepare, cv, final, eval)")
	flag.StringVar(&f.baseModel, "base-model", "", "Base model override (default from config)")
	flag.StringVar(&f.epochs, "epochs", "auto", "Fine-tune epochs (integer or 'auto')")
	flag.StringVar(&f.batchSize, "batch-size", "", "Fine-tune batch size (integer or 'auto', default provider auto)")
	flag.StringVar(&f.lrMultiplier, "learning-rate-multiplier", "", "Learning rate multiplier (float or 'auto', default provider auto)")
	flag.BoolVar(&f.skipBaseline, "skip-baseline", false, "Skip baseline evaluation during cv")
	flag.BoolVar(&f.dryRun, "dry-run", false, "Describe the work without submitting jobs")
	flag.BoolVar(&f.noWait, "no-wait", false, "Submit jobs and exit without polling")
	flag.StringVar(&f.model, "model", "", "Model id for eval (defaults to the published final model)")
	flag.StringVar(&f.evalFile, "eval-file", "", "Optional eval JSONL file for eval mode")
	flag.StringVar(&f.output, "output", "", "Eval report output path")
	flag.BoolVar(&f.writeRunFile, "write-run-file", false, "Emit a run file with predicted bot ids after eval")
	flag.StringVar(&f.runTag, "run-tag", "v5", "Run file name tag")
	flag.StringVar(&f.detectorName, "detector-name", "v5", "Detector name written into the run file")
	flag.Parse()

	return f
}

func main() {
	f := parseFlags()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if f.baseModel == "" {
		f.baseModel = cfg.BaseModel
	}

	if requiresAPIKey(f) && cfg.OpenAIAPIKey == "" {
		logger.Fatal().Str("mode", f.mode).Msg("OPENAI_API_KEY is required for modes that call the API")
	}

	client := llm.NewOpenAI(cfg.OpenAIAPIKey, cfg.RateLimitRPS, &logger)
	p := pipeline.New(cfg, client, evaluate.New(client, &logger), &logger)

	if cfg.HealthEnabled {
		go func() {
			if err := observability.NewServer(cfg.HealthPort, &logger).Start(ctx); err != nil {
				logger.Error().Err(err).Msg("health server error")
			}
		}()
	}

	if err := runMode(ctx, p, cfg, f); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("pipeline stopped")

			return
		}

		logger.Fatal().Err(err).Msg("pipeline error")
	}
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func runMode(ctx context.Context, p *pipeline.Pipeline, cfg *config.Config, f flags) error {
	switch f.mode {
	case "prepare":
		_, err := p.Prepare()

		return err
	case "cv":
		hp, err := hyperparameters(f)
		if err != nil {
			return err
		}

		_, err = p.RunCV(ctx, pipeline.CVOptions{
			BaseModel:       f.baseModel,
			Hyperparameters: hp,
			Temperature:     cfg.Temperature,
			PollInterval:    cfg.PollInterval,
			MaxWait:         cfg.MaxWait,
			MaxSamples:      cfg.MaxSamples,
			SkipBaseline:    f.skipBaseline,
			DryRun:          f.dryRun,
			NoWait:          f.noWait,
		})

		return err
	case "final":
		hp, err := hyperparameters(f)
		if err != nil {
			return err
		}

		_, err = p.TrainFinal(ctx, pipeline.FinalOptions{
			BaseModel:       f.baseModel,
			Hyperparameters: hp,
			PollInterval:    cfg.PollInterval,
			MaxWait:         cfg.MaxWait,
			DryRun:          f.dryRun,
			NoWait:          f.noWait,
		})

		return err
	case "eval":
		model, err := pipeline.ResolveModel(f.model, cfg.FinalModelPath())
		if err != nil {
			return err
		}

		_, err = p.EvalModel(ctx, pipeline.EvalOptions{
			Model:        model,
			DatasetIDs:   cfg.DatasetIDs,
			EvalFile:     f.evalFile,
			Temperature:  cfg.Temperature,
			MaxSamples:   cfg.MaxSamples,
			OutputPath:   f.output,
			WriteRunFile: f.writeRunFile,
			RunTag:       f.runTag,
			DetectorName: f.detectorName,
		})

		return err
	default:
		return fmt.Errorf("usage: %s -mode=[prepare|cv|final|eval]", os.Args[0])
	}
}

// requiresAPIKey reports whether the selected mode will call the remote API.
// Prepare and dry runs work entirely on local files.
func requiresAPIKey(f flags) bool {
	switch f.mode {
	case "prepare":
		return false
	case "cv", "final":
		return !f.dryRun
	case "eval":
		return true
	default:
		// Unknown modes fail with a usage error instead.
		return false
	}
}

func hyperparameters(f flags) (llm.Hyperparameters, error) {
	epochs, err := llm.ParseIntOrAuto(f.epochs, "epochs")
	if err != nil {
		return llm.Hyperparameters{}, err
	}

	batchSize, err := llm.ParseIntOrAuto(f.batchSize, "batch-size")
	if err != nil {
		return llm.Hyperparameters{}, err
	}

	lrMultiplier, err := llm.ParseFloatOrAuto(f.lrMultiplier, "learning-rate-multiplier")
	if err != nil {
		return llm.Hyperparameters{}, err
	}

	return llm.Hyperparameters{
		Epochs:                 epochs,
		BatchSize:              batchSize,
		LearningRateMultiplier: lrMultiplier,
	}, nil
}
