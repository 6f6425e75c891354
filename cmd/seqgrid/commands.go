package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/YuminosukeSato/seqgrid/config"
	"github.com/YuminosukeSato/seqgrid/dataset"
	"github.com/YuminosukeSato/seqgrid/forecast"
	"github.com/YuminosukeSato/seqgrid/gridsearch"
	"github.com/YuminosukeSato/seqgrid/pkg/errors"
	"github.com/YuminosukeSato/seqgrid/pkg/log"
	"github.com/YuminosukeSato/seqgrid/report"
	"github.com/YuminosukeSato/seqgrid/results"
)

func runCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	path := fs.String("config", "", "experiment file (YAML)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return errors.NewValidationError("config", "flag -config is required", *path)
	}

	cfg, err := config.Load(*path)
	if err != nil {
		return err
	}
	log.SetupLogger(cfg.LogLevel)
	logger := log.GetLoggerWithName("seqgrid")

	store, err := results.OpenFileStore(cfg.Store)
	if err != nil {
		return err
	}
	opts := cfg.Options()
	if cfg.ResumeFrom != "" {
		previous, err := results.OpenFileStore(cfg.ResumeFrom)
		if err != nil {
			return err
		}
		opts.ResumeFrom = previous
	}

	grid, err := cfg.ParamGrid()
	if err != nil {
		return err
	}
	var runnerOpts []gridsearch.RunnerOption
	if cfg.ArtifactsDir != "" {
		runnerOpts = append(runnerOpts, gridsearch.WithArtifactsDir(cfg.ArtifactsDir))
	}
	trainer := forecast.NewLinearTrainer(dataset.NewCSVLoader(cfg.DataDir))
	runner, err := gridsearch.New(grid, cfg.Datasets, trainer, store, runnerOpts...)
	if err != nil {
		return err
	}

	records, runErr := runner.Run(ctx, opts)
	if cfg.Failures != "" {
		if err := results.SaveUnresolved(cfg.Failures, runner.Unresolved()); err != nil {
			return errors.CombineErrors(runErr, err)
		}
	}
	if runErr != nil {
		return runErr
	}

	logger.Info("Run finished",
		"records", len(records),
		"pairs", runner.Pairs(),
		"unresolved", len(runner.Unresolved()),
	)
	return nil
}

func reportCommand(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	storePath := fs.String("store", "", "result store written by seqgrid run")
	metric := fs.String("metric", "val_loss", "metric to rank settings by (lower is better)")
	plotPath := fs.String("plot", "", "write the learning curves of the best record to this PNG")
	level := fs.String("log-level", "warn", "log level")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *storePath == "" {
		return errors.NewValidationError("store", "flag -store is required", *storePath)
	}
	if _, err := log.ParseLevel(*level); err != nil {
		return errors.NewValidationError("log-level", err.Error(), *level)
	}
	log.SetupLogger(*level)

	store, err := results.OpenFileStore(*storePath)
	if err != nil {
		return err
	}
	records, err := store.LoadAll()
	if err != nil {
		return err
	}
	summaries, err := report.Summarize(records, *metric)
	if err != nil {
		return err
	}
	if err := report.WriteTable(out, summaries, *metric); err != nil {
		return err
	}

	if *plotPath == "" {
		return nil
	}
	if len(summaries) == 0 {
		return errors.Newf("no record holds metric %q", *metric)
	}
	best, ok := report.FindRecord(records, summaries[0].BestRecord)
	if !ok {
		return errors.Newf("record %s not found", summaries[0].BestRecord)
	}
	title := fmt.Sprintf("%s %s", best.Dataset, best.Setting.String())
	if err := report.PlotHistory(*plotPath, title, best.History); err != nil {
		return err
	}
	fmt.Fprintf(out, "learning curves written to %s\n", *plotPath)
	return nil
}
