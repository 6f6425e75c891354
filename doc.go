// Package seqgrid trains forecasting models on time-ordered tabular data with
// exhaustive hyperparameter grids and records every outcome.
//
// # Features
//
//   - Leakage-safe windowing: columns are standardized with statistics from
//     the training rows only, and partition boundaries are aligned to the
//     batch size
//   - Shuffled and strictly ordered batch streams, the latter keeping each
//     batch slot on a contiguous subsequence for state-carrying models
//   - Grid search that resumes from stored results, retries failed training
//     runs within a budget, and persists each success as it happens
//   - Reports ranking settings by their best validation metric, with PNG
//     learning curves
//
// # Quick Start
//
// Describe an experiment in YAML:
//
//	datasets: [prices.csv]
//	data_dir: data
//	store: results/linear.gob
//	artifacts_dir: artifacts
//	grid:
//	  train_share: [[0.8, 1.0]]
//	  input_length: [8, 16]
//	  output_length: [1]
//	  batch_size: [16]
//	  epochs: [5]
//
// Then run it and inspect the results:
//
//	seqgrid run -config exp.yaml
//	seqgrid report -store results/linear.gob -metric val_loss -plot best.png
//
// The same pipeline is available as a library:
//
//	grid := param.MustGrid(
//	    param.Axis{Name: "train_share", Values: []interface{}{[]float64{0.8, 1.0}}},
//	    param.Axis{Name: "input_length", Values: []interface{}{8, 16}},
//	    param.Axis{Name: "output_length", Values: []interface{}{1}},
//	    param.Axis{Name: "batch_size", Values: []interface{}{16}},
//	)
//	store, err := results.OpenFileStore("results/linear.gob")
//	trainer := forecast.NewLinearTrainer(dataset.NewCSVLoader("data"))
//	runner, err := gridsearch.New(grid, []string{"prices.csv"}, trainer, store)
//	records, err := runner.Run(ctx, gridsearch.DefaultOptions())
//
// # Packages
//
//   - dataset: tables, windowed datasets and batch generators
//   - ioformat: batch layouts for model families
//   - param: parameter settings and grids
//   - gridsearch: the grid-search runner and its retry policy
//   - results: records, result stores and the unresolved list
//   - forecast: the reference training capability
//   - linear: multi-output linear regression
//   - metrics: regression metrics
//   - preprocessing: column standardization
//   - report: result summaries and learning curves
//   - config: YAML experiment files
//   - core/model: model interfaces, state and persistence
//   - core/parallel: row-range parallel loops
//   - tensor: dense N-d arrays for batches
package seqgrid
