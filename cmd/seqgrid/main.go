// Command seqgrid runs hyperparameter grid searches over time-series datasets
// and reports on the stored results.
//
//	seqgrid run -config exp.yaml
//	seqgrid report -store results.gob -metric val_loss [-plot best.png]
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
)

const usage = `usage:
  seqgrid run -config exp.yaml
  seqgrid report -store results.gob [-metric val_loss] [-plot out.png]
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch os.Args[1] {
	case "run":
		err = runCommand(ctx, os.Args[2:])
	case "report":
		err = reportCommand(os.Args[2:], os.Stdout)
	case "-h", "-help", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		slog.Error("seqgrid failed", "command", os.Args[1], "error", err)
		stop()
		os.Exit(1)
	}
}
