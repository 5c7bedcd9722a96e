package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/delaneyj/reactnotify/notify"
	"github.com/delaneyj/reactnotify/pkg/graphspec"
	"github.com/urfave/cli/v3"
)

const (
	outKey     = "out"
	addrKey    = "addr"
	verboseKey = "verbose"
)

func main() {
	cmd := &cli.Command{
		Name:  "notifyctl",
		Usage: "Replay YAML view models and inspect their notifications",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  verboseKey,
				Usage: "Log every session flush",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Replay a graph and print the notification trace",
				ArgsUsage: "<graph.yaml>",
				Action:    runTrace,
			},
			{
				Name:      "report",
				Usage:     "Replay a graph and write an HTML report",
				ArgsUsage: "<graph.yaml>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  outKey,
						Usage: "Report file, - for stdout",
						Value: "-",
					},
				},
				Action: writeReport,
			},
			{
				Name:      "serve",
				Usage:     "Serve the report and session metrics over HTTP",
				ArgsUsage: "<graph.yaml>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  addrKey,
						Usage: "Listen address",
						Value: ":8080",
					},
				},
				Action: serve,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadGraph(cmd *cli.Command) (*graphspec.Graph, error) {
	path := cmd.Args().First()
	if path == "" {
		return nil, fmt.Errorf("%s: missing graph file", cmd.Name)
	}
	return graphspec.LoadFile(path)
}

func newSystem(cmd *cli.Command, opts ...notify.SystemOption) *notify.System {
	level := slog.LevelInfo
	if cmd.Bool(verboseKey) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return notify.NewSystem(append(opts, notify.WithLogger(logger))...)
}

func runTrace(ctx context.Context, cmd *cli.Command) error {
	g, err := loadGraph(cmd)
	if err != nil {
		return err
	}
	trace, err := graphspec.Run(newSystem(cmd), g)
	if err != nil {
		return err
	}
	printTrace(os.Stdout, trace)
	return nil
}

func writeReport(ctx context.Context, cmd *cli.Command) error {
	g, err := loadGraph(cmd)
	if err != nil {
		return err
	}
	trace, err := graphspec.Run(newSystem(cmd), g)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if out := cmd.String(outKey); out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	graphspec.WriteReport(w, trace)
	return nil
}
