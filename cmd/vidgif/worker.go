package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/user/vidgif/pkg/adapters/logger"
	"github.com/user/vidgif/pkg/encodeworker"
	"github.com/user/vidgif/pkg/ports"
	"github.com/user/vidgif/pkg/vidgif"
)

// workerCommand serves encode requests over stdin/stdout. It is spawned by
// the process worker mode and is not meant to be run by hand.
func workerCommand() *cli.Command {
	return &cli.Command{
		Name:   "worker",
		Hidden: true,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "codec", Value: "builtin"},
			&cli.StringFlag{Name: "ffmpeg-path"},
			&cli.StringFlag{Name: "log-level", Value: "warn"},
		},
		Action: func(c *cli.Context) error {
			// stdout carries the protocol, so logs go to stderr only.
			log := logger.NewConsoleTo(ports.ParseLogLevel(c.String("log-level")), os.Stderr, os.Stderr).
				WithComponent("worker")

			codec, err := vidgif.NewCodec(c.String("codec"), c.String("ffmpeg-path"), log)
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}

			ctx, cancel := signalContext(c.Context, log)
			defer cancel()

			return encodeworker.Serve(ctx, os.Stdin, os.Stdout, encodeworker.New(codec, log))
		},
	}
}
