package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mimo/internal/server"
	"github.com/desertthunder/mimo/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the JSON API until the context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	conf := r.config.Server
	if h := cmd.String("host"); h != "" {
		conf.Host = h
	}
	if cmd.IsSet("port") {
		port := int(cmd.Int("port"))
		if port <= 0 || port > 65535 {
			return fmt.Errorf("%w: port %d out of range", shared.ErrInvalidArgument, port)
		}
		conf.Port = port
	}

	core, err := r.App(ctx)
	if err != nil {
		return err
	}

	if !cmd.Bool("no-sweep") {
		core.StartSweeper(ctx)
	}

	srv := server.NewServer(conf.Addr(), core, shared.WithLogger(r.logger, "component", "server"))
	return srv.ListenAndServe(ctx)
}
