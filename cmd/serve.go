package main

import (
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/royalcat/geosdr/internal/telemetry"
	"github.com/royalcat/geosdr/server"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve an on-demand encode api",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Value: ":8080",
			},
			&cli.StringFlag{
				Name:        "otel-endpoint",
				DefaultText: "",
			},
		}, encoderFlags...),
		Action: serve,
	}
}

func serve(ctx *cli.Context) error {
	client, err := telemetry.Setup(ctx.Context, "geosdr", ctx.String("otel-endpoint"))
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Shutdown(ctx.Context)
		defer client.Flush(ctx.Context)
	}

	enc, err := buildEncoder(ctx)
	if err != nil {
		return err
	}

	slog.Info("Initing encoder", "identity", enc.Identity())
	return server.Run(ctx.Context, ctx.String("listen"), enc)
}
