// Command svc-gis runs the geospatial telemetry and flight-path service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"

	"svc_gis/internal/api"
	"svc_gis/internal/config"
	"svc_gis/internal/logging"
	"svc_gis/internal/postgis"
	"svc_gis/internal/queue"
)

func main() {
	app := &cli.App{
		Name:  "svc-gis",
		Usage: "geospatial telemetry and flight-path service",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the API server and the flight-path queue consumer.",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-queue",
						Usage: "Do not consume flight path updates from NATS.",
					},
				},
				Action: func(c *cli.Context) error {
					return serve(!c.Bool("no-queue"))
				},
			},
			{
				Name:  "init-schema",
				Usage: "Create the database schema, enum types and spatial indexes.",
				Action: func(c *cli.Context) error {
					return initSchema()
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "svc-gis: %v\n", err)
		os.Exit(1)
	}
}

func serve(withQueue bool) error {
	cfg := config.Load()
	if err := logging.Setup(cfg.LogLevel); err != nil {
		return err
	}
	log := logging.Component("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := postgis.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		return err
	}

	if withQueue {
		consumer, err := queue.New(cfg.NATS.URL, cfg.NATS.Subject, cfg.NATS.Workers, db)
		if err != nil {
			return err
		}
		defer consumer.Close()

		if err := consumer.Start(ctx); err != nil {
			return err
		}
	}

	log.Info().Int("port", cfg.HTTPPort).Msg("starting")
	return api.New(db, cfg.HTTPPort).Run()
}

func initSchema() error {
	cfg := config.Load()
	if err := logging.Setup(cfg.LogLevel); err != nil {
		return err
	}

	ctx := context.Background()
	db, err := postgis.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.InitSchema(ctx)
}
