package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/clinicflow/clinicflow/pkg/cmd"
	"github.com/clinicflow/clinicflow/pkg/log"
)

func main() {
	command := &cli.Command{
		Name:                  "clinicflow-triggerd",
		Usage:                 "Watch trigger sources and publish workflow fire requests",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "daemon-id",
				Usage:   "Daemon identifier (auto-generated when empty)",
				Sources: cli.EnvVars("DAEMON_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, gochannel)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			daemonID := command.String("daemon-id")
			if daemonID == "" {
				daemonID = "triggerd-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("triggerd")
			logger.InfoContext(ctx, "Initializing Clinicflow trigger daemon", "daemon_id", daemonID)

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), "triggerd", logger)
			if err != nil {
				return err
			}

			defer func() {
				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			manager := NewTriggerManager(daemonID, persistence, eventBus, logger)

			manager.Start(ctx)

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
