package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/mordomohq/mordomo/pkg/log"
)

func main() {
	cmd := &cli.Command{
		Name:                  "mordomo",
		Usage:                 "Inspect and manage workflows and settings",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:    "workflow",
				Aliases: []string{"w"},
				Usage:   "Manage workflows",
				Commands: []*cli.Command{
					NewWorkflowListCommand(),
					NewWorkflowShowCommand(),
					NewWorkflowValidateCommand(),
					NewWorkflowCreateCommand(),
					NewWorkflowDeleteCommand(),
				},
			},
			{
				Name:    "settings",
				Aliases: []string{"s"},
				Usage:   "Manage agent settings",
				Commands: []*cli.Command{
					NewSettingsListCommand(),
					NewSettingsGetCommand(),
					NewSettingsSetCommand(),
				},
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			log.Setup(command.String("log-level"))

			return ctx, nil
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		os.Exit(1)
	}
}
