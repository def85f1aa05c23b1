package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/mordomohq/mordomo/pkg/cmd"
	"github.com/mordomohq/mordomo/pkg/log"
	"github.com/mordomohq/mordomo/pkg/models"
	"github.com/mordomohq/mordomo/pkg/workflow"
)

func databaseURLFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "database-url",
		Usage:   "Workflow persistence: a postgres:// URL or a JSON file path",
		Value:   "./data/workflows.json",
		Sources: cli.EnvVars("DATABASE_URL"),
	}
}

// openStore opens the store over the configured persistence and loads the
// collection. The returned close function releases the driver.
func openStore(ctx context.Context, command *cli.Command) (*workflow.Store, func(), error) {
	logger := log.WithModule("cli")

	persist, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return nil, nil, fmt.Errorf("open persistence: %w", err)
	}

	closer := func() {
		err := persist.Close(context.Background())
		if err != nil {
			logger.Error("Failed to close persistence", "error", err)
		}
	}

	store := workflow.NewStore(persist, logger)

	err = store.Load(ctx)
	if err != nil {
		closer()

		return nil, nil, fmt.Errorf("load workflows: %w", err)
	}

	return store, closer, nil
}

func printWorkflow(wf *models.Workflow) {
	status := "disabled"
	if wf.IsEnabled {
		status = "enabled"
	}

	fmt.Printf("%s  %-10s  %-20s  %s\n", wf.ID, wf.Trigger.Type, status, wf.Name)
}

func NewWorkflowListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List all workflows",
		Flags:   []cli.Flag{databaseURLFlag()},
		Action: func(ctx context.Context, command *cli.Command) error {
			store, closer, err := openStore(ctx, command)
			if err != nil {
				return err
			}
			defer closer()

			workflows := store.List()
			for _, wf := range workflows {
				printWorkflow(wf)
			}

			fmt.Printf("\nTotal workflows: %d\n", len(workflows))

			return nil
		},
	}
}

func NewWorkflowShowCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one workflow as JSON",
		ArgsUsage: "<workflow-id>",
		Flags:     []cli.Flag{databaseURLFlag()},
		Action: func(ctx context.Context, command *cli.Command) error {
			if command.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one workflow id")
			}

			store, closer, err := openStore(ctx, command)
			if err != nil {
				return err
			}
			defer closer()

			found, err := store.Get(command.Args().First())
			if err != nil {
				return err
			}

			body, err := json.MarshalIndent(found, "", "  ")
			if err != nil {
				return err
			}

			fmt.Println(string(body))

			return nil
		},
	}
}

func NewWorkflowValidateCommand() *cli.Command {
	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate every stored workflow document",
		Flags:   []cli.Flag{databaseURLFlag()},
		Action: func(ctx context.Context, command *cli.Command) error {
			store, closer, err := openStore(ctx, command)
			if err != nil {
				return err
			}
			defer closer()

			invalid := 0

			for _, wf := range store.List() {
				err := wf.Validate()
				if err != nil {
					invalid++

					fmt.Printf("INVALID  %s (%s): %v\n", wf.ID, wf.Name, err)

					continue
				}

				fmt.Printf("ok       %s (%s)\n", wf.ID, wf.Name)
			}

			if invalid > 0 {
				return fmt.Errorf("%d workflow(s) failed validation", invalid)
			}

			return nil
		},
	}
}

func NewWorkflowCreateCommand() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a workflow from a JSON document",
		ArgsUsage: "<document.json>",
		Flags:     []cli.Flag{databaseURLFlag()},
		Action: func(ctx context.Context, command *cli.Command) error {
			if command.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one document path")
			}

			body, err := os.ReadFile(command.Args().First())
			if err != nil {
				return err
			}

			var doc map[string]any

			err = json.Unmarshal(body, &doc)
			if err != nil {
				return fmt.Errorf("parse document: %w", err)
			}

			store, closer, err := openStore(ctx, command)
			if err != nil {
				return err
			}
			defer closer()

			created, err := store.Add(ctx, doc)
			if err != nil {
				return err
			}

			fmt.Printf("Created workflow %s\n", created.ID)

			return nil
		},
	}
}

func NewWorkflowDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Delete a workflow",
		ArgsUsage: "<workflow-id>",
		Flags:     []cli.Flag{databaseURLFlag()},
		Action: func(ctx context.Context, command *cli.Command) error {
			if command.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one workflow id")
			}

			store, closer, err := openStore(ctx, command)
			if err != nil {
				return err
			}
			defer closer()

			id := command.Args().First()

			removed, err := store.Delete(ctx, id)
			if err != nil {
				return err
			}

			if !removed {
				fmt.Printf("Workflow %s not found\n", id)

				return nil
			}

			fmt.Printf("Deleted workflow %s\n", id)

			return nil
		},
	}
}
