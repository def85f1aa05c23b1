package main

import (
	"context"
	"encoding/json"
	"fmt"

	cli "github.com/urfave/cli/v3"

	"github.com/mordomohq/mordomo/pkg/log"
	"github.com/mordomohq/mordomo/pkg/settings"
)

func settingsFileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "settings-file",
		Usage:   "Path to the settings JSON file",
		Value:   "./data/settings.json",
		Sources: cli.EnvVars("SETTINGS_FILE"),
	}
}

func openSettings(ctx context.Context, command *cli.Command) (*settings.Store, error) {
	store := settings.NewStore(command.String("settings-file"), log.WithModule("cli"))

	err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	return store, nil
}

func NewSettingsListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List all settings",
		Flags:   []cli.Flag{settingsFileFlag()},
		Action: func(ctx context.Context, command *cli.Command) error {
			store, err := openSettings(ctx, command)
			if err != nil {
				return err
			}

			for _, key := range store.Keys() {
				value, _ := store.Get(key)
				fmt.Printf("%s=%v\n", key, value)
			}

			return nil
		},
	}
}

func NewSettingsGetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Print one setting",
		ArgsUsage: "<key>",
		Flags:     []cli.Flag{settingsFileFlag()},
		Action: func(ctx context.Context, command *cli.Command) error {
			if command.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one key")
			}

			store, err := openSettings(ctx, command)
			if err != nil {
				return err
			}

			value, ok := store.Get(command.Args().First())
			if !ok {
				return fmt.Errorf("unknown setting %q", command.Args().First())
			}

			fmt.Printf("%v\n", value)

			return nil
		},
	}
}

func NewSettingsSetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Set one setting; the value is parsed as JSON when possible",
		ArgsUsage: "<key> <value>",
		Flags:     []cli.Flag{settingsFileFlag()},
		Action: func(ctx context.Context, command *cli.Command) error {
			if command.Args().Len() != 2 {
				return fmt.Errorf("expected a key and a value")
			}

			store, err := openSettings(ctx, command)
			if err != nil {
				return err
			}

			key := command.Args().Get(0)
			raw := command.Args().Get(1)

			// "true", "3", or a quoted string become typed values;
			// everything else stays a plain string.
			var value any

			err = json.Unmarshal([]byte(raw), &value)
			if err != nil {
				value = raw
			}

			err = store.Set(key, value)
			if err != nil {
				return err
			}

			fmt.Printf("%s=%v\n", key, value)

			return nil
		},
	}
}
