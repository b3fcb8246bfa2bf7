package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/webkms/cmd/app/commands"
	"github.com/allisson/webkms/internal/app"
)

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}

func getKeystoreCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-keystore",
			Usage: "Create a keystore config owned by a controller",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "controller",
					Aliases:  []string{"c"},
					Required: true,
					Usage:    "Controller identifier (e.g., did:key:z6Mk...)",
				},
				&cli.StringFlag{
					Name:    "kms-module",
					Aliases: []string{"m"},
					Value:   "local",
					Usage:   "Name of the kms module that holds the keystore's keys",
				},
				&cli.StringFlag{
					Name:    "reference-id",
					Aliases: []string{"r"},
					Usage:   "Optional reference id, unique per controller",
				},
				&cli.StringFlag{
					Name:  "meter-id",
					Usage: "Optional meter id used to aggregate storage usage",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.WithContainer(ctx, func(ctx context.Context, container *app.Container) error {
					keystoreUseCase, err := container.KeystoreUseCase()
					if err != nil {
						return err
					}

					return commands.RunCreateKeystore(
						ctx,
						keystoreUseCase,
						container.Logger(),
						cmd.Root().Writer,
						commands.CreateKeystoreParams{
							AllowedHost: container.Config().AllowedHost,
							Controller:  cmd.String("controller"),
							KMSModule:   cmd.String("kms-module"),
							ReferenceID: cmd.String("reference-id"),
							MeterID:     cmd.String("meter-id"),
						},
						cmd.String("format"),
					)
				})
			},
		},
		{
			Name:  "storage-usage",
			Usage: "Compute the storage consumed by every keystore of a meter",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "meter-id",
					Required: true,
					Usage:    "Meter id to aggregate",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.WithContainer(ctx, func(ctx context.Context, container *app.Container) error {
					keystoreUseCase, err := container.KeystoreUseCase()
					if err != nil {
						return err
					}

					return commands.RunStorageUsage(
						ctx,
						keystoreUseCase,
						container.Logger(),
						cmd.Root().Writer,
						cmd.String("meter-id"),
						cmd.String("format"),
					)
				})
			},
		},
	}
}
