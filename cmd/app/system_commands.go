package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/webkms/cmd/app/commands"
	"github.com/allisson/webkms/internal/app"
	cryptoService "github.com/allisson/webkms/internal/crypto/service"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the key management API server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Apply the keystore, key record and local module migrations",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.WithContainer(ctx, func(ctx context.Context, container *app.Container) error {
					cfg := container.Config()
					return commands.RunMigrations(container.Logger(), cfg.DBDriver, cfg.DBConnectionString)
				})
			},
		},
		{
			Name:  "create-keeper-key",
			Usage: "Print a base64key:// keeper URI for the local key module (development only)",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.WithContainer(ctx, func(ctx context.Context, container *app.Container) error {
					return commands.RunCreateKeeperKey(ctx, cryptoService.OpenKeeper, container.Logger(), cmd.Root().Writer)
				})
			},
		},
	}
}
