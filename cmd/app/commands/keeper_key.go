package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	cryptoService "github.com/allisson/webkms/internal/crypto/service"
)

// KeeperOpener opens a keeper for a gocloud.dev secrets URL.
type KeeperOpener func(ctx context.Context, keyURI string) (cryptoService.Keeper, error)

// RunCreateKeeperKey prints a fresh base64key:// URI for LOCAL_MODULE_KEEPER_URI after
// checking it with an encrypt and decrypt round trip.
//
// Security: base64key:// keeps the key in configuration. Use a cloud KMS URI in production.
func RunCreateKeeperKey(ctx context.Context, openKeeper KeeperOpener, logger *slog.Logger, writer io.Writer) error {
	keyURI, err := cryptoService.NewLocalKeeperURI()
	if err != nil {
		return err
	}

	keeper, err := openKeeper(ctx, keyURI)
	if err != nil {
		return fmt.Errorf("failed to open keeper: %w", err)
	}
	defer func() {
		if closeErr := keeper.Close(); closeErr != nil {
			logger.Warn("failed to close keeper", slog.Any("error", closeErr))
		}
	}()

	if err := cryptoService.ProbeKeeper(ctx, keeper); err != nil {
		return err
	}

	logger.Info("keeper key generated")

	_, err = fmt.Fprintf(writer,
		"# Local module keeper configuration\n"+
			"# Copy this environment variable to your .env file or secrets manager\n\n"+
			"LOCAL_MODULE_KEEPER_URI=\"%s\"\n",
		keyURI,
	)
	return err
}
