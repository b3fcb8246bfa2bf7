package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	keystoreDomain "github.com/allisson/webkms/internal/keystore/domain"
	keystoreUseCase "github.com/allisson/webkms/internal/keystore/usecase"
)

// CreateKeystoreParams holds the fields of a new keystore config.
type CreateKeystoreParams struct {
	AllowedHost string
	Controller  string
	KMSModule   string
	ReferenceID string
	MeterID     string
}

// RunCreateKeystore creates a keystore config with sequence 0 under a freshly minted id.
//
// Requirements: Database must be migrated and accessible.
func RunCreateKeystore(
	ctx context.Context,
	useCase keystoreUseCase.KeystoreUseCase,
	logger *slog.Logger,
	writer io.Writer,
	params CreateKeystoreParams,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}
	if params.AllowedHost == "" {
		return fmt.Errorf("allowed host is required to mint a keystore id")
	}

	config := &keystoreDomain.KeystoreConfig{
		ID:          keystoreDomain.NewKeystoreID(params.AllowedHost),
		Controller:  params.Controller,
		KMSModule:   params.KMSModule,
		ReferenceID: params.ReferenceID,
		MeterID:     params.MeterID,
	}

	logger.Info("creating keystore",
		slog.String("id", config.ID),
		slog.String("controller", config.Controller),
		slog.String("kms_module", config.KMSModule),
	)

	record, err := useCase.Insert(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create keystore: %w", err)
	}

	if format == "json" {
		return writeJSON(writer, keystoreOutput(record))
	}

	_, err = fmt.Fprintf(writer,
		"Keystore created successfully\n\nID: %s\nController: %s\nKMS module: %s\nSequence: %d\n",
		record.Config.ID, record.Config.Controller, record.Config.KMSModule, record.Config.Sequence,
	)
	if err != nil {
		return err
	}
	if record.Config.ReferenceID != "" {
		_, err = fmt.Fprintf(writer, "Reference ID: %s\n", record.Config.ReferenceID)
	}
	return err
}

// RunStorageUsage prints the storage consumed by every keystore with the given meter id.
func RunStorageUsage(
	ctx context.Context,
	useCase keystoreUseCase.KeystoreUseCase,
	logger *slog.Logger,
	writer io.Writer,
	meterID string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}
	if meterID == "" {
		return fmt.Errorf("meter id is required")
	}

	start := time.Now()
	usage, err := useCase.GetStorageUsage(ctx, meterID)
	if err != nil {
		return fmt.Errorf("failed to compute storage usage: %w", err)
	}

	logger.Info("storage usage computed",
		slog.String("meter_id", meterID),
		slog.Int("keystores", usage.Keystores),
		slog.Int64("keys", usage.Keys),
		slog.Duration("duration", time.Since(start)),
	)

	if format == "json" {
		return writeJSON(writer, map[string]any{
			"meterId": usage.MeterID,
			"usage": map[string]any{
				"storage":   usage.Storage,
				"keystores": usage.Keystores,
				"keys":      usage.Keys,
			},
		})
	}

	_, err = fmt.Fprintf(writer,
		"Meter: %s\nKeystores: %d\nKeys: %d\nStorage: %d\n",
		usage.MeterID, usage.Keystores, usage.Keys, usage.Storage,
	)
	return err
}

func keystoreOutput(record *keystoreDomain.KeystoreRecord) map[string]any {
	out := map[string]any{
		"id":         record.Config.ID,
		"controller": record.Config.Controller,
		"kmsModule":  record.Config.KMSModule,
		"sequence":   record.Config.Sequence,
		"created":    record.Meta.Created.Format(time.RFC3339),
	}
	if record.Config.ReferenceID != "" {
		out["referenceId"] = record.Config.ReferenceID
	}
	if record.Config.MeterID != "" {
		out["meterId"] = record.Config.MeterID
	}
	return out
}
