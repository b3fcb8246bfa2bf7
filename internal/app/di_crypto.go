package app

import (
	"errors"
	"fmt"

	cryptoDomain "github.com/allisson/webkms/internal/crypto/domain"
	cryptoService "github.com/allisson/webkms/internal/crypto/service"
)

// Keeper returns the gocloud.dev keeper that wraps the local module's data keys.
func (c *Container) Keeper() (cryptoService.Keeper, error) {
	return lazy(c, &c.keeperInit, "keeper", &c.keeper, c.initKeeper)
}

// Sealer returns the envelope sealer used by the local module.
func (c *Container) Sealer() (cryptoService.Sealer, error) {
	return lazy(c, &c.sealerInit, "sealer", &c.sealer, c.initSealer)
}

func (c *Container) initKeeper() (cryptoService.Keeper, error) {
	if c.config.LocalModuleKeeperURI == "" {
		return nil, errors.New("LOCAL_MODULE_KEEPER_URI is required")
	}
	keeper, err := cryptoService.OpenKeeper(c.ctx, c.config.LocalModuleKeeperURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open local module keeper: %w", err)
	}
	return keeper, nil
}

func (c *Container) initSealer() (cryptoService.Sealer, error) {
	alg, err := cryptoDomain.ParseAlgorithm(c.config.LocalModuleSealAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("invalid LOCAL_MODULE_SEAL_ALGORITHM %q: %w", c.config.LocalModuleSealAlgorithm, err)
	}

	keeper, err := c.Keeper()
	if err != nil {
		return nil, err
	}

	return cryptoService.NewEnvelopeSealer(keeper, cryptoService.NewAEADManager(), alg), nil
}
