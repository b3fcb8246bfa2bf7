package app

import (
	"fmt"

	"github.com/allisson/webkms/internal/cache"
	keystoreDomain "github.com/allisson/webkms/internal/keystore/domain"
	keystoreHTTP "github.com/allisson/webkms/internal/keystore/http"
	keystoreRepository "github.com/allisson/webkms/internal/keystore/repository"
	keystoreUseCase "github.com/allisson/webkms/internal/keystore/usecase"
)

// KeystoreRepository returns the keystore config repository for the configured driver.
func (c *Container) KeystoreRepository() (keystoreUseCase.KeystoreRepository, error) {
	return lazy(c, &c.keystoreRepositoryInit, "keystoreRepository", &c.keystoreRepository, c.initKeystoreRepository)
}

// KeystoreConfigCache returns the cache in front of keystore config reads.
func (c *Container) KeystoreConfigCache() (*cache.Cache[*keystoreDomain.KeystoreRecord], error) {
	return lazy(c, &c.keystoreConfigCacheInit, "keystoreConfigCache", &c.keystoreConfigCache, c.initKeystoreConfigCache)
}

// KeystoreUseCase returns the keystore use case.
func (c *Container) KeystoreUseCase() (keystoreUseCase.KeystoreUseCase, error) {
	return lazy(c, &c.keystoreUseCaseInit, "keystoreUseCase", &c.keystoreUseCase, c.initKeystoreUseCase)
}

// KeystoreHandler returns the keystore HTTP handler.
func (c *Container) KeystoreHandler() (*keystoreHTTP.KeystoreHandler, error) {
	return lazy(c, &c.keystoreHandlerInit, "keystoreHandler", &c.keystoreHandler, c.initKeystoreHandler)
}

func (c *Container) initKeystoreRepository() (keystoreUseCase.KeystoreRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for keystore repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return keystoreRepository.NewPostgreSQLKeystoreRepository(db), nil
	case "mysql":
		return keystoreRepository.NewMySQLKeystoreRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initKeystoreConfigCache() (*cache.Cache[*keystoreDomain.KeystoreRecord], error) {
	onLookup, err := c.cacheLookupRecorder("keystore_config")
	if err != nil {
		return nil, err
	}
	return cache.New[*keystoreDomain.KeystoreRecord](cache.Config{
		MaxSize:  c.config.KeystoreConfigCacheMaxSize,
		MaxAge:   c.config.KeystoreConfigCacheMaxAge,
		OnLookup: onLookup,
	})
}

func (c *Container) initKeystoreUseCase() (keystoreUseCase.KeystoreUseCase, error) {
	repo, err := c.KeystoreRepository()
	if err != nil {
		return nil, err
	}

	configCache, err := c.KeystoreConfigCache()
	if err != nil {
		return nil, fmt.Errorf("failed to create keystore config cache: %w", err)
	}

	registry, err := c.ModuleRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to get module registry for keystore use case: %w", err)
	}

	baseUseCase := keystoreUseCase.NewKeystoreUseCase(repo, configCache, registry, keystoreUseCase.Config{
		StorageCost: keystoreUseCase.StorageCost{
			Keystore: c.config.StorageCostKeystore,
			Key:      c.config.StorageCostKey,
		},
		KeyCountConcurrency: c.config.KeyCountMaxConcurrency,
	})

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for keystore use case: %w", err)
		}
		return keystoreUseCase.NewKeystoreUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

func (c *Container) initKeystoreHandler() (*keystoreHTTP.KeystoreHandler, error) {
	useCase, err := c.KeystoreUseCase()
	if err != nil {
		return nil, err
	}
	return keystoreHTTP.NewKeystoreHandler(useCase, c.config.AllowedHost, c.Logger()), nil
}
