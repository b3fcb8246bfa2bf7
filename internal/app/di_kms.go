package app

import (
	"context"
	"fmt"

	"github.com/allisson/webkms/internal/cache"
	kmsDomain "github.com/allisson/webkms/internal/kms/domain"
	kmsHTTP "github.com/allisson/webkms/internal/kms/http"
	"github.com/allisson/webkms/internal/kms/module"
	"github.com/allisson/webkms/internal/kms/module/local"
	kmsRepository "github.com/allisson/webkms/internal/kms/repository"
	kmsUseCase "github.com/allisson/webkms/internal/kms/usecase"
)

// KeyRecordRepository returns the key record repository for the configured driver.
func (c *Container) KeyRecordRepository() (kmsUseCase.KeyRecordRepository, error) {
	return lazy(c, &c.keyRecordRepositoryInit, "keyRecordRepository", &c.keyRecordRepository, c.initKeyRecordRepository)
}

// LocalSecretRepository returns the repository holding the local module's sealed key secrets.
func (c *Container) LocalSecretRepository() (local.SecretRepository, error) {
	return lazy(
		c,
		&c.localSecretRepositoryInit,
		"localSecretRepository",
		&c.localSecretRepository,
		c.initLocalSecretRepository,
	)
}

// KeyRecordCache returns the cache in front of key record reads.
func (c *Container) KeyRecordCache() (*cache.Cache[*kmsDomain.KeyRecord], error) {
	return lazy(c, &c.keyRecordCacheInit, "keyRecordCache", &c.keyRecordCache, c.initKeyRecordCache)
}

// ModuleRegistry returns the registry of kms modules keystores may name.
func (c *Container) ModuleRegistry() (*module.Registry, error) {
	return lazy(c, &c.moduleRegistryInit, "moduleRegistry", &c.moduleRegistry, c.initModuleRegistry)
}

// OperationUseCase returns the key operation pipeline.
func (c *Container) OperationUseCase() (kmsUseCase.OperationUseCase, error) {
	return lazy(c, &c.operationUseCaseInit, "operationUseCase", &c.operationUseCase, c.initOperationUseCase)
}

// OperationHandler returns the key operation HTTP handler.
func (c *Container) OperationHandler() (*kmsHTTP.OperationHandler, error) {
	return lazy(c, &c.operationHandlerInit, "operationHandler", &c.operationHandler, c.initOperationHandler)
}

func (c *Container) initKeyRecordRepository() (kmsUseCase.KeyRecordRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for key record repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return kmsRepository.NewPostgreSQLKeyRecordRepository(db), nil
	case "mysql":
		return kmsRepository.NewMySQLKeyRecordRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initLocalSecretRepository() (local.SecretRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for local secret repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return local.NewPostgreSQLSecretRepository(db), nil
	case "mysql":
		return local.NewMySQLSecretRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initKeyRecordCache() (*cache.Cache[*kmsDomain.KeyRecord], error) {
	onLookup, err := c.cacheLookupRecorder("key_record")
	if err != nil {
		return nil, err
	}
	return cache.New[*kmsDomain.KeyRecord](cache.Config{
		MaxSize:  c.config.KeyRecordCacheMaxSize,
		MaxAge:   c.config.KeyRecordCacheMaxAge,
		OnLookup: onLookup,
	})
}

func (c *Container) initModuleRegistry() (*module.Registry, error) {
	repo, err := c.LocalSecretRepository()
	if err != nil {
		return nil, err
	}

	sealer, err := c.Sealer()
	if err != nil {
		return nil, fmt.Errorf("failed to get sealer for local module: %w", err)
	}

	return module.NewRegistry(local.NewModule(repo, sealer)), nil
}

func (c *Container) initOperationUseCase() (kmsUseCase.OperationUseCase, error) {
	repo, err := c.KeyRecordRepository()
	if err != nil {
		return nil, err
	}

	recordCache, err := c.KeyRecordCache()
	if err != nil {
		return nil, fmt.Errorf("failed to create key record cache: %w", err)
	}

	keystores, err := c.KeystoreUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get keystore use case for operation use case: %w", err)
	}

	registry, err := c.ModuleRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to get module registry for operation use case: %w", err)
	}

	baseUseCase := kmsUseCase.NewOperationUseCase(repo, recordCache, keystores, registry, c.Logger())

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for operation use case: %w", err)
		}
		return kmsUseCase.NewOperationUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

func (c *Container) initOperationHandler() (*kmsHTTP.OperationHandler, error) {
	useCase, err := c.OperationUseCase()
	if err != nil {
		return nil, err
	}
	return kmsHTTP.NewOperationHandler(useCase, c.config.AllowedHost, c.Logger()), nil
}

// cacheLookupRecorder reports cache hits and misses for the named cache, or returns nil when metrics are disabled.
func (c *Container) cacheLookupRecorder(name string) (func(hit bool), error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}
	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for %s cache: %w", name, err)
	}
	return func(hit bool) {
		businessMetrics.RecordCacheLookup(context.Background(), name, hit)
	}, nil
}
