package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/allisson/webkms/internal/cache"
	apperrors "github.com/allisson/webkms/internal/errors"
	keystoreDomain "github.com/allisson/webkms/internal/keystore/domain"
	"github.com/allisson/webkms/internal/kms/module"
)

// StorageCost is the number of storage units charged per keystore and per key.
type StorageCost struct {
	Keystore int64
	Key      int64
}

// Config holds the tunables of the keystore use case.
type Config struct {
	StorageCost StorageCost
	// KeyCountConcurrency bounds outstanding key-count calls during a storage usage scan.
	// It is also the page size of the scan.
	KeyCountConcurrency int
}

// keystoreUseCase implements KeystoreUseCase.
type keystoreUseCase struct {
	repo     KeystoreRepository
	cache    *cache.Cache[*keystoreDomain.KeystoreRecord]
	resolver module.Resolver
	cfg      Config
	now      func() time.Time
}

// NewKeystoreUseCase creates a keystore use case.
//
// Parameters:
//   - repo: Persistence for keystore configs
//   - configCache: Cache in front of Get; Update invalidates it
//   - resolver: Resolves kms modules when computing storage usage
//   - cfg: Storage costs and key-count concurrency
func NewKeystoreUseCase(
	repo KeystoreRepository,
	configCache *cache.Cache[*keystoreDomain.KeystoreRecord],
	resolver module.Resolver,
	cfg Config,
) KeystoreUseCase {
	if cfg.KeyCountConcurrency <= 0 {
		cfg.KeyCountConcurrency = 100
	}
	return &keystoreUseCase{
		repo:     repo,
		cache:    configCache,
		resolver: resolver,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Insert validates and stores a new keystore config with sequence 0.
func (k *keystoreUseCase) Insert(
	ctx context.Context,
	config *keystoreDomain.KeystoreConfig,
) (*keystoreDomain.KeystoreRecord, error) {
	if err := config.ValidateForInsert(); err != nil {
		return nil, err
	}

	now := k.now()
	record := &keystoreDomain.KeystoreRecord{
		Config: *config,
		Meta:   keystoreDomain.Meta{Created: now, Updated: now},
	}
	if err := k.repo.Create(ctx, record); err != nil {
		return nil, err
	}

	return copyRecord(record), nil
}

// Update applies a sequence-gated compare-and-swap and invalidates the cached config.
func (k *keystoreUseCase) Update(ctx context.Context, config *keystoreDomain.KeystoreConfig) error {
	if err := config.ValidateForUpdate(); err != nil {
		return err
	}

	updated, err := k.repo.UpdateIfNextSequence(ctx, config, k.now())
	if err != nil {
		return err
	}
	if !updated {
		return apperrors.Wrapf(
			keystoreDomain.ErrStaleSequence,
			"keystore %q sequence %d",
			config.ID,
			config.Sequence,
		)
	}

	k.cache.Delete(config.ID)
	return nil
}

// Get returns the keystore config through the cache.
// Concurrent misses on the same id share one storage read.
func (k *keystoreUseCase) Get(ctx context.Context, id string) (*keystoreDomain.KeystoreRecord, error) {
	record, err := k.cache.Memoize(ctx, id, func(ctx context.Context) (*keystoreDomain.KeystoreRecord, error) {
		return k.repo.Get(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return copyRecord(record), nil
}

// Find lists the configs of controller. The controller filter cannot be overridden by query.
func (k *keystoreUseCase) Find(
	ctx context.Context,
	controller string,
	query keystoreDomain.FindQuery,
	opts keystoreDomain.FindOptions,
) ([]*keystoreDomain.KeystoreRecord, error) {
	if controller == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "controller is required")
	}
	if opts.Limit < 0 || opts.Offset < 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "limit and offset must not be negative")
	}
	return k.repo.Find(ctx, controller, query, opts)
}

// GetStorageUsage pages through the keystores of meterID and adds the keystore
// cost plus the key cost times the live key count of each keystore.
//
// Each page holds at most KeyCountConcurrency keystores and its key counts run
// with at most that many calls outstanding. Cancellation of ctx is checked
// between pages and reported as ErrStorageUsageAborted.
func (k *keystoreUseCase) GetStorageUsage(
	ctx context.Context,
	meterID string,
) (*keystoreDomain.StorageUsage, error) {
	if meterID == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "meter id is required")
	}

	usage := &keystoreDomain.StorageUsage{MeterID: meterID}
	limit := k.cfg.KeyCountConcurrency
	afterID := ""

	for {
		if ctx.Err() != nil {
			return nil, keystoreDomain.ErrStorageUsageAborted
		}

		configs, err := k.repo.ListByMeterID(ctx, meterID, afterID, limit)
		if err != nil {
			return nil, k.abortedOr(ctx, err)
		}
		if len(configs) == 0 {
			break
		}

		counts := make([]int64, len(configs))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(limit)
		for i, config := range configs {
			g.Go(func() error {
				n, err := k.keyCount(gctx, config)
				counts[i] = n
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, k.abortedOr(ctx, err)
		}

		usage.Keystores += len(configs)
		for _, n := range counts {
			usage.Keys += n
		}

		if len(configs) < limit {
			break
		}
		afterID = configs[len(configs)-1].ID
	}

	usage.Storage = int64(usage.Keystores)*k.cfg.StorageCost.Keystore + usage.Keys*k.cfg.StorageCost.Key
	return usage, nil
}

func (k *keystoreUseCase) keyCount(ctx context.Context, config *keystoreDomain.KeystoreConfig) (int64, error) {
	m, err := k.resolver.Resolve(config.KMSModule)
	if err != nil {
		return 0, err
	}

	counter, ok := m.(module.KeyCounter)
	if !ok {
		return 0, fmt.Errorf("%w: %q", keystoreDomain.ErrKeyCountNotSupported, config.KMSModule)
	}

	return counter.GetKeyCount(ctx, config.ID)
}

// abortedOr reports cancellation of the caller's context as ErrStorageUsageAborted.
func (k *keystoreUseCase) abortedOr(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return keystoreDomain.ErrStorageUsageAborted
	}
	return err
}

func copyRecord(record *keystoreDomain.KeystoreRecord) *keystoreDomain.KeystoreRecord {
	c := *record
	return &c
}
