package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/webkms/internal/cache"
	apperrors "github.com/allisson/webkms/internal/errors"
	keystoreDomain "github.com/allisson/webkms/internal/keystore/domain"
	keystoreMocks "github.com/allisson/webkms/internal/keystore/usecase/mocks"
	"github.com/allisson/webkms/internal/kms/module"
)

const testController = "did:key:z6MkController"

// namedModule is a module without any capability.
type namedModule struct{ name string }

func (m *namedModule) Name() string { return m.name }

// countingModule reports a fixed key count per keystore and tracks concurrency.
type countingModule struct {
	namedModule
	counts   map[string]int64
	delay    time.Duration
	inFlight int32
	maxSeen  int32
	onCount  func()
	err      error
}

func (m *countingModule) GetKeyCount(ctx context.Context, keystoreID string) (int64, error) {
	n := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&m.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&m.maxSeen, seen, n) {
			break
		}
	}
	if m.onCount != nil {
		m.onCount()
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.err != nil {
		return 0, m.err
	}
	return m.counts[keystoreID], nil
}

func newTestConfig(id string) *keystoreDomain.KeystoreConfig {
	return &keystoreDomain.KeystoreConfig{
		ID:          "https://kms.example.com/kms/keystores/" + id,
		Controller:  testController,
		KMSModule:   "local-v1",
		ReferenceID: "ref-" + id,
		MeterID:     "meter-1",
	}
}

func newTestUseCase(
	t *testing.T,
	repo KeystoreRepository,
	resolver module.Resolver,
	cfg Config,
) (*keystoreUseCase, *cache.Cache[*keystoreDomain.KeystoreRecord]) {
	t.Helper()
	c, err := cache.New[*keystoreDomain.KeystoreRecord](cache.Config{MaxSize: 10, MaxAge: time.Minute})
	require.NoError(t, err)
	if resolver == nil {
		resolver = module.NewRegistry()
	}
	uc := NewKeystoreUseCase(repo, c, resolver, cfg).(*keystoreUseCase)
	return uc, c
}

func TestKeystoreUseCase_Insert(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_InsertThenGetReturnsSameRecord", func(t *testing.T) {
		repo := &keystoreMocks.MockKeystoreRepository{}
		uc, _ := newTestUseCase(t, repo, nil, Config{})
		config := newTestConfig("a")

		var stored *keystoreDomain.KeystoreRecord
		repo.On("Create", ctx, mock.AnythingOfType("*domain.KeystoreRecord")).
			Run(func(args mock.Arguments) {
				r := *args.Get(1).(*keystoreDomain.KeystoreRecord)
				stored = &r
			}).
			Return(nil).
			Once()

		inserted, err := uc.Insert(ctx, config)
		require.NoError(t, err)
		assert.Equal(t, *config, inserted.Config)
		assert.False(t, inserted.Meta.Created.IsZero())
		assert.Equal(t, inserted.Meta.Created, inserted.Meta.Updated)

		repo.On("Get", mock.Anything, config.ID).Return(stored, nil).Once()

		got, err := uc.Get(ctx, config.ID)
		require.NoError(t, err)
		assert.Equal(t, inserted, got)
		repo.AssertExpectations(t)
	})

	t.Run("Error_NonZeroSequence", func(t *testing.T) {
		repo := &keystoreMocks.MockKeystoreRepository{}
		uc, _ := newTestUseCase(t, repo, nil, Config{})
		config := newTestConfig("a")
		config.Sequence = 1

		record, err := uc.Insert(ctx, config)

		assert.Nil(t, record)
		assert.ErrorIs(t, err, keystoreDomain.ErrInitialSequence)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Error_MissingController", func(t *testing.T) {
		repo := &keystoreMocks.MockKeystoreRepository{}
		uc, _ := newTestUseCase(t, repo, nil, Config{})
		config := newTestConfig("a")
		config.Controller = ""

		_, err := uc.Insert(ctx, config)

		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("Error_DuplicateIDOrReferenceID", func(t *testing.T) {
		repo := &keystoreMocks.MockKeystoreRepository{}
		uc, _ := newTestUseCase(t, repo, nil, Config{})

		repo.On("Create", ctx, mock.Anything).Return(keystoreDomain.ErrKeystoreAlreadyExists).Once()

		record, err := uc.Insert(ctx, newTestConfig("a"))

		assert.Nil(t, record)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
		assert.Equal(t, "DuplicateError", apperrors.Describe(err).Name)
		repo.AssertExpectations(t)
	})
}

func TestKeystoreUseCase_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_InvalidatesCache", func(t *testing.T) {
		repo := &keystoreMocks.MockKeystoreRepository{}
		uc, c := newTestUseCase(t, repo, nil, Config{})
		config := newTestConfig("a")
		original := &keystoreDomain.KeystoreRecord{Config: *config}

		repo.On("Get", mock.Anything, config.ID).Return(original, nil).Once()
		_, err := uc.Get(ctx, config.ID)
		require.NoError(t, err)
		_, cached := c.Get(config.ID)
		require.True(t, cached)

		next := *config
		next.Sequence = 1
		next.Controller = "did:key:z6MkOther"
		repo.On("UpdateIfNextSequence", ctx, &next, mock.AnythingOfType("time.Time")).Return(true, nil).Once()

		require.NoError(t, uc.Update(ctx, &next))

		_, cached = c.Get(config.ID)
		assert.False(t, cached)

		updated := &keystoreDomain.KeystoreRecord{Config: next}
		repo.On("Get", mock.Anything, config.ID).Return(updated, nil).Once()
		got, err := uc.Get(ctx, config.ID)
		require.NoError(t, err)
		assert.Equal(t, "did:key:z6MkOther", got.Config.Controller)
		assert.Equal(t, uint64(1), got.Config.Sequence)
		repo.AssertExpectations(t)
	})

	t.Run("Error_StaleSequence", func(t *testing.T) {
		repo := &keystoreMocks.MockKeystoreRepository{}
		uc, _ := newTestUseCase(t, repo, nil, Config{})
		config := newTestConfig("a")
		config.Sequence = 3

		repo.On("UpdateIfNextSequence", ctx, config, mock.AnythingOfType("time.Time")).Return(false, nil).Once()

		err := uc.Update(ctx, config)

		assert.ErrorIs(t, err, keystoreDomain.ErrStaleSequence)
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
		assert.Equal(t, "InvalidStateError", apperrors.Describe(err).Name)
		repo.AssertExpectations(t)
	})

	t.Run("Error_ZeroSequence", func(t *testing.T) {
		repo := &keystoreMocks.MockKeystoreRepository{}
		uc, _ := newTestUseCase(t, repo, nil, Config{})

		err := uc.Update(ctx, newTestConfig("a"))

		assert.ErrorIs(t, err, keystoreDomain.ErrUpdateSequence)
		repo.AssertNotCalled(t, "UpdateIfNextSequence", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error_StorageFailure", func(t *testing.T) {
		repo := &keystoreMocks.MockKeystoreRepository{}
		uc, _ := newTestUseCase(t, repo, nil, Config{})
		config := newTestConfig("a")
		config.Sequence = 1
		dbErr := errors.New("connection reset")

		repo.On("UpdateIfNextSequence", ctx, config, mock.AnythingOfType("time.Time")).Return(false, dbErr).Once()

		err := uc.Update(ctx, config)

		assert.ErrorIs(t, err, dbErr)
	})
}

func TestKeystoreUseCase_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_ReturnsCopy", func(t *testing.T) {
		repo := &keystoreMocks.MockKeystoreRepository{}
		uc, _ := newTestUseCase(t, repo, nil, Config{})
		config := newTestConfig("a")

		repo.On("Get", mock.Anything, config.ID).
			Return(&keystoreDomain.KeystoreRecord{Config: *config}, nil).
			Once()

		first, err := uc.Get(ctx, config.ID)
		require.NoError(t, err)
		first.Config.Controller = "mutated"

		second, err := uc.Get(ctx, config.ID)
		require.NoError(t, err)
		assert.Equal(t, testController, second.Config.Controller)
		repo.AssertExpectations(t)
	})

	t.Run("Success_ConcurrentMissesShareOneRead", func(t *testing.T) {
		repo := &keystoreMocks.MockKeystoreRepository{}
		uc, _ := newTestUseCase(t, repo, nil, Config{})
		config := newTestConfig("a")

		repo.On("Get", mock.Anything, config.ID).
			After(20*time.Millisecond).
			Return(&keystoreDomain.KeystoreRecord{Config: *config}, nil).
			Once()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, err := uc.Get(ctx, config.ID)
				assert.NoError(t, err)
				assert.Equal(t, config.ID, got.Config.ID)
			}()
		}
		wg.Wait()

		repo.AssertNumberOfCalls(t, "Get", 1)
	})

	t.Run("Error_NotFoundIsNotCached", func(t *testing.T) {
		repo := &keystoreMocks.MockKeystoreRepository{}
		uc, _ := newTestUseCase(t, repo, nil, Config{})

		repo.On("Get", mock.Anything, "missing").Return(nil, keystoreDomain.ErrKeystoreNotFound).Twice()

		_, err := uc.Get(ctx, "missing")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		_, err = uc.Get(ctx, "missing")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		repo.AssertExpectations(t)
	})
}

func TestKeystoreUseCase_Find(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := &keystoreMocks.MockKeystoreRepository{}
		uc, _ := newTestUseCase(t, repo, nil, Config{})
		query := keystoreDomain.FindQuery{ReferenceID: "ref-a"}
		records := []*keystoreDomain.KeystoreRecord{{Config: *newTestConfig("a")}}

		repo.On("Find", ctx, testController, query, keystoreDomain.FindOptions{}).Return(records, nil).Once()

		got, err := uc.Find(ctx, testController, query, keystoreDomain.FindOptions{})

		require.NoError(t, err)
		assert.Equal(t, records, got)
	})

	t.Run("Error_MissingController", func(t *testing.T) {
		uc, _ := newTestUseCase(t, &keystoreMocks.MockKeystoreRepository{}, nil, Config{})

		_, err := uc.Find(ctx, "", keystoreDomain.FindQuery{}, keystoreDomain.FindOptions{})

		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("Error_NegativeLimit", func(t *testing.T) {
		uc, _ := newTestUseCase(t, &keystoreMocks.MockKeystoreRepository{}, nil, Config{})

		_, err := uc.Find(ctx, testController, keystoreDomain.FindQuery{}, keystoreDomain.FindOptions{Limit: -1})

		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestKeystoreUseCase_GetStorageUsage(t *testing.T) {
	ctx := context.Background()

	configs := func(ids ...string) []*keystoreDomain.KeystoreConfig {
		out := make([]*keystoreDomain.KeystoreConfig, 0, len(ids))
		for _, id := range ids {
			out = append(out, &keystoreDomain.KeystoreConfig{ID: id, KMSModule: "local-v1", MeterID: "meter-1"})
		}
		return out
	}

	t.Run("Success_SumsCostsWithBoundedConcurrency", func(t *testing.T) {
		repo := &keystoreMocks.MockKeystoreRepository{}
		counter := &countingModule{
			namedModule: namedModule{name: "local-v1"},
			counts:      map[string]int64{"a": 1, "b": 2, "c": 3, "d": 0, "e": 4},
			delay:       5 * time.Millisecond,
		}
		cfg := Config{StorageCost: StorageCost{Keystore: 3, Key: 2}, KeyCountConcurrency: 2}
		uc, _ := newTestUseCase(t, repo, module.NewRegistry(counter), cfg)

		repo.On("ListByMeterID", ctx, "meter-1", "", 2).Return(configs("a", "b"), nil).Once()
		repo.On("ListByMeterID", ctx, "meter-1", "b", 2).Return(configs("c", "d"), nil).Once()
		repo.On("ListByMeterID", ctx, "meter-1", "d", 2).Return(configs("e"), nil).Once()

		usage, err := uc.GetStorageUsage(ctx, "meter-1")

		require.NoError(t, err)
		assert.Equal(t, "meter-1", usage.MeterID)
		assert.Equal(t, 5, usage.Keystores)
		assert.Equal(t, int64(10), usage.Keys)
		assert.Equal(t, int64(5*3+10*2), usage.Storage)
		assert.LessOrEqual(t, atomic.LoadInt32(&counter.maxSeen), int32(2))
		repo.AssertExpectations(t)
	})

	t.Run("Success_NoKeystores", func(t *testing.T) {
		repo := &keystoreMocks.MockKeystoreRepository{}
		cfg := Config{StorageCost: StorageCost{Keystore: 1, Key: 1}, KeyCountConcurrency: 10}
		uc, _ := newTestUseCase(t, repo, nil, cfg)

		repo.On("ListByMeterID", ctx, "meter-1", "", 10).Return([]*keystoreDomain.KeystoreConfig{}, nil).Once()

		usage, err := uc.GetStorageUsage(ctx, "meter-1")

		require.NoError(t, err)
		assert.Equal(t, &keystoreDomain.StorageUsage{MeterID: "meter-1"}, usage)
	})

	t.Run("Error_AbortedBeforeStart", func(t *testing.T) {
		repo := &keystoreMocks.MockKeystoreRepository{}
		uc, _ := newTestUseCase(t, repo, nil, Config{KeyCountConcurrency: 2})
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		usage, err := uc.GetStorageUsage(cancelled, "meter-1")

		assert.Nil(t, usage)
		assert.ErrorIs(t, err, keystoreDomain.ErrStorageUsageAborted)
		assert.Equal(t, "AbortError", apperrors.Describe(err).Name)
		repo.AssertNotCalled(t, "ListByMeterID", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error_AbortedBetweenPages", func(t *testing.T) {
		repo := &keystoreMocks.MockKeystoreRepository{}
		cancelled, cancel := context.WithCancel(ctx)
		defer cancel()
		counter := &countingModule{
			namedModule: namedModule{name: "local-v1"},
			counts:      map[string]int64{},
			onCount:     cancel,
		}
		uc, _ := newTestUseCase(t, repo, module.NewRegistry(counter), Config{KeyCountConcurrency: 2})

		repo.On("ListByMeterID", cancelled, "meter-1", "", 2).Return(configs("a", "b"), nil).Once()

		_, err := uc.GetStorageUsage(cancelled, "meter-1")

		assert.ErrorIs(t, err, keystoreDomain.ErrStorageUsageAborted)
		repo.AssertNumberOfCalls(t, "ListByMeterID", 1)
	})

	t.Run("Error_ModuleWithoutKeyCount", func(t *testing.T) {
		repo := &keystoreMocks.MockKeystoreRepository{}
		uc, _ := newTestUseCase(t, repo, module.NewRegistry(&namedModule{name: "local-v1"}), Config{KeyCountConcurrency: 2})

		repo.On("ListByMeterID", ctx, "meter-1", "", 2).Return(configs("a"), nil).Once()

		_, err := uc.GetStorageUsage(ctx, "meter-1")

		assert.ErrorIs(t, err, keystoreDomain.ErrKeyCountNotSupported)
		assert.Equal(t, "NotFoundError", apperrors.Describe(err).Name)
	})

	t.Run("Error_UnknownModule", func(t *testing.T) {
		repo := &keystoreMocks.MockKeystoreRepository{}
		uc, _ := newTestUseCase(t, repo, module.NewRegistry(), Config{KeyCountConcurrency: 2})

		repo.On("ListByMeterID", ctx, "meter-1", "", 2).Return(configs("a"), nil).Once()

		_, err := uc.GetStorageUsage(ctx, "meter-1")

		assert.ErrorIs(t, err, module.ErrModuleNotFound)
	})

	t.Run("Error_KeyCountFailure", func(t *testing.T) {
		repo := &keystoreMocks.MockKeystoreRepository{}
		countErr := errors.New("count failed")
		counter := &countingModule{namedModule: namedModule{name: "local-v1"}, err: countErr}
		uc, _ := newTestUseCase(t, repo, module.NewRegistry(counter), Config{KeyCountConcurrency: 2})

		repo.On("ListByMeterID", ctx, "meter-1", "", 2).Return(configs("a", "b"), nil).Once()

		_, err := uc.GetStorageUsage(ctx, "meter-1")

		assert.ErrorIs(t, err, countErr)
	})

	t.Run("Error_MissingMeterID", func(t *testing.T) {
		uc, _ := newTestUseCase(t, &keystoreMocks.MockKeystoreRepository{}, nil, Config{})

		_, err := uc.GetStorageUsage(ctx, "")

		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}
