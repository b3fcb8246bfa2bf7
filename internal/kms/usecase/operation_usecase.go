package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/allisson/webkms/internal/cache"
	apperrors "github.com/allisson/webkms/internal/errors"
	kmsDomain "github.com/allisson/webkms/internal/kms/domain"
	"github.com/allisson/webkms/internal/kms/module"
)

// operationUseCase implements OperationUseCase.
type operationUseCase struct {
	repo      KeyRecordRepository
	cache     *cache.Cache[*kmsDomain.KeyRecord]
	keystores KeystoreGetter
	resolver  module.Resolver
	logger    *slog.Logger
	now       func() time.Time
}

// NewOperationUseCase creates the key operation pipeline.
//
// Parameters:
//   - repo: Persistence for key records
//   - recordCache: Cache in front of key record reads
//   - keystores: Source of the owning keystore's controller and module
//   - resolver: Resolves the keystore's module by name
//   - logger: Receives module failures before they are returned
func NewOperationUseCase(
	repo KeyRecordRepository,
	recordCache *cache.Cache[*kmsDomain.KeyRecord],
	keystores KeystoreGetter,
	resolver module.Resolver,
	logger *slog.Logger,
) OperationUseCase {
	return &operationUseCase{
		repo:      repo,
		cache:     recordCache,
		keystores: keystores,
		resolver:  resolver,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run executes op.
//
// A generate reserves the key id by inserting a pending record before the module
// is called and clears the flag once the module succeeds. A pending record left
// by an interrupted generate is invisible to every other operation and is
// completed by retrying the same generate.
func (o *operationUseCase) Run(ctx context.Context, op *kmsDomain.Operation) (kmsDomain.Result, error) {
	if op.Type.MethodName() == "" {
		return nil, fmt.Errorf("%w: %q", kmsDomain.ErrUnknownOperationType, op.Type)
	}
	controller := op.Controller()
	if controller == "" {
		return nil, kmsDomain.ErrMissingVerificationMethod
	}

	keyID := op.InvocationTarget.ID
	keystoreID, _, err := kmsDomain.ParseKeyID(keyID)
	if err != nil {
		return nil, err
	}
	generate := op.IsGenerate()

	record, err := o.getRecord(ctx, keyID)
	if err != nil {
		if !generate || !errors.Is(err, kmsDomain.ErrKeyNotFound) {
			return nil, err
		}
		record = nil
	}

	recovering := record != nil && record.Meta.Pending
	if recovering && !generate {
		return nil, kmsDomain.ErrKeyNotFound
	}

	keystore, err := o.keystores.Get(ctx, keystoreID)
	if err != nil {
		return nil, err
	}
	if keystore.Config.Controller != controller {
		return nil, kmsDomain.ErrNotAllowed
	}

	if generate {
		if record != nil && !record.Meta.Pending {
			return nil, kmsDomain.ErrDuplicateKey
		}
		if record == nil {
			record, recovering, err = o.reserve(ctx, op, keystoreID, controller)
			if err != nil {
				return nil, err
			}
		}
	}

	m, err := o.resolver.Resolve(keystore.Config.KMSModule)
	if err != nil {
		return nil, err
	}
	method, ok := module.Method(m, op.Type)
	if !ok {
		return nil, fmt.Errorf(
			"%w: module %q has no %s method",
			kmsDomain.ErrOperationNotSupported,
			m.Name(),
			op.Type.MethodName(),
		)
	}

	req := module.Request{
		KeyID:      keyID,
		KeystoreID: keystoreID,
		Controller: controller,
		Operation:  op,
	}
	result, err := method(ctx, req)
	if err != nil {
		if !(generate && recovering && errors.Is(err, apperrors.ErrConflict)) {
			o.logger.Error("key operation failed",
				slog.String("key_id", keyID),
				slog.String("operation", string(op.Type)),
				slog.String("kms_module", m.Name()),
				slog.String("error", err.Error()))
			return nil, err
		}

		o.logger.Info("key generation already completed by module, committing pending record",
			slog.String("key_id", keyID))
		result, err = o.describeGenerated(ctx, m, req, record)
		if err != nil {
			return nil, err
		}
	}

	if generate {
		return o.commit(ctx, record, result, controller)
	}

	return result, nil
}

// describeGenerated returns the description of a key the module generated before
// its record was committed. Modules without KeyDescriber fall back to the
// reserved description.
func (o *operationUseCase) describeGenerated(
	ctx context.Context,
	m module.Module,
	req module.Request,
	record *kmsDomain.KeyRecord,
) (kmsDomain.Result, error) {
	describer, ok := m.(module.KeyDescriber)
	if !ok {
		return describe(record, req.Controller), nil
	}

	result, err := describer.DescribeKey(ctx, req)
	if err != nil {
		o.logger.Error("failed to describe generated key",
			slog.String("key_id", req.KeyID),
			slog.String("kms_module", m.Name()),
			slog.String("error", err.Error()))
		return nil, err
	}
	return result, nil
}

// getRecord reads a key record through the cache. Pending records are not kept
// in the cache so their commit is observed on the next read.
func (o *operationUseCase) getRecord(ctx context.Context, keyID string) (*kmsDomain.KeyRecord, error) {
	record, err := o.cache.Memoize(ctx, keyID, func(ctx context.Context) (*kmsDomain.KeyRecord, error) {
		return o.repo.Get(ctx, keyID)
	})
	if err != nil {
		return nil, err
	}
	if record.Meta.Pending {
		o.cache.Delete(keyID)
	}
	return record.Clone(), nil
}

// reserve inserts a pending record for a generate. When a concurrent generate won
// the insert, the winner's record is re-read: a confirmed record is a duplicate and
// a pending one puts this call in recovery.
func (o *operationUseCase) reserve(
	ctx context.Context,
	op *kmsDomain.Operation,
	keystoreID, controller string,
) (*kmsDomain.KeyRecord, bool, error) {
	now := o.now()
	record := &kmsDomain.KeyRecord{
		ID:         op.InvocationTarget.ID,
		KeystoreID: keystoreID,
		Key: kmsDomain.KeyDescription{
			"id":         op.InvocationTarget.ID,
			"type":       op.InvocationTarget.Type,
			"controller": controller,
		},
		Meta: kmsDomain.RecordMeta{Created: now, Updated: now, Pending: true},
	}

	err := o.repo.Create(ctx, record)
	if err == nil {
		return record, false, nil
	}
	if !errors.Is(err, kmsDomain.ErrDuplicateKey) {
		return nil, false, err
	}

	o.cache.Delete(record.ID)
	existing, err := o.repo.Get(ctx, record.ID)
	if err != nil {
		return nil, false, err
	}
	if !existing.Meta.Pending {
		return nil, false, kmsDomain.ErrDuplicateKey
	}
	return existing, true, nil
}

// commit clears the pending flag and records the public description returned by the
// module. When another generate confirmed the record first, its stored description
// is kept and returned.
func (o *operationUseCase) commit(
	ctx context.Context,
	record *kmsDomain.KeyRecord,
	result kmsDomain.Result,
	controller string,
) (kmsDomain.Result, error) {
	committed := record.Clone()
	for k, v := range result {
		committed.Key[k] = v
	}
	committed.Meta.Pending = false

	confirmed, err := o.repo.Confirm(ctx, committed, o.now())
	o.cache.Delete(record.ID)
	if err != nil {
		return nil, err
	}
	if confirmed {
		return result, nil
	}

	o.logger.Info("key record already confirmed, returning stored description",
		slog.String("key_id", record.ID))
	stored, err := o.repo.Get(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	return describe(stored, controller), nil
}

// describe returns the stored description of a key with the keystore's current controller.
func describe(record *kmsDomain.KeyRecord, controller string) kmsDomain.Result {
	result := make(kmsDomain.Result, len(record.Key))
	for k, v := range record.Key {
		result[k] = v
	}
	result["controller"] = controller
	return result
}
