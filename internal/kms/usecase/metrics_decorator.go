package usecase

import (
	"context"
	"time"

	kmsDomain "github.com/allisson/webkms/internal/kms/domain"
	"github.com/allisson/webkms/internal/metrics"
)

// operationUseCaseWithMetrics decorates OperationUseCase with metrics instrumentation.
type operationUseCaseWithMetrics struct {
	next    OperationUseCase
	metrics metrics.BusinessMetrics
}

// NewOperationUseCaseWithMetrics wraps an OperationUseCase with metrics recording.
// Operations are recorded under the "kms" domain by module method name.
func NewOperationUseCaseWithMetrics(useCase OperationUseCase, m metrics.BusinessMetrics) OperationUseCase {
	return &operationUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Run records metrics for key operations.
func (o *operationUseCaseWithMetrics) Run(ctx context.Context, op *kmsDomain.Operation) (kmsDomain.Result, error) {
	start := time.Now()
	result, err := o.next.Run(ctx, op)

	status := "success"
	if err != nil {
		status = "error"
	}

	operation := op.Type.MethodName()
	if operation == "" {
		operation = "unknown"
	}

	o.metrics.RecordOperation(ctx, "kms", operation, status)
	o.metrics.RecordDuration(ctx, "kms", operation, time.Since(start), status)

	return result, err
}
