package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/railroadmedia/customer-io/internal/usecase"
)

type countingReconciler struct {
	calls atomic.Int32
	err   error
	block chan struct{}
}

func (r *countingReconciler) ReconcileOnce(ctx context.Context) (usecase.ReconcileResult, error) {
	r.calls.Add(1)
	if r.block != nil {
		<-r.block
	}
	return usecase.ReconcileResult{}, r.err
}

func TestReconcileWorker_RunSkipsOverlap(t *testing.T) {
	reconciler := &countingReconciler{block: make(chan struct{})}
	worker := NewReconcileWorker(reconciler, "@every 1h", time.Second, zap.NewNop())

	done := make(chan struct{})
	go func() {
		worker.run()
		close(done)
	}()
	require.Eventually(t, func() bool { return reconciler.calls.Load() == 1 }, time.Second, time.Millisecond)

	worker.run()
	assert.Equal(t, int32(1), reconciler.calls.Load())

	close(reconciler.block)
	<-done
	worker.run()
	assert.Equal(t, int32(2), reconciler.calls.Load())
}

func TestReconcileWorker_RunSurvivesErrors(t *testing.T) {
	reconciler := &countingReconciler{err: errors.New("db down")}
	worker := NewReconcileWorker(reconciler, "@every 1h", 0, zap.NewNop())

	worker.run()
	worker.run()
	assert.Equal(t, int32(2), reconciler.calls.Load())
}

func TestReconcileWorker_StartRejectsBadSchedule(t *testing.T) {
	worker := NewReconcileWorker(&countingReconciler{}, "not a schedule", 0, zap.NewNop())
	assert.Error(t, worker.Start())
}

func TestReconcileWorker_StartStop(t *testing.T) {
	worker := NewReconcileWorker(&countingReconciler{}, "@every 1h", 0, zap.NewNop())
	require.NoError(t, worker.Start())
	worker.Stop()
}
