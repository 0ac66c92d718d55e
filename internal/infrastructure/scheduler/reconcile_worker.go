package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron"
	"go.uber.org/zap"

	"github.com/railroadmedia/customer-io/internal/usecase"
)

const reconcileWorkerName = "PendingSyncReconcileWorker"

type Reconciler interface {
	ReconcileOnce(ctx context.Context) (usecase.ReconcileResult, error)
}

// ReconcileWorker runs the pending sync reconciler on a cron schedule. A run
// is skipped while the previous one is still going.
type ReconcileWorker struct {
	reconciler Reconciler
	schedule   string
	timeout    time.Duration
	cron       *cron.Cron
	running    sync.Mutex
	logger     *zap.Logger
}

func NewReconcileWorker(reconciler Reconciler, schedule string, timeout time.Duration, logger *zap.Logger) *ReconcileWorker {
	return &ReconcileWorker{
		reconciler: reconciler,
		schedule:   schedule,
		timeout:    timeout,
		cron:       cron.New(),
		logger:     logger.Named(reconcileWorkerName),
	}
}

func (w *ReconcileWorker) Start() error {
	if err := w.cron.AddFunc(w.schedule, w.run); err != nil {
		return fmt.Errorf("could not schedule %s with %q: %w", reconcileWorkerName, w.schedule, err)
	}
	w.cron.Start()
	w.logger.Info("Reconcile worker started", zap.String("schedule", w.schedule))
	return nil
}

func (w *ReconcileWorker) Stop() {
	w.cron.Stop()
	// wait for an in-flight run
	w.running.Lock()
	defer w.running.Unlock()
	w.logger.Info("Reconcile worker stopped")
}

func (w *ReconcileWorker) run() {
	if !w.running.TryLock() {
		w.logger.Debug("Previous reconcile still running, skipping")
		return
	}
	defer w.running.Unlock()

	ctx := context.Background()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	if _, err := w.reconciler.ReconcileOnce(ctx); err != nil {
		w.logger.Error("Reconcile run failed", zap.Error(err))
	}
}
