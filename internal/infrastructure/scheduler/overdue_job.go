package scheduler

import (
	"context"

	"go.uber.org/zap"

	apporder "github.com/inventree/backend/internal/application/order"
)

// OverdueCheckJob is the job name of the daily overdue order check
const OverdueCheckJob = "overdue_order_check"

// OverdueChecker is satisfied by the order application's OverdueService
type OverdueChecker interface {
	Check(ctx context.Context) (*apporder.OverdueResult, error)
}

// NewOverdueCheckExecutor runs the overdue order check as a scheduler job
func NewOverdueCheckExecutor(checker OverdueChecker, logger *zap.Logger) JobExecutor {
	return JobExecutorFunc(func(ctx context.Context, job *Job) error {
		result, err := checker.Check(ctx)
		if err != nil {
			return err
		}
		logger.Info("Overdue order check finished",
			zap.String("job_id", job.ID.String()),
			zap.Int("purchase_orders", result.PurchaseOrders),
			zap.Int("sales_orders", result.SalesOrders),
		)
		return nil
	})
}
