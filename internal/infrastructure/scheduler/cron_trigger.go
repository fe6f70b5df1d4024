package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DailyTriggerConfig holds configuration for the daily trigger
type DailyTriggerConfig struct {
	// JobName is the scheduler job submitted once per calendar day
	JobName string
	// CheckInterval is how often the trigger looks at the clock
	CheckInterval time.Duration
}

// DailyTrigger submits a job at most once per calendar day. The first check
// happens immediately on Start, so a restarted server catches up.
type DailyTrigger struct {
	config    DailyTriggerConfig
	scheduler *Scheduler
	logger    *zap.Logger
	now       func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewDailyTrigger creates a new daily trigger
func NewDailyTrigger(config DailyTriggerConfig, scheduler *Scheduler, logger *zap.Logger) *DailyTrigger {
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Hour
	}
	return &DailyTrigger{
		config:    config,
		scheduler: scheduler,
		logger:    logger,
		now:       time.Now,
	}
}

// Start starts the trigger loop
func (c *DailyTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isRunning {
		return nil
	}
	c.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Daily trigger started",
		zap.String("job", c.config.JobName),
		zap.Duration("check_interval", c.config.CheckInterval),
	)
	return nil
}

// Stop stops the trigger loop
func (c *DailyTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	c.cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *DailyTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	c.checkAndTrigger()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger()
		}
	}
}

// checkAndTrigger submits the job unless it already ran today
func (c *DailyTrigger) checkAndTrigger() bool {
	today := c.now().Format(time.DateOnly)

	c.mu.Lock()
	if c.lastRunDate == today {
		c.mu.Unlock()
		return false
	}
	c.mu.Unlock()

	if _, err := c.scheduler.Submit(c.config.JobName); err != nil {
		c.logger.Error("Failed to submit daily job", zap.String("job", c.config.JobName), zap.Error(err))
		return false
	}

	c.mu.Lock()
	c.lastRunDate = today
	c.mu.Unlock()
	return true
}
