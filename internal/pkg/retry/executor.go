package retry

import (
	"context"
	"fmt"
	"time"

	"gitee.com/flycash/notification-service/internal/errs"
	"github.com/ecodeclub/ekit/retry"
	"github.com/gotomicro/ego/core/elog"
)

const (
	DefaultMaxAttempts     = 5
	DefaultInitialInterval = time.Second
	DefaultMaxInterval     = 30 * time.Second
)

// Executor 把一次发送包装成带指数退避的有限次重试。
// 退避序列为 initialInterval * 2^(n-1)，到 maxInterval 封顶，不加抖动。
// 任意一次成功立刻返回；全部失败后记录永久失败并返回 ErrRetryExhausted，
// 由调用方决定是否进入死信，消费循环本身不会因此中断。
type Executor struct {
	maxAttempts     int
	initialInterval time.Duration
	maxInterval     time.Duration

	// 测试时替换，免去真实睡眠
	sleep func(ctx context.Context, d time.Duration) error

	logger *elog.Component
}

func NewExecutor(maxAttempts int, initialInterval, maxInterval time.Duration) *Executor {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if initialInterval <= 0 {
		initialInterval = DefaultInitialInterval
	}
	if maxInterval <= 0 {
		maxInterval = DefaultMaxInterval
	}
	return &Executor{
		maxAttempts:     maxAttempts,
		initialInterval: initialInterval,
		maxInterval:     maxInterval,
		sleep:           sleepCtx,
		logger:          elog.DefaultLogger,
	}
}

// Execute 执行 fn 直到成功或尝试次数耗尽。id 仅用于日志关联。
func (e *Executor) Execute(ctx context.Context, id string, fn func(ctx context.Context) error) error {
	// 重试间隔数 = 尝试次数 - 1
	strategy, err := retry.NewExponentialBackoffRetryStrategy(
		e.initialInterval, e.maxInterval, int32(e.maxAttempts-1))
	if err != nil {
		return fmt.Errorf("创建重试策略失败: %w", err)
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		interval, ok := strategy.Next()
		if !ok {
			e.logger.Error("通知发送在重试耗尽后永久失败",
				elog.String("id", id),
				elog.Int("attempts", attempt),
				elog.FieldErr(lastErr))
			return fmt.Errorf("%w: %w", errs.ErrRetryExhausted, lastErr)
		}

		e.logger.Warn("通知发送失败，等待重试",
			elog.String("id", id),
			elog.Int("attempt", attempt),
			elog.Int("maxAttempts", e.maxAttempts),
			elog.Any("backoff", interval.String()),
			elog.FieldErr(lastErr))

		if err := e.sleep(ctx, interval); err != nil {
			// 关停信号，放弃后续尝试
			return err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
