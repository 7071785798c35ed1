package metrics

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

var (
	commandCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_redis_commands_total",
			Help: "Total number of Redis commands issued by the status store",
		},
		[]string{"command", "status"},
	)

	commandDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "notification_redis_command_duration_seconds",
			Help:       "Redis command execution time in seconds",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"command"},
	)

	connectionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_redis_connections_total",
			Help: "Total number of Redis connections created",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(commandCounter, commandDuration, connectionCounter)
}

// Hook 为状态存储的 redis 客户端采集命令与连接指标。
// 状态存储只有单条 GET/SET，不走管道，所以不采集管道指标。
type Hook struct{}

func NewMetricsHook() *Hook {
	return &Hook{}
}

func (h *Hook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		commandDuration.WithLabelValues(cmd.Name()).Observe(time.Since(start).Seconds())

		// redis.Nil 是"键不存在"，对状态查询来说是正常结果
		status := statusSuccess
		if err != nil && !errors.Is(err, redis.Nil) {
			status = statusError
		}
		commandCounter.WithLabelValues(cmd.Name(), status).Inc()
		return err
	}
}

func (h *Hook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (h *Hook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		status := statusSuccess
		if err != nil {
			status = statusError
		}
		connectionCounter.WithLabelValues(status).Inc()
		return conn, err
	}
}

// WithMetrics 给 redis 客户端挂上指标钩子
func WithMetrics(client *redis.Client) *redis.Client {
	client.AddHook(NewMetricsHook())
	return client
}
