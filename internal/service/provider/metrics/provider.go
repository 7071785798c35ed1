// Package metrics 为供应商实现添加指标收集的装饰器
package metrics

import (
	"context"
	"time"

	"gitee.com/flycash/notification-service/internal/domain"
	"gitee.com/flycash/notification-service/internal/service/provider"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	statusSucceeded = "SUCCEEDED"
	statusFailed    = "FAILED"
)

// 所有被装饰的供应商共用同一组指标，按 provider/channel 维度区分
var (
	sendDurationSummary = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "provider_send_duration_seconds",
			Help:       "供应商发送通知耗时统计（秒）",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.95: 0.005, 0.99: 0.001},
			MaxAge:     time.Minute * 5,
		},
		[]string{"provider", "channel", "status"},
	)

	sendCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_send_total",
			Help: "供应商发送通知总数",
		},
		[]string{"provider", "channel"},
	)

	sendStatusCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_send_status_total",
			Help: "供应商发送通知状态统计",
		},
		[]string{"provider", "channel", "status"},
	)
)

func init() {
	prometheus.MustRegister(sendDurationSummary, sendCounter, sendStatusCounter)
}

// Provider 为供应商实现添加指标收集的装饰器
type Provider struct {
	provider provider.Provider
	name     string
}

// NewProvider 创建一个新的带有指标收集的供应商
func NewProvider(name string, p provider.Provider) *Provider {
	return &Provider{
		provider: p,
		name:     name,
	}
}

// Send 发送通知并记录指标
func (p *Provider) Send(ctx context.Context, notification domain.Notification, content string) error {
	startTime := time.Now()

	sendCounter.WithLabelValues(
		p.name,
		string(notification.Channel),
	).Inc()

	err := p.provider.Send(ctx, notification, content)

	duration := time.Since(startTime).Seconds()

	status := statusSucceeded
	if err != nil {
		status = statusFailed
	}

	sendStatusCounter.WithLabelValues(
		p.name,
		string(notification.Channel),
		status,
	).Inc()

	sendDurationSummary.WithLabelValues(
		p.name,
		string(notification.Channel),
		status,
	).Observe(duration)

	return err
}
