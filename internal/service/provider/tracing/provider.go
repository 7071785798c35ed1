package tracing

import (
	"context"

	"gitee.com/flycash/notification-service/internal/domain"
	"gitee.com/flycash/notification-service/internal/service/provider"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Provider 为供应商实现添加链路追踪的装饰器
type Provider struct {
	provider provider.Provider
	tracer   trace.Tracer
}

// NewProvider 创建一个新的带有链路追踪的供应商
func NewProvider(p provider.Provider) *Provider {
	return &Provider{
		provider: p,
		tracer:   otel.Tracer("notification-service/provider"),
	}
}

func (p *Provider) Send(ctx context.Context, notification domain.Notification, content string) error {
	ctx, span := p.tracer.Start(ctx, "Provider.Send",
		trace.WithAttributes(
			attribute.String("notification.id", notification.ID),
			attribute.String("notification.to", notification.To),
			attribute.String("notification.channel", string(notification.Channel)),
			attribute.String("notification.template", notification.Template),
		))
	defer span.End()

	err := p.provider.Send(ctx, notification, content)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return err
}
