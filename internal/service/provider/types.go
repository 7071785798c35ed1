package provider

import (
	"context"

	"gitee.com/flycash/notification-service/internal/domain"
)

// Provider 渠道供应商抽象：把渲染好的内容投递到外部通道。
// 消费侧只依赖这个能力，不关心具体的传输实现。
type Provider interface {
	Send(ctx context.Context, notification domain.Notification, content string) error
}
