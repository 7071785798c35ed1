package channel

import (
	"context"
	"fmt"

	"gitee.com/flycash/notification-service/internal/domain"
	"gitee.com/flycash/notification-service/internal/errs"
	"gitee.com/flycash/notification-service/internal/service/provider"
)

// Dispatcher 渠道分发器，按通知的渠道挑选对应的供应商，对外伪装成 Provider
type Dispatcher struct {
	providers map[domain.Channel]provider.Provider
}

// NewDispatcher 创建渠道分发器
func NewDispatcher(providers map[domain.Channel]provider.Provider) *Dispatcher {
	return &Dispatcher{providers: providers}
}

// Provider 返回渠道对应的供应商。
// 未知渠道在 API 边界就该被拒掉，这里是兜底，调用方记日志跳过即可，不重试。
func (d *Dispatcher) Provider(ch domain.Channel) (provider.Provider, error) {
	p, ok := d.providers[ch]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrUnknownChannel, ch)
	}
	return p, nil
}

func (d *Dispatcher) Send(ctx context.Context, notification domain.Notification, content string) error {
	p, err := d.Provider(notification.Channel)
	if err != nil {
		return err
	}
	return p.Send(ctx, notification, content)
}
