package notification

import (
	"context"
	"encoding/json"
	"errors"

	"gitee.com/flycash/notification-service/internal/domain"
	"gitee.com/flycash/notification-service/internal/pkg/mqx"
	"gitee.com/flycash/notification-service/internal/pkg/retry"
	"gitee.com/flycash/notification-service/internal/service/channel"
	"gitee.com/flycash/notification-service/internal/service/status"
	"gitee.com/flycash/notification-service/internal/service/template"
	"github.com/gotomicro/ego/core/elog"
)

// EventConsumer 通知事件消费者。每条消息走完 解析 → 渲染 → 分发 → 重试
// 的完整流水线之后才处理下一条，单条消息的任何失败都不会中断消费循环。
type EventConsumer struct {
	consumer   mqx.Consumer
	dispatcher *channel.Dispatcher
	resolver   *template.Resolver
	executor   *retry.Executor

	// 为 nil 时重试耗尽的通知直接丢弃
	dlProducer Producer
	store      status.Store

	logger *elog.Component
}

func NewEventConsumer(
	consumer mqx.Consumer,
	dispatcher *channel.Dispatcher,
	resolver *template.Resolver,
	executor *retry.Executor,
	dlProducer Producer,
	store status.Store,
) *EventConsumer {
	return &EventConsumer{
		consumer:   consumer,
		dispatcher: dispatcher,
		resolver:   resolver,
		executor:   executor,
		dlProducer: dlProducer,
		store:      store,
		logger:     elog.DefaultLogger,
	}
}

func (c *EventConsumer) Start(ctx context.Context) {
	go func() {
		for {
			er := c.Consume(ctx)
			if er == nil {
				continue
			}
			if errors.Is(er, context.Canceled) || errors.Is(er, context.DeadlineExceeded) {
				return
			}
			c.logger.Error("消费通知事件失败", elog.FieldErr(er))
		}
	}()
}

// Consume 读取并处理一条消息，处理完成后提交消费进度。
// 至少一次语义：崩溃重启后同一条消息可能再次出现。
func (c *EventConsumer) Consume(ctx context.Context) error {
	msg, err := c.consumer.ReadMessage(ctx)
	if err != nil {
		return err
	}

	c.handleMessage(ctx, msg)

	if err := c.consumer.Commit(); err != nil {
		c.logger.Warn("提交消费进度失败", elog.FieldErr(err))
	}
	return nil
}

func (c *EventConsumer) handleMessage(ctx context.Context, msg *mqx.Message) {
	var n domain.Notification
	if err := json.Unmarshal(msg.Value, &n); err != nil {
		// 同样的字节重试多少次都解不出来，记日志后跳过
		c.logger.Warn("解析消息失败，跳过",
			elog.FieldErr(err),
			elog.String("key", string(msg.Key)),
			elog.Any("offset", msg.Offset))
		return
	}

	c.logger.Info("收到通知事件",
		elog.String("id", n.ID),
		elog.String("channel", string(n.Channel)),
		elog.String("to", n.To))

	p, err := c.dispatcher.Provider(n.Channel)
	if err != nil {
		c.logger.Warn("未知渠道，跳过",
			elog.String("id", n.ID),
			elog.FieldErr(err))
		return
	}

	content := c.resolver.Render(n.Template, n.Channel, n.Data)

	err = c.executor.Execute(ctx, n.ID, func(ctx context.Context) error {
		return p.Send(ctx, n, content)
	})
	if err == nil {
		c.markStatus(ctx, n.ID, status.StatusDelivered)
		c.logger.Info("通知发送成功", elog.String("id", n.ID))
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// 关停途中，吞掉这条；未提交的进度会在下次启动时重放
		return
	}

	c.markStatus(ctx, n.ID, status.StatusFailed)
	c.deadLetter(ctx, n)
}

func (c *EventConsumer) deadLetter(ctx context.Context, n domain.Notification) {
	if c.dlProducer == nil {
		return
	}
	if err := c.dlProducer.Produce(ctx, n); err != nil {
		c.logger.Error("投递死信失败",
			elog.String("id", n.ID),
			elog.FieldErr(err))
		return
	}
	c.logger.Info("通知已转入死信", elog.String("id", n.ID))
}

func (c *EventConsumer) markStatus(ctx context.Context, id string, s status.Status) {
	if err := c.store.Mark(ctx, id, s); err != nil {
		c.logger.Warn("记录通知状态失败",
			elog.String("id", id),
			elog.FieldErr(err))
	}
}

func (c *EventConsumer) Close() error {
	return c.consumer.Close()
}
