package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"gitee.com/flycash/notification-service/internal/domain"
	"gitee.com/flycash/notification-service/internal/errs"
	"gitee.com/flycash/notification-service/internal/pkg/mqx"
)

// Producer 通知事件生产者
type Producer interface {
	Produce(ctx context.Context, notification domain.Notification) error
}

type EventProducer struct {
	producer mqx.Producer
	topic    string
}

func NewEventProducer(producer mqx.Producer, topic string) *EventProducer {
	if topic == "" {
		topic = EventName
	}
	return &EventProducer{
		producer: producer,
		topic:    topic,
	}
}

// Produce 把通知序列化后投递到 topic。
// 消息 Key 用通知 ID，同一个幂等键的重复投递会落在同一个分区，
// 下游可以据此去重。投递失败原样抛给调用方，由 API 边界映射成 500。
func (p *EventProducer) Produce(ctx context.Context, notification domain.Notification) error {
	val, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("%w: 序列化消息失败: %w", errs.ErrPublishFailed, err)
	}
	return p.producer.Produce(ctx, &mqx.Message{
		Topic: p.topic,
		Key:   []byte(notification.ID),
		Value: val,
	})
}
