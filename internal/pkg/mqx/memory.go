package mqx

import (
	"context"
	"fmt"
	"sync"

	"gitee.com/flycash/notification-service/internal/errs"
	"github.com/ecodeclub/mq-api"
	"github.com/ecodeclub/mq-api/memory"
)

const defaultPartitions = 1

// MemoryMQ 内存消息队列，mock 模式下替代 kafka。
// 仅用于本地开发与测试，进程重启后消息全部丢失。
// 额外记录一份已投递的消息列表，供 /queue 调试接口查询。
type MemoryMQ struct {
	q     mq.MQ
	topic string

	mu      sync.RWMutex
	pending []*Message
}

func NewMemoryMQ(topic string) (*MemoryMQ, error) {
	q := memory.NewMQ()
	err := q.CreateTopic(context.Background(), topic, defaultPartitions)
	if err != nil {
		return nil, fmt.Errorf("创建内存topic失败: %w", err)
	}
	return &MemoryMQ{q: q, topic: topic}, nil
}

// Pending 返回已投递消息的副本
func (m *MemoryMQ) Pending() []*Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]*Message, len(m.pending))
	copy(res, m.pending)
	return res
}

func (m *MemoryMQ) append(msg *Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, msg)
}

func (m *MemoryMQ) Close() error {
	return m.q.Close()
}

func (m *MemoryMQ) Producer() (*MemoryProducer, error) {
	p, err := m.q.Producer(m.topic)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrCreateProducerFailed, err)
	}
	return &MemoryProducer{mq: m, producer: p}, nil
}

func (m *MemoryMQ) Consumer(groupID string) (*MemoryConsumer, error) {
	c, err := m.q.Consumer(m.topic, groupID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrCreateConsumerFailed, err)
	}
	return &MemoryConsumer{consumer: c}, nil
}

// MemoryProducer 内存队列生产者
type MemoryProducer struct {
	mq       *MemoryMQ
	producer mq.Producer
}

func (p *MemoryProducer) Produce(ctx context.Context, msg *Message) error {
	_, err := p.producer.Produce(ctx, &mq.Message{
		Topic: msg.Topic,
		Key:   msg.Key,
		Value: msg.Value,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrPublishFailed, err)
	}
	p.mq.append(msg)
	return nil
}

func (p *MemoryProducer) Close() error {
	return p.producer.Close()
}

// MemoryConsumer 内存队列消费者
type MemoryConsumer struct {
	consumer mq.Consumer

	once  sync.Once
	msgCh <-chan *mq.Message
	chErr error
}

func (c *MemoryConsumer) ReadMessage(ctx context.Context) (*Message, error) {
	c.once.Do(func() {
		c.msgCh, c.chErr = c.consumer.ConsumeChan(ctx)
	})
	if c.chErr != nil {
		return nil, fmt.Errorf("获取消息失败: %w", c.chErr)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case msg, ok := <-c.msgCh:
		if !ok {
			return nil, fmt.Errorf("获取消息失败: 消费通道已关闭")
		}
		return &Message{
			Topic:     msg.Topic,
			Key:       msg.Key,
			Value:     msg.Value,
			Partition: int32(msg.Partition),
			Offset:    msg.Offset,
		}, nil
	}
}

// Commit 内存队列由消费组内部维护进度，这里无事可做
func (c *MemoryConsumer) Commit() error {
	return nil
}

func (c *MemoryConsumer) Close() error {
	return c.consumer.Close()
}
