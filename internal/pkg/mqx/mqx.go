package mqx

import (
	"context"
)

// Message 在生产者和消费者之间流转的消息。
// Key 是分区键，这里约定为通知的 ID，保证同一个幂等键落在确定的分区上。
type Message struct {
	Topic     string
	Key       []byte
	Value     []byte
	Partition int32
	Offset    int64
}

// Producer 消息生产者抽象，kafka 与内存队列各有一个实现
type Producer interface {
	Produce(ctx context.Context, msg *Message) error
	Close() error
}

// Consumer 消息消费者抽象。
// ReadMessage 阻塞到拿到一条消息或 ctx 被取消；
// Commit 在处理完一条消息之后调用，提交消费进度（至少一次语义）。
type Consumer interface {
	ReadMessage(ctx context.Context) (*Message, error)
	Commit() error
	Close() error
}
