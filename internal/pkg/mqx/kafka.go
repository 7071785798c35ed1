package mqx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/notification-service/internal/errs"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/gotomicro/ego/core/elog"
)

const (
	deliveryTimeout = 10 * time.Second
	pollTimeout     = time.Second
)

// KafkaConfig kafka 连接配置
type KafkaConfig struct {
	Brokers       string `yaml:"brokers"`
	ClientID      string `yaml:"clientID"`
	GroupID       string `yaml:"groupID"`
	SASLMechanism string `yaml:"saslMechanism"`
	SASLUsername  string `yaml:"saslUsername"`
	SASLPassword  string `yaml:"saslPassword"`
	SSLCALocation string `yaml:"sslCALocation"`
}

func (c KafkaConfig) producerConfigMap() *kafka.ConfigMap {
	cm := &kafka.ConfigMap{
		"bootstrap.servers": c.Brokers,
		"client.id":         c.ClientID,
	}
	c.fillSASL(cm)
	return cm
}

func (c KafkaConfig) consumerConfigMap() *kafka.ConfigMap {
	cm := &kafka.ConfigMap{
		"bootstrap.servers":  c.Brokers,
		"group.id":           c.GroupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	}
	c.fillSASL(cm)
	return cm
}

func (c KafkaConfig) fillSASL(cm *kafka.ConfigMap) {
	if c.SASLUsername == "" {
		return
	}
	_ = cm.SetKey("security.protocol", "sasl_ssl")
	_ = cm.SetKey("sasl.mechanism", c.SASLMechanism)
	_ = cm.SetKey("sasl.username", c.SASLUsername)
	_ = cm.SetKey("sasl.password", c.SASLPassword)
	if c.SSLCALocation != "" {
		_ = cm.SetKey("ssl.ca.location", c.SSLCALocation)
	}
}

// KafkaProducer 基于 confluent-kafka-go 的生产者实现
type KafkaProducer struct {
	producer *kafka.Producer
	logger   *elog.Component
}

func NewKafkaProducer(cfg KafkaConfig) (*KafkaProducer, error) {
	p, err := kafka.NewProducer(cfg.producerConfigMap())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrCreateProducerFailed, err)
	}
	return &KafkaProducer{
		producer: p,
		logger:   elog.DefaultLogger,
	}, nil
}

// Produce 同步投递一条消息，等待 broker 的投递回执
func (p *KafkaProducer) Produce(ctx context.Context, msg *Message) error {
	deliveryCh := make(chan kafka.Event, 1)
	err := p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &msg.Topic,
			Partition: kafka.PartitionAny,
		},
		Key:   msg.Key,
		Value: msg.Value,
	}, deliveryCh)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrPublishFailed, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(deliveryTimeout):
		return fmt.Errorf("%w: 等待投递回执超时", errs.ErrPublishFailed)
	case evt := <-deliveryCh:
		m, ok := evt.(*kafka.Message)
		if !ok {
			return fmt.Errorf("%w: 非预期的事件类型 %T", errs.ErrPublishFailed, evt)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("%w: %w", errs.ErrPublishFailed, m.TopicPartition.Error)
		}
		return nil
	}
}

func (p *KafkaProducer) Close() error {
	p.producer.Flush(int(deliveryTimeout / time.Millisecond))
	p.producer.Close()
	return nil
}

// KafkaConsumer 基于 confluent-kafka-go 的消费者实现
type KafkaConsumer struct {
	consumer *kafka.Consumer
}

func NewKafkaConsumer(cfg KafkaConfig, topic string) (*KafkaConsumer, error) {
	c, err := kafka.NewConsumer(cfg.consumerConfigMap())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrCreateConsumerFailed, err)
	}
	if err = c.SubscribeTopics([]string{topic}, nil); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("%w: %w", errs.ErrCreateConsumerFailed, err)
	}
	return &KafkaConsumer{consumer: c}, nil
}

// ReadMessage 阻塞读取一条消息。内部用短超时轮询，保证能及时响应 ctx 取消。
func (c *KafkaConsumer) ReadMessage(ctx context.Context) (*Message, error) {
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		msg, err := c.consumer.ReadMessage(pollTimeout)
		if err != nil {
			var kErr kafka.Error
			if errors.As(err, &kErr) && kErr.Code() == kafka.ErrTimedOut {
				continue
			}
			return nil, fmt.Errorf("获取消息失败: %w", err)
		}
		return &Message{
			Topic:     *msg.TopicPartition.Topic,
			Key:       msg.Key,
			Value:     msg.Value,
			Partition: msg.TopicPartition.Partition,
			Offset:    int64(msg.TopicPartition.Offset),
		}, nil
	}
}

// Commit 提交当前已读取消息的 offset
func (c *KafkaConsumer) Commit() error {
	_, err := c.consumer.Commit()
	if err != nil {
		var kErr kafka.Error
		// 尚未读到任何消息时提交会返回 ErrNoOffset，不算错误
		if errors.As(err, &kErr) && kErr.Code() == kafka.ErrNoOffset {
			return nil
		}
		return err
	}
	return nil
}

func (c *KafkaConsumer) Close() error {
	return c.consumer.Close()
}
