package ioc

import (
	"sync"
	"time"

	"gitee.com/flycash/notification-service/internal/event/notification"
	"gitee.com/flycash/notification-service/internal/pkg/mqx"
	"github.com/ecodeclub/ekit/retry"
	"github.com/gotomicro/ego/core/econf"
	"github.com/gotomicro/ego/core/elog"
)

// MQConfig 描述投递管道使用的消息队列。
// mock 为 true 时使用进程内内存队列，方便本地开发与测试；
// 否则连接真实的 Kafka 集群。
type MQConfig struct {
	Mock            bool            `yaml:"mock"`
	Topic           string          `yaml:"topic"`
	DeadLetterTopic string          `yaml:"deadLetterTopic"`
	Kafka           mqx.KafkaConfig `yaml:"kafka"`
}

var (
	memoryMQ     *mqx.MemoryMQ
	memoryMQOnce sync.Once
)

func initMQConfig() MQConfig {
	var cfg MQConfig
	if err := econf.UnmarshalKey("mq", &cfg); err != nil {
		panic(err)
	}
	if cfg.Topic == "" {
		cfg.Topic = notification.EventName
	}
	return cfg
}

// InitMemoryMQ 返回进程内共享的内存队列，mock 模式下生产者和消费者都挂在它上面。
func InitMemoryMQ(cfg MQConfig) *mqx.MemoryMQ {
	memoryMQOnce.Do(func() {
		mq, err := mqx.NewMemoryMQ(cfg.Topic)
		if err != nil {
			panic(err)
		}
		memoryMQ = mq
	})
	return memoryMQ
}

// initKafkaProducer 带指数退避地创建 Kafka 生产者，容忍 broker 晚于服务启动。
func initKafkaProducer(cfg mqx.KafkaConfig) *mqx.KafkaProducer {
	const (
		maxInterval = 10 * time.Second
		maxRetries  = 10
	)
	strategy, err := retry.NewExponentialBackoffRetryStrategy(time.Second, maxInterval, maxRetries)
	if err != nil {
		panic(err)
	}
	for {
		p, perr := mqx.NewKafkaProducer(cfg)
		if perr == nil {
			return p
		}
		next, ok := strategy.Next()
		if !ok {
			elog.Panic("创建 Kafka 生产者失败", elog.FieldErr(perr))
		}
		elog.Warn("创建 Kafka 生产者失败，准备重试",
			elog.FieldErr(perr),
			elog.Any("backoff", next.String()))
		time.Sleep(next)
	}
}

func initKafkaConsumer(cfg mqx.KafkaConfig, topic string) *mqx.KafkaConsumer {
	c, err := mqx.NewKafkaConsumer(cfg, topic)
	if err != nil {
		elog.Panic("创建 Kafka 消费者失败", elog.FieldErr(err))
	}
	return c
}
