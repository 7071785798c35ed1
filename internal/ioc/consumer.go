package ioc

import (
	"net/http"
	"time"

	"gitee.com/flycash/notification-service/internal/event/notification"
	"gitee.com/flycash/notification-service/internal/pkg/mqx"
	"gitee.com/flycash/notification-service/internal/pkg/retry"
	"gitee.com/flycash/notification-service/internal/service/template"
	"github.com/gin-gonic/gin"
	"github.com/gotomicro/ego/core/econf"
	"github.com/gotomicro/ego/server/egin"
)

// RetryConfig 投递失败的重试参数，零值时使用内置默认值。
type RetryConfig struct {
	MaxAttempts     int           `yaml:"maxAttempts"`
	InitialInterval time.Duration `yaml:"initialInterval"`
	MaxInterval     time.Duration `yaml:"maxInterval"`
}

func InitRetryExecutor() *retry.Executor {
	var cfg RetryConfig
	if err := econf.UnmarshalKey("consumer.retry", &cfg); err != nil {
		panic(err)
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = retry.DefaultMaxAttempts
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = retry.DefaultInitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = retry.DefaultMaxInterval
	}
	return retry.NewExecutor(cfg.MaxAttempts, cfg.InitialInterval, cfg.MaxInterval)
}

func InitResolver() *template.Resolver {
	type Config struct {
		Dirs []string `yaml:"dirs"`
	}
	var cfg Config
	if err := econf.UnmarshalKey("template", &cfg); err != nil {
		panic(err)
	}
	return template.NewResolver(cfg.Dirs)
}

// InitEventConsumer 组装消费侧的完整流水线。
func InitEventConsumer() *notification.EventConsumer {
	cfg := initMQConfig()

	var (
		consumer   = initConsumer(cfg)
		dlProducer notification.Producer
	)
	if cfg.DeadLetterTopic != "" && !cfg.Mock {
		dlProducer = notification.NewEventProducer(initKafkaProducer(cfg.Kafka), cfg.DeadLetterTopic)
	}
	return notification.NewEventConsumer(
		consumer,
		InitDispatcher(),
		InitResolver(),
		InitRetryExecutor(),
		dlProducer,
		InitStatusStore(),
	)
}

func initConsumer(cfg MQConfig) mqx.Consumer {
	if cfg.Mock {
		c, err := InitMemoryMQ(cfg).Consumer("notification-consumer")
		if err != nil {
			panic(err)
		}
		return c
	}
	return initKafkaConsumer(cfg.Kafka, cfg.Topic)
}

// InitConsumerServer 提供消费者进程的健康检查端口。
func InitConsumerServer() *egin.Component {
	server := egin.Load("consumer.http").Build()
	server.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})
	return server
}
