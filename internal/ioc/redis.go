package ioc

import (
	redismetrics "gitee.com/flycash/notification-service/internal/pkg/redis/metrics"
	"gitee.com/flycash/notification-service/internal/service/status"
	"github.com/gotomicro/ego/core/econf"
	"github.com/redis/go-redis/v9"
)

// InitStatusStore 初始化通知状态存储。
// 未配置 redis 地址时退化为空实现，状态查询接口返回未找到。
func InitStatusStore() status.Store {
	type Config struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	}
	var cfg Config
	if err := econf.UnmarshalKey("redis", &cfg); err != nil {
		panic(err)
	}
	if cfg.Addr == "" {
		return status.NewNoopStore()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return status.NewRedisStore(redismetrics.WithMetrics(client))
}
