package status

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/notification-service/internal/errs"
	"github.com/redis/go-redis/v9"
)

// Status 通知投递状态
type Status string

const (
	StatusQueued    Status = "queued"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
)

const (
	keyPrefix = "notification:status:"
	// 状态只用于短期排查，不做长期存储
	ttl = 24 * time.Hour
)

// Store 按通知 ID 记录投递状态。
// API 侧入队时写 queued，消费侧按发送结果写 delivered / failed，
// 给调用方在 202 之后留一条查询投递结果的路。
type Store interface {
	Mark(ctx context.Context, id string, status Status) error
	Get(ctx context.Context, id string) (Status, error)
}

// redisStore 基于 redis 的实现
type redisStore struct {
	client redis.Cmdable
}

func NewRedisStore(client redis.Cmdable) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Mark(ctx context.Context, id string, status Status) error {
	err := s.client.Set(ctx, keyPrefix+id, string(status), ttl).Err()
	if err != nil {
		return fmt.Errorf("记录通知状态失败: %w", err)
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, id string) (Status, error) {
	val, err := s.client.Get(ctx, keyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("%w: %s", errs.ErrStatusNotFound, id)
		}
		return "", fmt.Errorf("查询通知状态失败: %w", err)
	}
	return Status(val), nil
}

// noopStore 未配置 redis 时的空实现，状态查询一律返回不存在
type noopStore struct{}

func NewNoopStore() Store {
	return noopStore{}
}

func (noopStore) Mark(context.Context, string, Status) error {
	return nil
}

func (noopStore) Get(_ context.Context, id string) (Status, error) {
	return "", fmt.Errorf("%w: %s", errs.ErrStatusNotFound, id)
}
