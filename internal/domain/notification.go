package domain

import (
	"fmt"
	"time"

	"gitee.com/flycash/notification-service/internal/errs"
	"github.com/gofrs/uuid"
	"github.com/hashicorp/go-multierror"
)

// Channel 通知渠道
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

func (c Channel) IsValid() bool {
	return c == ChannelEmail || c == ChannelSMS
}

// Notification 通知领域模型，也是消息队列里流转的消息体。
// 字段集合必须能无损地经过 JSON 序列化往返。
type Notification struct {
	// 业务方传入的幂等键，没传则生成 UUID。
	// 同一个逻辑请求重复提交时 ID 不变，作为消息 Key 与日志关联标识。
	ID        string         `json:"id"`
	To        string         `json:"to"`
	Channel   Channel        `json:"channel"`
	Template  string         `json:"template"`
	Data      map[string]any `json:"data"`
	Timestamp int64          `json:"timestamp"`
}

// NewNotification 构造通知，id 为空时生成 UUID
func NewNotification(id, to string, channel Channel, template string, data map[string]any) (Notification, error) {
	if id == "" {
		uid, err := uuid.NewV4()
		if err != nil {
			return Notification{}, fmt.Errorf("%w: %w", errs.ErrInvalidParameter, err)
		}
		id = uid.String()
	}
	if data == nil {
		data = map[string]any{}
	}
	n := Notification{
		ID:        id,
		To:        to,
		Channel:   channel,
		Template:  template,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
	return n, n.Validate()
}

func (n *Notification) Validate() error {
	var merr *multierror.Error

	if n.To == "" {
		merr = multierror.Append(merr, fmt.Errorf("%w: To 不能为空", errs.ErrInvalidParameter))
	}

	if n.Template == "" {
		merr = multierror.Append(merr, fmt.Errorf("%w: Template 不能为空", errs.ErrInvalidParameter))
	}

	if n.Channel == "" {
		merr = multierror.Append(merr, fmt.Errorf("%w: Channel 不能为空", errs.ErrInvalidParameter))
	} else if !n.Channel.IsValid() {
		merr = multierror.Append(merr, fmt.Errorf("%w: Channel = %q", errs.ErrUnknownChannel, n.Channel))
	}

	return merr.ErrorOrNil()
}
