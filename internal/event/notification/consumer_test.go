//go:build unit

package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gitee.com/flycash/notification-service/internal/domain"
	"gitee.com/flycash/notification-service/internal/pkg/mqx"
	"gitee.com/flycash/notification-service/internal/pkg/retry"
	"gitee.com/flycash/notification-service/internal/service/channel"
	"gitee.com/flycash/notification-service/internal/service/provider"
	"gitee.com/flycash/notification-service/internal/service/status"
	"gitee.com/flycash/notification-service/internal/service/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConsumer 把预置的消息依次吐出来，读完后阻塞直到 ctx 结束
type fakeConsumer struct {
	msgs    []*mqx.Message
	commits int
	closed  bool
}

func (f *fakeConsumer) ReadMessage(ctx context.Context) (*mqx.Message, error) {
	if len(f.msgs) == 0 {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	msg := f.msgs[0]
	f.msgs = f.msgs[1:]
	return msg, nil
}

func (f *fakeConsumer) Commit() error {
	f.commits++
	return nil
}

func (f *fakeConsumer) Close() error {
	f.closed = true
	return nil
}

type fakeProvider struct {
	calls   int
	failN   int // 前 failN 次调用返回错误
	lastMsg string
}

func (f *fakeProvider) Send(_ context.Context, _ domain.Notification, content string) error {
	f.calls++
	f.lastMsg = content
	if f.calls <= f.failN {
		return errors.New("供应商超时")
	}
	return nil
}

type memoryStore struct {
	statuses map[string]status.Status
}

func (m *memoryStore) Mark(_ context.Context, id string, s status.Status) error {
	if m.statuses == nil {
		m.statuses = map[string]status.Status{}
	}
	m.statuses[id] = s
	return nil
}

func (m *memoryStore) Get(_ context.Context, id string) (status.Status, error) {
	return m.statuses[id], nil
}

type recordingDLProducer struct {
	dead []domain.Notification
}

func (r *recordingDLProducer) Produce(_ context.Context, n domain.Notification) error {
	r.dead = append(r.dead, n)
	return nil
}

// 重试不真正睡眠的执行器
func fastExecutor() *retry.Executor {
	e := retry.NewExecutor(3, time.Millisecond, time.Millisecond)
	return e
}

func notificationMessage(t *testing.T, n domain.Notification) *mqx.Message {
	t.Helper()
	val, err := json.Marshal(n)
	require.NoError(t, err)
	return &mqx.Message{Topic: EventName, Key: []byte(n.ID), Value: val}
}

func newTestConsumer(fc *fakeConsumer, p provider.Provider, dl Producer, store status.Store) *EventConsumer {
	dispatcher := channel.NewDispatcher(map[domain.Channel]provider.Provider{
		domain.ChannelSMS:   p,
		domain.ChannelEmail: p,
	})
	return NewEventConsumer(fc, dispatcher, template.NewResolver(nil), fastExecutor(), dl, store)
}

func TestConsumeDeliversNotification(t *testing.T) {
	t.Parallel()
	n, err := domain.NewNotification("n-1", "0712345678", domain.ChannelSMS, "otp",
		map[string]any{"code": "42"})
	require.NoError(t, err)

	fc := &fakeConsumer{msgs: []*mqx.Message{notificationMessage(t, n)}}
	fp := &fakeProvider{}
	store := &memoryStore{}
	c := newTestConsumer(fc, fp, nil, store)

	require.NoError(t, c.Consume(context.Background()))

	assert.Equal(t, 1, fp.calls)
	assert.Equal(t, 1, fc.commits)
	assert.Equal(t, status.StatusDelivered, store.statuses["n-1"])
	// 模版不存在时渲染退化为数据的 JSON
	assert.JSONEq(t, `{"code":"42"}`, fp.lastMsg)
}

func TestConsumeRetriesUntilSuccess(t *testing.T) {
	t.Parallel()
	n, err := domain.NewNotification("n-2", "user@example.com", domain.ChannelEmail, "welcome", nil)
	require.NoError(t, err)

	fc := &fakeConsumer{msgs: []*mqx.Message{notificationMessage(t, n)}}
	fp := &fakeProvider{failN: 2}
	store := &memoryStore{}
	c := newTestConsumer(fc, fp, nil, store)

	require.NoError(t, c.Consume(context.Background()))

	assert.Equal(t, 3, fp.calls)
	assert.Equal(t, status.StatusDelivered, store.statuses["n-2"])
}

func TestConsumeExhaustedGoesToDeadLetter(t *testing.T) {
	t.Parallel()
	n, err := domain.NewNotification("n-3", "user@example.com", domain.ChannelEmail, "welcome", nil)
	require.NoError(t, err)

	fc := &fakeConsumer{msgs: []*mqx.Message{notificationMessage(t, n)}}
	fp := &fakeProvider{failN: 100}
	dl := &recordingDLProducer{}
	store := &memoryStore{}
	c := newTestConsumer(fc, fp, dl, store)

	// 重试耗尽不中断消费循环，Consume 本身不报错
	require.NoError(t, c.Consume(context.Background()))

	assert.Equal(t, 3, fp.calls)
	assert.Equal(t, status.StatusFailed, store.statuses["n-3"])
	require.Len(t, dl.dead, 1)
	assert.Equal(t, "n-3", dl.dead[0].ID)
	// 处理完仍然提交进度，失败的消息不会被无限重放
	assert.Equal(t, 1, fc.commits)
}

func TestConsumeSkipsMalformedMessage(t *testing.T) {
	t.Parallel()
	n, err := domain.NewNotification("n-4", "0712345678", domain.ChannelSMS, "otp", nil)
	require.NoError(t, err)

	fc := &fakeConsumer{msgs: []*mqx.Message{
		{Topic: EventName, Key: []byte("bad"), Value: []byte("not json")},
		notificationMessage(t, n),
	}}
	fp := &fakeProvider{}
	store := &memoryStore{}
	c := newTestConsumer(fc, fp, nil, store)

	// 坏消息被跳过并提交，后面的消息正常处理
	require.NoError(t, c.Consume(context.Background()))
	require.NoError(t, c.Consume(context.Background()))

	assert.Equal(t, 1, fp.calls)
	assert.Equal(t, 2, fc.commits)
	assert.Equal(t, status.StatusDelivered, store.statuses["n-4"])
}

func TestConsumeSkipsUnknownChannel(t *testing.T) {
	t.Parallel()
	raw := []byte(`{"id":"n-5","to":"a@b.com","channel":"pigeon","template":"x","data":{}}`)
	fc := &fakeConsumer{msgs: []*mqx.Message{{Topic: EventName, Key: []byte("n-5"), Value: raw}}}
	fp := &fakeProvider{}
	c := newTestConsumer(fc, fp, nil, &memoryStore{})

	require.NoError(t, c.Consume(context.Background()))

	assert.Equal(t, 0, fp.calls)
	assert.Equal(t, 1, fc.commits)
}

func TestStartStopsOnContextCancel(t *testing.T) {
	t.Parallel()
	fc := &fakeConsumer{}
	c := newTestConsumer(fc, &fakeProvider{}, nil, &memoryStore{})

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	cancel()

	assert.ErrorIs(t, c.Consume(ctx), context.Canceled)
	require.NoError(t, c.Close())
	assert.True(t, fc.closed)
}
