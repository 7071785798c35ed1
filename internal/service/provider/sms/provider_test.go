//go:build unit

package sms

import (
	"context"
	"errors"
	"testing"

	"gitee.com/flycash/notification-service/internal/domain"
	"gitee.com/flycash/notification-service/internal/errs"
	"gitee.com/flycash/notification-service/internal/service/provider/sms/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient 记录最后一次请求，按需返回错误
type fakeClient struct {
	lastReq client.SendReq
	err     error
}

func (f *fakeClient) Send(req client.SendReq) (client.SendResp, error) {
	f.lastReq = req
	if f.err != nil {
		return client.SendResp{}, f.err
	}
	return client.SendResp{RequestID: "req-1"}, nil
}

func smsNotification(to string) domain.Notification {
	return domain.Notification{ID: "n-1", To: to, Channel: domain.ChannelSMS, Template: "otp"}
}

func TestSendMockModeWithoutClient(t *testing.T) {
	t.Parallel()
	p := NewSMSProvider(nil, "")
	err := p.Send(context.Background(), smsNotification("0712345678"), "your code is 42")
	assert.NoError(t, err)
}

func TestSendNormalizesMobile(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name        string
		countryCode string
		to          string
		want        string
	}{
		{name: "本地号码补国家码", countryCode: "", to: "0712345678", want: "254712345678"},
		{name: "自定义国家码", countryCode: "86", to: "0712345678", want: "86712345678"},
		{name: "去掉加号前缀", countryCode: "", to: "+254712345678", want: "254712345678"},
		{name: "国际格式原样保留", countryCode: "", to: "254712345678", want: "254712345678"},
		{name: "首尾空白被去掉", countryCode: "", to: " 0712345678 ", want: "254712345678"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			fc := &fakeClient{}
			p := NewSMSProvider(fc, tc.countryCode)
			require.NoError(t, p.Send(context.Background(), smsNotification(tc.to), "hello world"))
			assert.Equal(t, tc.want, fc.lastReq.Mobile)
		})
	}
}

func TestSendNormalizesMessage(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name    string
		content string
		want    string
	}{
		{name: "HTML 标记被剥掉", content: "<p>your code is <b>42</b></p>", want: "your code is 42"},
		{name: "过短正文补后缀", content: "ok", want: "ok - message"},
		{name: "普通正文原样发送", content: "your code is 42", want: "your code is 42"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			fc := &fakeClient{}
			p := NewSMSProvider(fc, "")
			require.NoError(t, p.Send(context.Background(), smsNotification("0712345678"), tc.content))
			assert.Equal(t, tc.want, fc.lastReq.Message)
		})
	}
}

func TestSendWrapsClientError(t *testing.T) {
	t.Parallel()
	fc := &fakeClient{err: errors.New("Invalid mobile number")}
	p := NewSMSProvider(fc, "")

	err := p.Send(context.Background(), smsNotification("0712345678"), "hello")

	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrSendNotificationFailed)
	assert.ErrorContains(t, err, "Invalid mobile number")
}
