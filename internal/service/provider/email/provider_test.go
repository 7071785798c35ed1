//go:build unit

package email

import (
	"context"
	"testing"

	"gitee.com/flycash/notification-service/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestSendMockModeWhenNotConfigured(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name string
		cfg  Config
	}{
		{name: "全部缺失", cfg: Config{}},
		{name: "缺少主机", cfg: Config{Username: "u", Password: "p"}},
		{name: "缺少账号", cfg: Config{Host: "smtp.example.com", Password: "p"}},
		{name: "缺少密码", cfg: Config{Host: "smtp.example.com", Username: "u"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := NewEmailProvider(tc.cfg)
			n := domain.Notification{ID: "n-1", To: "user@example.com", Channel: domain.ChannelEmail, Template: "welcome"}
			// mock 模式只打日志，不外呼 SMTP
			assert.NoError(t, p.Send(context.Background(), n, "<p>hello</p>"))
		})
	}
}

func TestNewEmailProviderDefaultPort(t *testing.T) {
	t.Parallel()
	p := NewEmailProvider(Config{Host: "smtp.example.com", Username: "u", Password: "p"}).(*emailProvider)
	assert.Equal(t, sslPort, p.cfg.Port)
}
