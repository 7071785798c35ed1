package email

import (
	"context"
	"fmt"

	"gitee.com/flycash/notification-service/internal/domain"
	"gitee.com/flycash/notification-service/internal/errs"
	"gitee.com/flycash/notification-service/internal/service/provider"
	"github.com/gotomicro/ego/core/elog"
	"github.com/k3a/html2text"
	"gopkg.in/gomail.v2"
)

const sslPort = 465

// Config SMTP 连接配置。Host/Username/Password 任一缺失即进入 mock 模式。
type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// emailProvider Email供应商
type emailProvider struct {
	cfg    Config
	logger *elog.Component
}

func NewEmailProvider(cfg Config) provider.Provider {
	if cfg.Port == 0 {
		cfg.Port = sslPort
	}
	return &emailProvider{
		cfg:    cfg,
		logger: elog.DefaultLogger,
	}
}

// Send 发送邮件。渲染内容作为 HTML 正文，同时剥掉标签生成纯文本备选正文。
func (p *emailProvider) Send(_ context.Context, notification domain.Notification, content string) error {
	if p.mockMode() {
		p.logger.Info("未配置 SMTP，mock 发送邮件",
			elog.String("id", notification.ID),
			elog.String("to", notification.To),
			elog.String("template", notification.Template))
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", p.cfg.From)
	m.SetHeader("To", notification.To)
	m.SetHeader("Subject", fmt.Sprintf("Notification: %s", notification.Template))
	m.SetBody("text/plain", html2text.HTML2Text(content))
	m.AddAlternative("text/html", content)

	// 云环境里复用的 SMTP 长连接会被静默断开，每次发送都重新拨号
	d := gomail.NewDialer(p.cfg.Host, p.cfg.Port, p.cfg.Username, p.cfg.Password)
	d.SSL = p.cfg.Port == sslPort

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrSendNotificationFailed, err)
	}

	p.logger.Info("邮件发送成功",
		elog.String("id", notification.ID),
		elog.String("to", notification.To))
	return nil
}

func (p *emailProvider) mockMode() bool {
	return p.cfg.Host == "" || p.cfg.Username == "" || p.cfg.Password == ""
}
