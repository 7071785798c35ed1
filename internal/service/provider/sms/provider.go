package sms

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"gitee.com/flycash/notification-service/internal/domain"
	"gitee.com/flycash/notification-service/internal/errs"
	"gitee.com/flycash/notification-service/internal/service/provider"
	"gitee.com/flycash/notification-service/internal/service/provider/sms/client"
	"github.com/gotomicro/ego/core/elog"
	"github.com/k3a/html2text"
)

const (
	// 短信正文最短长度，不足时补一个固定后缀
	minMessageLen = 3
	padSuffix     = " - message"

	defaultCountryCode = "254"
)

// 本地写法号码：0 开头后跟 9 位数字
var localMobileRe = regexp.MustCompile(`^0\d{9}$`)

// smsProvider SMS供应商
type smsProvider struct {
	// 为 nil 时进入 mock 模式，只记日志不外呼
	client      client.Client
	countryCode string
	logger      *elog.Component
}

// NewSMSProvider 创建 SMS 供应商。countryCode 是本地号码归一化时补的国家码。
func NewSMSProvider(c client.Client, countryCode string) provider.Provider {
	if countryCode == "" {
		countryCode = defaultCountryCode
	}
	return &smsProvider{
		client:      c,
		countryCode: countryCode,
		logger:      elog.DefaultLogger,
	}
}

// Send 发送短信。归一化手机号，剥掉标记生成纯文本正文，
// 不足最短长度时补齐，再交给供应商客户端。
func (p *smsProvider) Send(_ context.Context, notification domain.Notification, content string) error {
	if p.client == nil {
		p.logger.Info("未配置短信供应商，mock 发送短信",
			elog.String("id", notification.ID),
			elog.String("to", notification.To),
			elog.String("template", notification.Template),
			elog.String("content", content))
		return nil
	}

	mobile := p.normalizeMobile(notification.To)
	message := normalizeMessage(content)

	resp, err := p.client.Send(client.SendReq{
		Mobile:  mobile,
		Message: message,
	})
	if err != nil {
		// 供应商返回的结构化校验错误已经拼在 err 里，整体向上抛
		return fmt.Errorf("%w: %w", errs.ErrSendNotificationFailed, err)
	}

	p.logger.Info("短信发送成功",
		elog.String("id", notification.ID),
		elog.String("to", notification.To),
		elog.String("mobile", mobile),
		elog.String("requestID", resp.RequestID))
	return nil
}

// normalizeMobile 去掉 + 前缀；0 开头的本地 10 位号码换成国家码前缀形式
func (p *smsProvider) normalizeMobile(to string) string {
	mobile := strings.TrimSpace(to)
	mobile = strings.TrimPrefix(mobile, "+")
	if localMobileRe.MatchString(mobile) {
		mobile = p.countryCode + mobile[1:]
	}
	return mobile
}

func normalizeMessage(content string) string {
	message := strings.TrimSpace(html2text.HTML2Text(content))
	if len(message) < minMessageLen {
		message += padSuffix
	}
	return message
}
