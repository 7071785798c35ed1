package ioc

import (
	"gitee.com/flycash/notification-service/internal/domain"
	"gitee.com/flycash/notification-service/internal/service/channel"
	"gitee.com/flycash/notification-service/internal/service/provider"
	"gitee.com/flycash/notification-service/internal/service/provider/email"
	"gitee.com/flycash/notification-service/internal/service/provider/metrics"
	"gitee.com/flycash/notification-service/internal/service/provider/sms"
	"gitee.com/flycash/notification-service/internal/service/provider/sms/client"
	"gitee.com/flycash/notification-service/internal/service/provider/tracing"
	"github.com/gotomicro/ego/core/econf"
	"github.com/gotomicro/ego/core/elog"
)

// SMSConfig 短信渠道配置。vendor 为空时走 mock 供应商，只打日志不真正发送。
type SMSConfig struct {
	Vendor      string `yaml:"vendor"`
	CountryCode string `yaml:"countryCode"`

	HTTP client.HTTPConfig `yaml:"http"`

	Aliyun struct {
		RegionID        string `yaml:"regionID"`
		AccessKeyID     string `yaml:"accessKeyID"`
		AccessKeySecret string `yaml:"accessKeySecret"`
		SignName        string `yaml:"signName"`
		TemplateCode    string `yaml:"templateCode"`
	} `yaml:"aliyun"`

	Tencent struct {
		RegionID   string `yaml:"regionID"`
		SecretID   string `yaml:"secretID"`
		SecretKey  string `yaml:"secretKey"`
		AppID      string `yaml:"appID"`
		SignName   string `yaml:"signName"`
		TemplateID string `yaml:"templateID"`
	} `yaml:"tencent"`
}

// InitDispatcher 按渠道组装供应商，统一套上指标和链路追踪装饰器。
func InitDispatcher() *channel.Dispatcher {
	return channel.NewDispatcher(map[domain.Channel]provider.Provider{
		domain.ChannelEmail: decorate("email", initEmailProvider()),
		domain.ChannelSMS:   decorate("sms", initSMSProvider()),
	})
}

func decorate(name string, p provider.Provider) provider.Provider {
	return tracing.NewProvider(metrics.NewProvider(name, p))
}

func initEmailProvider() provider.Provider {
	var cfg email.Config
	if err := econf.UnmarshalKey("smtp", &cfg); err != nil {
		panic(err)
	}
	return email.NewEmailProvider(cfg)
}

func initSMSProvider() provider.Provider {
	var cfg SMSConfig
	if err := econf.UnmarshalKey("sms", &cfg); err != nil {
		panic(err)
	}
	return sms.NewSMSProvider(initSMSClient(cfg), cfg.CountryCode)
}

func initSMSClient(cfg SMSConfig) client.Client {
	switch cfg.Vendor {
	case "http":
		return client.NewHTTPSMS(cfg.HTTP)
	case "aliyun":
		c, err := client.NewAliyunSMS(
			cfg.Aliyun.RegionID,
			cfg.Aliyun.AccessKeyID,
			cfg.Aliyun.AccessKeySecret,
			cfg.Aliyun.SignName,
			cfg.Aliyun.TemplateCode)
		if err != nil {
			elog.Panic("创建阿里云短信客户端失败", elog.FieldErr(err))
		}
		return c
	case "tencent":
		c, err := client.NewTencentCloudSMS(
			cfg.Tencent.RegionID,
			cfg.Tencent.SecretID,
			cfg.Tencent.SecretKey,
			cfg.Tencent.AppID,
			cfg.Tencent.SignName,
			cfg.Tencent.TemplateID)
		if err != nil {
			elog.Panic("创建腾讯云短信客户端失败", elog.FieldErr(err))
		}
		return c
	case "":
		return nil
	default:
		elog.Panic("不支持的短信供应商", elog.String("vendor", cfg.Vendor))
		return nil
	}
}
