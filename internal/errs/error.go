package errs

import (
	"errors"
)

// 定义统一的错误类型
var (
	ErrInvalidParameter       = errors.New("参数错误")
	ErrSendNotificationFailed = errors.New("发送通知失败")
	ErrPublishFailed          = errors.New("投递通知事件失败")
	ErrDecodeFailed           = errors.New("解析通知事件失败")
	ErrUnknownChannel         = errors.New("未知的通知渠道")
	ErrRetryExhausted         = errors.New("重试次数已耗尽")

	ErrStatusNotFound = errors.New("通知状态记录不存在")

	ErrCreateProducerFailed = errors.New("创建生产者失败")
	ErrCreateConsumerFailed = errors.New("创建消费者失败")
)
