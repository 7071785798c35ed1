package client

import "errors"

var (
	ErrInvalidParameter = errors.New("参数错误")
	ErrSendFailed       = errors.New("短信发送失败")
)

// SendReq 单条短信发送请求。Mobile 已经是归一化后的国际格式号码。
type SendReq struct {
	Mobile  string
	Message string
}

// SendResp 供应商返回的发送结果
type SendResp struct {
	RequestID string
	// 供应商原始响应，排查问题时直接看这里
	Body string
}

type Client interface {
	Send(req SendReq) (SendResp, error)
}
