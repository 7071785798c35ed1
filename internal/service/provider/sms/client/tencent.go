package client

import (
	"fmt"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	tcsms "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/sms/v20210111"
)

const tencentCodeOK = "Ok"

var _ Client = (*TencentCloudSMS)(nil)

// TencentCloudSMS 腾讯云短信实现。
// 与阿里云一样走预审核模版，渲染好的正文作为模版的唯一参数传入。
type TencentCloudSMS struct {
	client     *tcsms.Client
	appID      string
	signName   string
	templateID string
}

// NewTencentCloudSMS 创建腾讯云短信实例
func NewTencentCloudSMS(regionID, secretID, secretKey, appID, signName, templateID string) (*TencentCloudSMS, error) {
	credential := common.NewCredential(secretID, secretKey)
	client, err := tcsms.NewClient(credential, regionID, profile.NewClientProfile())
	if err != nil {
		return nil, err
	}
	return &TencentCloudSMS{
		client:     client,
		appID:      appID,
		signName:   signName,
		templateID: templateID,
	}, nil
}

func (t *TencentCloudSMS) Send(req SendReq) (SendResp, error) {
	if req.Mobile == "" {
		return SendResp{}, fmt.Errorf("%w: 手机号码不能为空", ErrInvalidParameter)
	}

	request := tcsms.NewSendSmsRequest()
	request.SmsSdkAppId = common.StringPtr(t.appID)
	request.SignName = common.StringPtr(t.signName)
	request.TemplateId = common.StringPtr(t.templateID)
	request.TemplateParamSet = common.StringPtrs([]string{req.Message})
	// 腾讯云要求 E.164 格式
	request.PhoneNumberSet = common.StringPtrs([]string{"+" + req.Mobile})

	response, err := t.client.SendSms(request)
	if err != nil {
		return SendResp{}, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	if response.Response == nil || len(response.Response.SendStatusSet) == 0 {
		return SendResp{}, fmt.Errorf("%w: 响应异常", ErrSendFailed)
	}

	status := response.Response.SendStatusSet[0]
	if status.Code == nil || *status.Code != tencentCodeOK {
		return SendResp{}, fmt.Errorf("%w: Code = %s, Message = %s",
			ErrSendFailed, strVal(status.Code), strVal(status.Message))
	}

	return SendResp{
		RequestID: strVal(response.Response.RequestId),
	}, nil
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
