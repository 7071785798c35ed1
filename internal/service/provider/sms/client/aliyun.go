package client

import (
	"encoding/json"
	"fmt"

	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	dysmsapi "github.com/alibabacloud-go/dysmsapi-20170525/v4/client"
	"github.com/alibabacloud-go/tea/tea"
)

const aliyunCodeOK = "OK"

var _ Client = (*AliyunSMS)(nil)

// AliyunSMS 阿里云短信实现。
// 阿里云只能按预审核的模版发送，这里约定一个带 content 变量的通用模版，
// 把渲染好的正文整体塞进 content 参数。
type AliyunSMS struct {
	client       *dysmsapi.Client
	signName     string
	templateCode string
}

// NewAliyunSMS 创建阿里云短信实例
func NewAliyunSMS(regionID, accessKeyID, accessKeySecret, signName, templateCode string) (*AliyunSMS, error) {
	config := &openapi.Config{
		AccessKeyId:     tea.String(accessKeyID),
		AccessKeySecret: tea.String(accessKeySecret),
		RegionId:        tea.String(regionID),
		Endpoint:        tea.String("dysmsapi.aliyuncs.com"),
	}

	client, err := dysmsapi.NewClient(config)
	if err != nil {
		return nil, err
	}
	return &AliyunSMS{
		client:       client,
		signName:     signName,
		templateCode: templateCode,
	}, nil
}

func (a *AliyunSMS) Send(req SendReq) (SendResp, error) {
	if req.Mobile == "" {
		return SendResp{}, fmt.Errorf("%w: 手机号码不能为空", ErrInvalidParameter)
	}

	param, err := json.Marshal(map[string]string{"content": req.Message})
	if err != nil {
		return SendResp{}, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}

	request := &dysmsapi.SendSmsRequest{
		PhoneNumbers:  tea.String(req.Mobile),
		SignName:      tea.String(a.signName),
		TemplateCode:  tea.String(a.templateCode),
		TemplateParam: tea.String(string(param)),
	}

	response, err := a.client.SendSms(request)
	if err != nil {
		return SendResp{}, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	if response.Body == nil || response.Body.Code == nil {
		return SendResp{}, fmt.Errorf("%w: 响应异常", ErrSendFailed)
	}

	if *response.Body.Code != aliyunCodeOK {
		return SendResp{}, fmt.Errorf("%w: Code = %s, Message = %s",
			ErrSendFailed, *response.Body.Code, tea.StringValue(response.Body.Message))
	}

	return SendResp{
		RequestID: tea.StringValue(response.Body.RequestId),
		Body:      tea.StringValue(response.Body.Message),
	}, nil
}
