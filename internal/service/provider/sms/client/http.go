package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const httpTimeout = 10 * time.Second

var _ Client = (*HTTPSMS)(nil)

// HTTPConfig 表单接口类短信供应商的配置
type HTTPConfig struct {
	URL       string `yaml:"url"`
	PartnerID string `yaml:"partnerID"`
	APIKey    string `yaml:"apiKey"`
	Shortcode string `yaml:"shortcode"`
	PassType  string `yaml:"passType"`
}

// HTTPSMS 表单提交类短信供应商实现。
// 供应商要求 application/x-www-form-urlencoded 提交
// apikey、partnerID、shortcode、pass_type、mobile、message 六个字段。
type HTTPSMS struct {
	cfg        HTTPConfig
	httpClient *http.Client
}

func NewHTTPSMS(cfg HTTPConfig) *HTTPSMS {
	if cfg.PassType == "" {
		cfg.PassType = "plain"
	}
	return &HTTPSMS{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: httpTimeout,
		},
	}
}

func (c *HTTPSMS) Send(req SendReq) (SendResp, error) {
	if req.Mobile == "" {
		return SendResp{}, fmt.Errorf("%w: 手机号码不能为空", ErrInvalidParameter)
	}

	form := url.Values{}
	form.Set("apikey", c.cfg.APIKey)
	form.Set("partnerID", c.cfg.PartnerID)
	form.Set("shortcode", c.cfg.Shortcode)
	form.Set("pass_type", c.cfg.PassType)
	form.Set("mobile", req.Mobile)
	form.Set("message", req.Message)

	resp, err := c.httpClient.PostForm(c.cfg.URL, form)
	if err != nil {
		return SendResp{}, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return SendResp{}, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return SendResp{}, fmt.Errorf("%w: 状态码 %d%s",
			ErrSendFailed, resp.StatusCode, validationDetail(body))
	}

	return SendResp{
		RequestID: resp.Header.Get("X-Request-Id"),
		Body:      string(body),
	}, nil
}

// validationDetail 供应商会在响应体的 errors 字段里带结构化的校验错误，
// 逐条展开放进错误信息，方便排查
func validationDetail(body []byte) string {
	var parsed struct {
		Errors map[string]any `json:"errors"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Errors) == 0 {
		if len(body) == 0 {
			return ""
		}
		return fmt.Sprintf(", 响应: %s", string(body))
	}

	keys := make([]string, 0, len(parsed.Errors))
	for k := range parsed.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(", 校验错误:")
	for _, k := range keys {
		raw, _ := json.Marshal(parsed.Errors[k])
		sb.WriteString(fmt.Sprintf(" %s=%s", k, raw))
	}
	return sb.String()
}
