//go:build unit

package client

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSMSSendSubmitsForm(t *testing.T) {
	t.Parallel()
	var gotForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.Header().Set("X-Request-Id", "req-9")
		_, _ = w.Write([]byte(`{"code":200}`))
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPSMS(HTTPConfig{
		URL:       srv.URL,
		PartnerID: "p-1",
		APIKey:    "key-1",
		Shortcode: "SENDER",
	})

	resp, err := c.Send(SendReq{Mobile: "254712345678", Message: "your code is 42"})
	require.NoError(t, err)

	assert.Equal(t, "req-9", resp.RequestID)
	assert.Equal(t, `{"code":200}`, resp.Body)
	assert.Equal(t, "key-1", gotForm.Get("apikey"))
	assert.Equal(t, "p-1", gotForm.Get("partnerID"))
	assert.Equal(t, "SENDER", gotForm.Get("shortcode"))
	// pass_type 缺省为 plain
	assert.Equal(t, "plain", gotForm.Get("pass_type"))
	assert.Equal(t, "254712345678", gotForm.Get("mobile"))
	assert.Equal(t, "your code is 42", gotForm.Get("message"))
}

func TestHTTPSMSSendRejectsEmptyMobile(t *testing.T) {
	t.Parallel()
	c := NewHTTPSMS(HTTPConfig{URL: "http://example.invalid"})

	_, err := c.Send(SendReq{Message: "hi"})
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestHTTPSMSSendSurfacesValidationErrors(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":{"mobile":["Invalid mobile number"],"message":["required"]}}`))
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPSMS(HTTPConfig{URL: srv.URL})

	_, err := c.Send(SendReq{Mobile: "123", Message: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSendFailed)
	// 结构化校验错误按字段名排序展开
	assert.ErrorContains(t, err, `message=["required"]`)
	assert.ErrorContains(t, err, `mobile=["Invalid mobile number"]`)
}

func TestHTTPSMSSendNonJSONErrorBody(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPSMS(HTTPConfig{URL: srv.URL})

	_, err := c.Send(SendReq{Mobile: "254712345678", Message: "hi"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "502")
	assert.ErrorContains(t, err, "upstream down")
}
