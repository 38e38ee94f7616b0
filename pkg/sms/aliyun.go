package sms

import (
	"context"
	"encoding/json"
	"fmt"

	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	dypnsapi "github.com/alibabacloud-go/dypnsapi-20170525/v3/client"
	util "github.com/alibabacloud-go/tea-utils/v2/service"
	"github.com/alibabacloud-go/tea/tea"
	credentials "github.com/aliyun/credentials-go/credentials"
)

const aliyunEndpoint = "dypnsapi.aliyuncs.com"

// AliyunConfig holds the credentials and template for the Aliyun SMS channel.
type AliyunConfig struct {
	AccessKeyID     string
	AccessKeySecret string
	SignName        string
	TemplateCode    string
}

// AliyunSender sends verification codes through Aliyun's number
// authentication service.
type AliyunSender struct {
	client       *dypnsapi.Client
	signName     string
	templateCode string
}

func NewAliyunSender(cfg AliyunConfig) (*AliyunSender, error) {
	cred, err := credentials.NewCredential(&credentials.Config{
		Type:            tea.String("access_key"),
		AccessKeyId:     tea.String(cfg.AccessKeyID),
		AccessKeySecret: tea.String(cfg.AccessKeySecret),
	})
	if err != nil {
		return nil, fmt.Errorf("aliyun credentials: %w", err)
	}
	client, err := dypnsapi.NewClient(&openapi.Config{
		Credential: cred,
		Endpoint:   tea.String(aliyunEndpoint),
	})
	if err != nil {
		return nil, fmt.Errorf("aliyun sms client: %w", err)
	}
	return &AliyunSender{
		client:       client,
		signName:     cfg.SignName,
		templateCode: cfg.TemplateCode,
	}, nil
}

// SendVerificationCode delivers the code through the configured template.
// The underlying SDK does not take a context; ctx is accepted for interface
// symmetry and future cancellation support.
func (s *AliyunSender) SendVerificationCode(_ context.Context, phone, code string) error {
	param, err := json.Marshal(map[string]string{"code": code})
	if err != nil {
		return fmt.Errorf("sms template param: %w", err)
	}
	req := &dypnsapi.SendSmsVerifyCodeRequest{
		PhoneNumber:   tea.String(phone),
		SignName:      tea.String(s.signName),
		TemplateCode:  tea.String(s.templateCode),
		TemplateParam: tea.String(string(param)),
	}
	resp, err := s.client.SendSmsVerifyCodeWithOptions(req, &util.RuntimeOptions{})
	if err != nil {
		return fmt.Errorf("send sms to %s: %w", phone, err)
	}
	if resp.Body == nil || !tea.BoolValue(resp.Body.Success) {
		msg := ""
		if resp.Body != nil {
			msg = tea.StringValue(resp.Body.Message)
		}
		return fmt.Errorf("sms rejected for %s: %s", phone, msg)
	}
	return nil
}
