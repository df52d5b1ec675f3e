package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultSendTimeout = 10 * time.Second

type emailRequest struct {
	To         string            `json:"to"`
	TemplateID string            `json:"templateId"`
	Variables  map[string]string `json:"variables,omitempty"`
}

type emailResponse struct {
	MessageID string `json:"messageId"`
}

// EmailAdapter delivers rendered messages through an HTTP email provider.
type EmailAdapter struct {
	client   *resty.Client
	endpoint string
	apiKey   string
}

func NewEmailAdapter(endpoint, apiKey string) (*EmailAdapter, error) {
	client := resty.New()
	client.SetTimeout(defaultSendTimeout)
	client.SetRetryCount(0)

	return NewEmailAdapterWithClient(endpoint, apiKey, client)
}

func NewEmailAdapterWithClient(endpoint, apiKey string, client *resty.Client) (*EmailAdapter, error) {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if trimmedEndpoint == "" {
		return nil, fmt.Errorf("email endpoint is required")
	}
	if _, err := url.ParseRequestURI(trimmedEndpoint); err != nil {
		return nil, fmt.Errorf("invalid email endpoint: %w", err)
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("email api key is required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultSendTimeout)
	}
	client.SetRetryCount(0)

	return &EmailAdapter{
		client:   client,
		endpoint: trimmedEndpoint,
		apiKey:   apiKey,
	}, nil
}

func (a *EmailAdapter) Send(ctx context.Context, delivery Delivery) (*Receipt, error) {
	if a == nil || a.client == nil {
		return nil, fmt.Errorf("email adapter is not initialized")
	}
	if err := delivery.Validate(); err != nil {
		return nil, err
	}
	if !strings.Contains(delivery.Recipient, "@") {
		return nil, &AdapterError{
			Message:   fmt.Sprintf("invalid email recipient %q", delivery.Recipient),
			Permanent: true,
		}
	}

	reqBody := emailRequest{
		To:         delivery.Recipient,
		TemplateID: delivery.TemplateID,
		Variables:  delivery.Variables,
	}

	var respBody emailResponse
	response, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Api-Key", a.apiKey).
		SetBody(reqBody).
		SetResult(&respBody).
		Post(a.endpoint)
	if err != nil {
		return nil, &AdapterError{
			Message:   "email provider request failed",
			Permanent: errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}
	if response == nil {
		return nil, &AdapterError{
			Message: "email provider returned empty response",
		}
	}

	statusCode := response.StatusCode()
	body := strings.TrimSpace(response.String())

	if response.IsError() {
		return nil, &AdapterError{
			StatusCode: statusCode,
			Message:    fmt.Sprintf("email provider rejected delivery: %s", body),
			Permanent:  permanentForStatus(statusCode),
		}
	}

	messageID := respBody.MessageID
	if messageID == "" {
		messageID = response.Header().Get("X-Message-Id")
	}

	return &Receipt{
		StatusCode: statusCode,
		Body:       body,
		MessageID:  messageID,
	}, nil
}
