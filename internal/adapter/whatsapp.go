package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
)

type whatsappRequest struct {
	To       string           `json:"to"`
	Type     string           `json:"type"`
	Template whatsappTemplate `json:"template"`
}

type whatsappTemplate struct {
	Name       string              `json:"name"`
	Parameters []whatsappParameter `json:"parameters,omitempty"`
}

type whatsappParameter struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

type whatsappResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// WhatsAppAdapter delivers template messages through a WhatsApp business
// messaging provider.
type WhatsAppAdapter struct {
	client   *resty.Client
	endpoint string
	token    string
}

func NewWhatsAppAdapter(endpoint, token string) (*WhatsAppAdapter, error) {
	client := resty.New()
	client.SetTimeout(defaultSendTimeout)
	client.SetRetryCount(0)

	return NewWhatsAppAdapterWithClient(endpoint, token, client)
}

func NewWhatsAppAdapterWithClient(endpoint, token string, client *resty.Client) (*WhatsAppAdapter, error) {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if trimmedEndpoint == "" {
		return nil, fmt.Errorf("whatsapp endpoint is required")
	}
	if _, err := url.ParseRequestURI(trimmedEndpoint); err != nil {
		return nil, fmt.Errorf("invalid whatsapp endpoint: %w", err)
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("whatsapp access token is required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultSendTimeout)
	}
	client.SetRetryCount(0)

	return &WhatsAppAdapter{
		client:   client,
		endpoint: trimmedEndpoint,
		token:    token,
	}, nil
}

func (a *WhatsAppAdapter) Send(ctx context.Context, delivery Delivery) (*Receipt, error) {
	if a == nil || a.client == nil {
		return nil, fmt.Errorf("whatsapp adapter is not initialized")
	}
	if err := delivery.Validate(); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(delivery.Recipient, "+") {
		return nil, &AdapterError{
			Message:   fmt.Sprintf("invalid whatsapp recipient %q", delivery.Recipient),
			Permanent: true,
		}
	}

	parameters := make([]whatsappParameter, 0, len(delivery.Variables))
	for name, text := range delivery.Variables {
		parameters = append(parameters, whatsappParameter{Name: name, Text: text})
	}

	reqBody := whatsappRequest{
		To:   delivery.Recipient,
		Type: "template",
		Template: whatsappTemplate{
			Name:       delivery.TemplateID,
			Parameters: parameters,
		},
	}

	var respBody whatsappResponse
	response, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(a.token).
		SetBody(reqBody).
		SetResult(&respBody).
		Post(a.endpoint)
	if err != nil {
		return nil, &AdapterError{
			Message:   "whatsapp provider request failed",
			Permanent: errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}
	if response == nil {
		return nil, &AdapterError{
			Message: "whatsapp provider returned empty response",
		}
	}

	statusCode := response.StatusCode()
	body := strings.TrimSpace(response.String())

	if response.IsError() {
		return nil, &AdapterError{
			StatusCode: statusCode,
			Message:    fmt.Sprintf("whatsapp provider rejected delivery: %s", body),
			Permanent:  permanentForStatus(statusCode),
		}
	}

	var messageID string
	if len(respBody.Messages) > 0 {
		messageID = respBody.Messages[0].ID
	}

	return &Receipt{
		StatusCode: statusCode,
		Body:       body,
		MessageID:  messageID,
	}, nil
}
