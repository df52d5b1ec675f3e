package adapter

import (
	"context"
	"fmt"
	"strings"

	"bookline/internal/domain"
)

// Delivery is one rendered message handed to a channel adapter.
type Delivery struct {
	Recipient  string
	TemplateID string
	Variables  map[string]string
}

func (d Delivery) Validate() error {
	if strings.TrimSpace(d.Recipient) == "" {
		return fmt.Errorf("%w: recipient is required", domain.ErrValidation)
	}
	if strings.TrimSpace(d.TemplateID) == "" {
		return fmt.Errorf("%w: template id is required", domain.ErrValidation)
	}
	return nil
}

// Receipt stores adapter call metadata for the delivery ledger.
type Receipt struct {
	StatusCode int
	Body       string
	MessageID  string
}

// Adapter is the outbound delivery port for one transport. The external
// email and WhatsApp providers sit behind this boundary; the dispatch core
// depends only on this interface.
type Adapter interface {
	Send(ctx context.Context, delivery Delivery) (*Receipt, error)
}

// Registry resolves the adapter for a channel.
type Registry map[domain.Channel]Adapter

func (r Registry) For(channel domain.Channel) (Adapter, error) {
	a, ok := r[channel]
	if !ok || a == nil {
		return nil, fmt.Errorf("%w: no adapter registered for channel %q", domain.ErrValidation, channel)
	}
	return a, nil
}
