package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	client "github.com/mamadbah2/driverledger/pkg/clients/whatsapp"
)

// maxBodyRunes is the Cloud API limit for a text message body.
const maxBodyRunes = 4096

// ErrNoRecipient is returned when no recipient is configured.
var ErrNoRecipient = errors.New("whatsapp recipient not configured")

// Notifier delivers progress summaries to the driver.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// MetaWhatsAppService is the production Notifier backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	client    client.Client
	recipient string
	timeout   time.Duration
	logger    *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(client client.Client, recipient string, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		client:    client,
		recipient: recipient,
		timeout:   10 * time.Second,
		logger:    logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// Notify sends message, split into as many texts as the body limit requires.
func (s *MetaWhatsAppService) Notify(ctx context.Context, message string) error {
	if s.recipient == "" {
		return ErrNoRecipient
	}

	for i, part := range splitMessage(message, maxBodyRunes) {
		ctxWithTimeout, cancel := context.WithTimeout(ctx, s.timeout)
		id, err := s.client.SendText(ctxWithTimeout, s.recipient, part)
		cancel()
		if err != nil {
			return fmt.Errorf("send notification part %d: %w", i+1, err)
		}
		s.logger.Debug("notification sent", zap.String("message_id", id), zap.Int("part", i+1))
	}
	return nil
}

// splitMessage cuts text into chunks of at most limit runes, preferring line
// boundaries.
func splitMessage(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var parts []string
	var current []rune
	for _, line := range strings.SplitAfter(text, "\n") {
		runes := []rune(line)
		if len(current)+len(runes) > limit && len(current) > 0 {
			parts = append(parts, strings.TrimSpace(string(current)))
			current = current[:0]
		}
		for len(runes) > limit {
			parts = append(parts, string(runes[:limit]))
			runes = runes[limit:]
		}
		current = append(current, runes...)
	}
	if len(current) > 0 {
		parts = append(parts, strings.TrimSpace(string(current)))
	}
	return parts
}
