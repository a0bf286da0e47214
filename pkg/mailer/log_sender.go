package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront/pkg/logger"
)

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logg *logger.Logger
}

// NewLogSender is used when SMTP is not configured.
func NewLogSender(logg *logger.Logger) (*LogSender, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &LogSender{logg: logg}, nil
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("recipient required")
	}
	fields := map[string]any{
		"to":      strings.Join(msg.To, ","),
		"subject": msg.Subject,
	}
	s.logg.Info(s.logg.WithFields(ctx, fields), "mail not sent, smtp disabled")
	return nil
}
