package email

import (
	"fmt"
	"strings"

	"github.com/nfrund/gatehouse/internal/config"
	"github.com/nfrund/gatehouse/internal/domain"
)

// NewSender returns the reset-link sender selected by EMAIL_PROVIDER.
func NewSender(cfg config.Provider) (domain.EmailSender, error) {
	switch provider := strings.ToLower(strings.TrimSpace(cfg.GetEmailProvider())); provider {
	case "", "log":
		return &LogSender{senderAddress: cfg.GetEmailSender()}, nil
	case "resend":
		if cfg.GetEmailAPIKey() == "" {
			return nil, fmt.Errorf("EMAIL_PROVIDER is 'resend' but EMAIL_API_KEY is not set")
		}
		return NewResendSender(cfg.GetEmailAPIKey(), cfg.GetEmailSender()), nil
	default:
		return nil, fmt.Errorf("unknown EMAIL_PROVIDER %q", provider)
	}
}
