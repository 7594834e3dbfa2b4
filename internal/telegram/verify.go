// Package telegram checks bot tokens against the Telegram Bot API.
package telegram

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot identifies the account a token belongs to
type Bot struct {
	ID       int64
	Username string
	Name     string
}

// Verifier calls getMe to confirm that a token is accepted
type Verifier struct {
	endpoint string
	client   *http.Client
}

// NewVerifier returns a verifier for the public Bot API
func NewVerifier() *Verifier {
	return NewVerifierWithEndpoint(tgbotapi.APIEndpoint)
}

// NewVerifierWithEndpoint targets a different Bot API server. endpoint is
// a format string taking the token and the method name.
func NewVerifierWithEndpoint(endpoint string) *Verifier {
	return &Verifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// ErrTokenRejected is returned when the API refuses the token
var ErrTokenRejected = errors.New("telegram rejected the bot token")

// Verify returns the bot behind token
func (v *Verifier) Verify(token string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, v.endpoint, v.client)
	if err != nil {
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%w: %s", ErrTokenRejected, apiErr.Message)
		}
		return nil, fmt.Errorf("failed to reach telegram: %w", err)
	}

	return &Bot{
		ID:       api.Self.ID,
		Username: api.Self.UserName,
		Name:     api.Self.FirstName,
	}, nil
}
