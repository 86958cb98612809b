package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/gemeenteweb/server/internal/config"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

// Service sends transactional email through the Resend API.
type Service struct {
	config config.EmailConfig
	client *resend.Client
	tmpl   *template.Template
	logger zerolog.Logger
}

// InvitationData holds data for rendering the invitation email template
type InvitationData struct {
	InvitedBy   string
	InviteLink  string
	CurrentYear int
}

const invitationTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #222;">
  <h2>Welkom by die gemeente-webwerf</h2>
  <p>{{.InvitedBy}} het jou genooi om 'n rekening op te stel.</p>
  <p><a href="{{.InviteLink}}">Aanvaar die uitnodiging</a> om jou wagwoord te kies.</p>
  <p>Die skakel verval oor 7 dae.</p>
  <p style="color: #888; font-size: 12px;">&copy; {{.CurrentYear}}</p>
</body>
</html>`

func NewService(cfg config.EmailConfig, logger zerolog.Logger) (*Service, error) {
	if cfg.Enabled {
		if err := validateEmailAddress(cfg.From); err != nil {
			return nil, fmt.Errorf("invalid sender email in config: %w", err)
		}
	}

	tmpl, err := template.New("invitation").Parse(invitationTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse invitation template: %w", err)
	}

	var client *resend.Client
	if cfg.Enabled {
		client = resend.NewClient(cfg.ResendAPIKey)
	}

	return &Service{
		config: cfg,
		client: client,
		tmpl:   tmpl,
		logger: logger.With().Str("component", "email").Logger(),
	}, nil
}

// SendInvitation sends an invitation email to a user.
func (s *Service) SendInvitation(ctx context.Context, to, inviteLink, invitedBy string) error {
	if err := validateEmailAddress(to); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}

	// Reject javascript:, data: and other dangerous schemes before the link
	// lands in an HTML email.
	if err := validateInviteURL(inviteLink); err != nil {
		return fmt.Errorf("invalid invite link: %w", err)
	}

	if !s.config.Enabled {
		s.logger.Info().
			Str("to", to).
			Str("invited_by", invitedBy).
			Str("link", inviteLink).
			Msg("email service disabled, skipping invitation email")
		return nil
	}

	var buf bytes.Buffer
	data := InvitationData{
		InvitedBy:   invitedBy,
		InviteLink:  inviteLink,
		CurrentYear: time.Now().Year(),
	}
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("render invitation template: %w", err)
	}

	if err := s.send(ctx, to, "Uitnodiging: gemeente-webwerf", buf.String()); err != nil {
		return fmt.Errorf("send invitation email: %w", err)
	}

	s.logger.Info().
		Str("to", to).
		Str("invited_by", invitedBy).
		Msg("invitation email sent")
	return nil
}

// send delivers one email via Resend. Rate limit errors are reported without
// retrying.
func (s *Service) send(ctx context.Context, to, subject, htmlBody string) error {
	if s.client == nil {
		return fmt.Errorf("resend client not initialized")
	}

	params := &resend.SendEmailRequest{
		From:    s.config.From,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		var rateLimitErr *resend.RateLimitError
		if errors.As(err, &rateLimitErr) {
			s.logger.Warn().
				Str("limit", rateLimitErr.Limit).
				Str("remaining", rateLimitErr.Remaining).
				Str("reset", rateLimitErr.Reset).
				Msg("resend rate limit exceeded")
			return fmt.Errorf("email rate limit exceeded (limit: %s, resets in: %s seconds): %w",
				rateLimitErr.Limit, rateLimitErr.Reset, err)
		}
		return fmt.Errorf("resend API error: %w", err)
	}

	s.logger.Info().
		Str("email_id", sent.Id).
		Str("to", to).
		Msg("email sent via Resend")
	return nil
}

// validateEmailAddress checks format and header injection attempts.
func validateEmailAddress(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}

	if strings.ContainsAny(addr.Address, "\r\n") {
		return fmt.Errorf("invalid email address: contains newline characters")
	}

	return nil
}

func validateInviteURL(link string) error {
	u, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (must be http or https)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}
