// Package invite renders and delivers restaurant manager invitations.
package invite

import (
	"bytes"
	"context"
	"html/template"

	apperrors "places-workers/internal/common/errors"
	"places-workers/internal/common/logger"
	"places-workers/internal/common/metrics"
	"places-workers/internal/common/validation"
	"places-workers/internal/models"
)

const DefaultSubject = "You're invited to manage a restaurant!"

var bodyTemplate = template.Must(template.New("invite").Parse(`<html>
<body>
<h1>Welcome to the Restaurant Manager App!</h1>
<p>Hello,</p>
<p>You have been invited to manage a restaurant. Please click the link below to access the application:</p>
<p><a href="{{.Link}}">Get Started</a></p>
<p>Thank you!</p>
</body>
</html>
`))

// Mailer delivers a single HTML message and returns the provider message id.
type Mailer interface {
	SendHTML(ctx context.Context, from, to, subject, html string) (string, error)
}

type Config struct {
	From    string
	Subject string
}

type Sender struct {
	mailer Mailer
	config Config
	logger logger.Logger
}

func NewSender(mailer Mailer, cfg Config, log logger.Logger) *Sender {
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}
	return &Sender{
		mailer: mailer,
		config: cfg,
		logger: log.WithFields(map[string]interface{}{"component": "invite"}),
	}
}

// RenderBody returns the HTML body for an invite to link. The link is
// attribute-escaped.
func RenderBody(link string) (string, error) {
	var buf bytes.Buffer
	if err := bodyTemplate.Execute(&buf, struct{ Link string }{Link: link}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Send delivers inv and returns the provider message id.
func (s *Sender) Send(ctx context.Context, inv models.Invite) (string, error) {
	if inv.Email == "" || inv.Link == "" {
		return "", apperrors.NewInvalidInputError("Email and link are required")
	}
	if !validation.ValidateEmail(inv.Email) {
		return "", apperrors.NewInvalidInputError("Email is not a valid address")
	}

	html, err := RenderBody(inv.Link)
	if err != nil {
		return "", apperrors.NewInviteSendFailedError(inv.Email, err)
	}

	messageID, err := s.mailer.SendHTML(ctx, s.config.From, inv.Email, s.config.Subject, html)
	if err != nil {
		metrics.InvitesSent.WithLabelValues(metrics.OutcomeFailure).Inc()
		s.logger.Error("invite delivery failed", map[string]interface{}{
			"email": inv.Email,
			"error": err,
		})
		return "", apperrors.NewInviteSendFailedError(inv.Email, err)
	}

	metrics.InvitesSent.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.logger.Info("invite sent", map[string]interface{}{
		"email":     inv.Email,
		"messageId": messageID,
	})
	return messageID, nil
}
