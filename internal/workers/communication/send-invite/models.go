package sendinvite

import (
	"context"
	"time"

	"places-workers/internal/models"
)

type Output struct {
	Sent      bool      `json:"inviteSent"`
	MessageID string    `json:"inviteMessageId,omitempty"`
	SentAt    time.Time `json:"inviteSentAt"`
}

// Sender is satisfied by *invite.Sender.
type Sender interface {
	Send(ctx context.Context, inv models.Invite) (string, error)
}
