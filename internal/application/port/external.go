package port

import (
	"context"
	"io"

	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/entity"
)

// RealtimePusher delivers an event to every connection of one user
type RealtimePusher interface {
	Push(ctx context.Context, userID int64, event string, payload interface{}) error
}

// EmailSender delivers one HTML email
type EmailSender interface {
	// Enabled is false when no sender account is configured
	Enabled() bool
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// ChatMessenger sends short text messages to a user's chat account
type ChatMessenger interface {
	SendText(ctx context.Context, email, text string) error
}

// ClaimExporter writes claims as a spreadsheet
type ClaimExporter interface {
	Export(w io.Writer, claims []*entity.Claim) error
}
