package dispatcher

import (
	"context"

	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/event"
)

// Handler processes claim events
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo contains handler metadata for debugging
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
}

// wildcard subscribes a handler to every event type
const wildcard event.Type = "*"
