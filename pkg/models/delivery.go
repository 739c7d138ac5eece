package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	DeliveryStatusSent     = "sent"
	DeliveryStatusFailed   = "failed"
	DeliveryStatusRejected = "rejected"
)

// Delivery records one attempt to send a file to a chat. Path is relative to
// the root directory.
type Delivery struct {
	bun.BaseModel `bun:"table:deliveries,alias:d"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    int64     `bun:",nullzero" json:"user_id"`
	ChatID    int64     `bun:",nullzero" json:"chat_id"`
	Path      string    `bun:",nullzero" json:"path"`
	Name      string    `bun:",nullzero" json:"name"`
	Size      int64     `json:"size"`
	MimeType  *string   `json:"mime_type,omitempty"`
	Status    string    `bun:",nullzero" json:"status"`
	Error     *string   `json:"error,omitempty"`
}
