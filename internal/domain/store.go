package domain

import (
	"context"
	"time"
)

// SnapshotStore persists opaque trader-state blobs under caller keys.
type SnapshotStore interface {
	Save(ctx context.Context, key string, blob []byte) error
	// Load returns ErrNotFound when no blob exists under key.
	Load(ctx context.Context, key string) ([]byte, error)
}

// ChartMark is one chart annotation derived from an executed order.
type ChartMark struct {
	Market   string    `json:"market"`
	Code     string    `json:"code"`
	Datetime time.Time `json:"datetime"`
	Label    string    `json:"label"`
	Text     string    `json:"text"`
	Shape    string    `json:"shape"`
	Color    string    `json:"color"`
}

// MarkStore persists chart annotations.
type MarkStore interface {
	// DeleteMarks removes every mark for the market/label pair.
	DeleteMarks(ctx context.Context, market, label string) error
	AddMark(ctx context.Context, mark ChartMark) error
}
