package domain

import "time"

// OrderType classifies an executed fill in the order log.
type OrderType string

const (
	OrderOpenLong   OrderType = "open_long"
	OrderOpenShort  OrderType = "open_short"
	OrderCloseLong  OrderType = "close_long"
	OrderCloseShort OrderType = "close_short"
)

// IsClose reports whether the order closed (part of) a position.
func (t OrderType) IsClose() bool {
	return t == OrderCloseLong || t == OrderCloseShort
}

// Order is one executed fill appended to the per-code order log.
type Order struct {
	Datetime time.Time `json:"datetime"`
	Type     OrderType `json:"type"`
	Price    float64   `json:"price"`
	Amount   float64   `json:"amount"`
	Info     string    `json:"info"`
	OpenUID  string    `json:"open_uid"`
	CloseUID string    `json:"close_uid"`
}
