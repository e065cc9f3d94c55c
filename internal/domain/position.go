package domain

import "time"

// Direction is the side of a position, set on its first fill.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// FillRecord is one append-only audit entry for a partial open or close.
type FillRecord struct {
	Datetime time.Time `json:"datetime"`
	Price    float64   `json:"price"`
	Amount   float64   `json:"amount"`
	Msg      string    `json:"msg"`
	Key      string    `json:"key"`
	OpenUID  string    `json:"open_uid,omitempty"`
	CloseUID string    `json:"close_uid,omitempty"`
	PosRate  float64   `json:"pos_rate"`
}

// CloseProfit is the profit snapshot recorded per close-transaction id,
// whether or not that id was the terminal one.
type CloseProfit struct {
	CloseDatetime time.Time `json:"close_datetime"`
	Profit        float64   `json:"profit"`
	ProfitRate    float64   `json:"profit_rate"`
	MaxProfitRate float64   `json:"max_profit_rate"`
	MaxLossRate   float64   `json:"max_loss_rate"`
	CloseMsg      string    `json:"close_msg"`
}

// Position is one simulated holding, keyed by its open uid. A position with
// Balance == 0 is terminal and ignored by all consumers.
type Position struct {
	Code    string      `json:"code"`
	MMD     SignalPoint `json:"mmd"`
	OpenUID string      `json:"open_uid"`

	Type      Direction `json:"type"`
	Price     float64   `json:"price"` // last fill price, not volume-weighted
	Amount    float64   `json:"amount"`
	Balance   float64   `json:"balance"`
	LossPrice float64   `json:"loss_price"`

	// NowPosRate is the fraction of the intended full size currently filled.
	NowPosRate float64 `json:"now_pos_rate"`

	// OpenKeys and CloseKeys enforce at-most-once application per fill key.
	OpenKeys  map[string]float64 `json:"open_keys"`
	CloseKeys map[string]float64 `json:"close_keys"`

	// CloseUIDProfit enforces at-most-once application per close-transaction id.
	CloseUIDProfit map[string]CloseProfit `json:"close_uid_profit"`

	Profit        float64 `json:"profit"`
	ProfitRate    float64 `json:"profit_rate"`
	MaxProfitRate float64 `json:"max_profit_rate"`
	MaxLossRate   float64 `json:"max_loss_rate"`

	OpenDate      string            `json:"open_date"`
	OpenDatetime  time.Time         `json:"open_datetime"`
	CloseDatetime time.Time         `json:"close_datetime"`
	OpenMsg       string            `json:"open_msg"`
	CloseMsg      string            `json:"close_msg"`
	Info          map[string]string `json:"info,omitempty"`

	OpenRecords  []FillRecord `json:"open_records"`
	CloseRecords []FillRecord `json:"close_records"`
}

// NewPosition creates an empty live position for the given open uid.
func NewPosition(code string, mmd SignalPoint, openUID string) *Position {
	return &Position{
		Code:           code,
		MMD:            mmd,
		OpenUID:        openUID,
		OpenKeys:       make(map[string]float64),
		CloseKeys:      make(map[string]float64),
		CloseUIDProfit: make(map[string]CloseProfit),
	}
}

// Closed reports whether the position is terminal.
func (p *Position) Closed() bool { return p.Balance == 0 }

// Clone returns a deep copy. Archival always clones so later mutation of live
// state cannot corrupt history.
func (p *Position) Clone() *Position {
	cp := *p

	cp.OpenKeys = make(map[string]float64, len(p.OpenKeys))
	for k, v := range p.OpenKeys {
		cp.OpenKeys[k] = v
	}
	cp.CloseKeys = make(map[string]float64, len(p.CloseKeys))
	for k, v := range p.CloseKeys {
		cp.CloseKeys[k] = v
	}
	cp.CloseUIDProfit = make(map[string]CloseProfit, len(p.CloseUIDProfit))
	for k, v := range p.CloseUIDProfit {
		cp.CloseUIDProfit[k] = v
	}
	if p.Info != nil {
		cp.Info = make(map[string]string, len(p.Info))
		for k, v := range p.Info {
			cp.Info[k] = v
		}
	}
	cp.OpenRecords = append([]FillRecord(nil), p.OpenRecords...)
	cp.CloseRecords = append([]FillRecord(nil), p.CloseRecords...)
	return &cp
}
