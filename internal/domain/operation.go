package domain

// OpType indicates whether an operation buys (opens) or sells (closes).
type OpType string

const (
	OpBuy  OpType = "buy"
	OpSell OpType = "sell"
)

// CloseUIDClear is the terminal close-transaction id. Only a close carrying it
// commits realized profit and may finalize the position; any other id records
// a preview snapshot without touching committed state.
const CloseUIDClear = "clear"

// Operation is one instruction from the strategy to the execution engine.
// Operations are immutable once issued; the engine clamps PosRate on a local
// copy only.
type Operation struct {
	Opt       OpType            `json:"opt"`
	MMD       SignalPoint       `json:"mmd"`
	Code      string            `json:"code"`
	PosRate   float64           `json:"pos_rate"`
	LossPrice float64           `json:"loss_price"`
	Key       string            `json:"key"`
	OpenUID   string            `json:"open_uid"`
	CloseUID  string            `json:"close_uid"`
	Msg       string            `json:"msg"`
	Info      map[string]string `json:"info,omitempty"`
}
