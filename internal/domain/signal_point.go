package domain

// SignalPoint identifies the type of trading signal that drove an operation.
// It doubles as the win/loss statistics bucket key. The set is closed: buy
// points open long positions, sell points open short positions (futures only).
type SignalPoint string

const (
	SPFirstBuy      SignalPoint = "1buy"
	SPSecondBuy     SignalPoint = "2buy"
	SPLikeSecondBuy SignalPoint = "l2buy"
	SPThirdBuy      SignalPoint = "3buy"
	SPLikeThirdBuy  SignalPoint = "l3buy"
	SPDownBiDivBuy  SignalPoint = "down_bi_bc_buy"
	SPDownXdDivBuy  SignalPoint = "down_xd_bc_buy"
	SPDownPzDivBuy  SignalPoint = "down_pz_bc_buy"
	SPDownQsDivBuy  SignalPoint = "down_qs_bc_buy"

	SPFirstSell      SignalPoint = "1sell"
	SPSecondSell     SignalPoint = "2sell"
	SPLikeSecondSell SignalPoint = "l2sell"
	SPThirdSell      SignalPoint = "3sell"
	SPLikeThirdSell  SignalPoint = "l3sell"
	SPUpBiDivSell    SignalPoint = "up_bi_bc_sell"
	SPUpXdDivSell    SignalPoint = "up_xd_bc_sell"
	SPUpPzDivSell    SignalPoint = "up_pz_bc_sell"
	SPUpQsDivSell    SignalPoint = "up_qs_bc_sell"
)

var buyPoints = map[SignalPoint]bool{
	SPFirstBuy:      true,
	SPSecondBuy:     true,
	SPLikeSecondBuy: true,
	SPThirdBuy:      true,
	SPLikeThirdBuy:  true,
	SPDownBiDivBuy:  true,
	SPDownXdDivBuy:  true,
	SPDownPzDivBuy:  true,
	SPDownQsDivBuy:  true,
}

var sellPoints = map[SignalPoint]bool{
	SPFirstSell:      true,
	SPSecondSell:     true,
	SPLikeSecondSell: true,
	SPThirdSell:      true,
	SPLikeThirdSell:  true,
	SPUpBiDivSell:    true,
	SPUpXdDivSell:    true,
	SPUpPzDivSell:    true,
	SPUpQsDivSell:    true,
}

// IsBuy reports whether the point carries a long bias.
func (s SignalPoint) IsBuy() bool { return buyPoints[s] }

// IsSell reports whether the point carries a short bias.
func (s SignalPoint) IsSell() bool { return sellPoints[s] }

// Valid reports whether the point belongs to the closed enumeration.
func (s SignalPoint) Valid() bool { return buyPoints[s] || sellPoints[s] }

// AllSignalPoints returns every signal point, buy points first. The order is
// stable so statistics tables render deterministically.
func AllSignalPoints() []SignalPoint {
	return []SignalPoint{
		SPFirstBuy, SPSecondBuy, SPLikeSecondBuy, SPThirdBuy, SPLikeThirdBuy,
		SPDownBiDivBuy, SPDownXdDivBuy, SPDownPzDivBuy, SPDownQsDivBuy,
		SPFirstSell, SPSecondSell, SPLikeSecondSell, SPThirdSell, SPLikeThirdSell,
		SPUpBiDivSell, SPUpXdDivSell, SPUpPzDivSell, SPUpQsDivSell,
	}
}
