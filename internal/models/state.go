package models

import "time"

// SymbolState is the mutable per-symbol state, exclusively owned by the
// alert evaluator.
type SymbolState struct {
	Code string

	Price         float64
	PrevClose     float64
	Volume        int64
	Amount        float64 // cumulative turnover, 万 units
	ChangePercent float64

	// Turnover baseline captured at the start of the current minute.
	// BaselineMinute is -1 before the first capture.
	BaselineAmount float64
	BaselineMinute int

	// Target price -> already fired. Monotonic for the process lifetime:
	// once true, never reset, even if the price dips back below.
	Triggered map[float64]bool

	LastUpdate time.Time
}

// NewSymbolState creates the initial state for a symbol.
func NewSymbolState(sym Symbol) *SymbolState {
	st := &SymbolState{
		Code:           sym.Code,
		BaselineMinute: -1,
		Triggered:      make(map[float64]bool, len(sym.TargetPrices)),
	}
	for _, p := range sym.TargetPrices {
		st.Triggered[p] = false
	}
	return st
}
