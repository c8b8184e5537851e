package monitor

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"stockmon/internal/logger"
	"stockmon/internal/models"
)

// Evaluator runs the per-symbol alert checks. It mutates SymbolState (the
// minute baseline and the one-shot target flags) and decides which
// conditions hold; delivering notifications is the dispatcher's concern.
type Evaluator struct{}

// Evaluate applies one quote to the symbol state and returns the alert
// candidates for this tick, in check order: volume spike, price move,
// price warning, target prices.
func (Evaluator) Evaluate(sym models.Symbol, st *models.SymbolState, q models.Quote, now time.Time) []models.Alert {
	st.Price = q.Price
	st.PrevClose = q.LastClose
	st.Volume = q.Volume
	st.Amount = q.Amount / 10000 // raw currency units -> 万
	if st.PrevClose > 0 {
		st.ChangePercent = changePercent(st.Price, st.PrevClose)
	}
	st.LastUpdate = now

	minute, second := now.Minute(), now.Second()
	var alerts []models.Alert

	// Opening tick of a new minute: capture the turnover baseline. At most
	// one reset per minute boundary.
	if second == 0 && minute != st.BaselineMinute {
		st.BaselineAmount = st.Amount
		st.BaselineMinute = minute
		logger.Debug("%s minute baseline reset: %.2f万", sym.Code, st.Amount)
	}

	// Trailing window of the minute: check the intra-minute turnover delta.
	// The 58-59 window tolerates a missed second-59 tick.
	if second >= 58 && st.BaselineAmount > 0 {
		delta := st.Amount - st.BaselineAmount
		if delta > sym.VolumeThreshold {
			alerts = append(alerts, models.Alert{
				Code:          sym.Code,
				Label:         sym.Label,
				Kind:          models.VolumeSpike,
				Title:         "volume alert",
				Message:       fmt.Sprintf("turnover up %.2f万 within the minute", delta),
				Price:         st.Price,
				ChangePercent: st.ChangePercent,
				VolumeDelta:   delta,
				DetectedAt:    now,
			})
			// Re-anchor so the same surge cannot fire twice in one minute.
			st.BaselineAmount = st.Amount
		}
	}

	abs := math.Abs(st.ChangePercent)

	if abs > sym.PriceAlertRatio {
		alerts = append(alerts, models.Alert{
			Code:          sym.Code,
			Label:         sym.Label,
			Kind:          models.PriceMove,
			Title:         "price alert",
			Message:       fmt.Sprintf("%s %.2f%%", direction(st.ChangePercent), abs),
			Price:         st.Price,
			ChangePercent: st.ChangePercent,
			DetectedAt:    now,
		})
	}

	// Stricter tier, deliberately not exclusive with the one above: a big
	// enough move produces both candidates in the same tick.
	if abs > sym.PriceWarningRatio {
		alerts = append(alerts, models.Alert{
			Code:          sym.Code,
			Label:         sym.Label,
			Kind:          models.PriceWarning,
			Title:         "price swing warning",
			Message:       fmt.Sprintf("%s %.2f%%", direction(st.ChangePercent), abs),
			Critical:      true,
			Price:         st.Price,
			ChangePercent: st.ChangePercent,
			DetectedAt:    now,
		})
	}

	for _, target := range sym.TargetPrices {
		if st.Triggered[target] || st.Price < target {
			continue
		}
		st.Triggered[target] = true
		alerts = append(alerts, models.Alert{
			Code:          sym.Code,
			Label:         sym.Label,
			Kind:          models.TargetReached,
			Title:         "target price reached",
			Message:       fmt.Sprintf("reached target %.2f, now %.2f", target, st.Price),
			Critical:      true,
			Price:         st.Price,
			ChangePercent: st.ChangePercent,
			TargetPrice:   target,
			DetectedAt:    now,
		})
	}

	return alerts
}

// changePercent computes round((price-prevClose)/prevClose*100, 2) exactly,
// without float drift around the half-cent boundary.
func changePercent(price, prevClose float64) float64 {
	p := decimal.NewFromFloat(price)
	c := decimal.NewFromFloat(prevClose)
	v, _ := p.Sub(c).Div(c).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return v
}

func direction(changePercent float64) string {
	if changePercent > 0 {
		return "up"
	}
	return "down"
}
