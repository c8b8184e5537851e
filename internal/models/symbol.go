// Package models defines the core domain entities: symbols, quotes, and alerts.
package models

import "errors"

// Symbol is one monitored security. It is immutable after configuration
// load; all runtime data lives in SymbolState.
type Symbol struct {
	Market  int    `mapstructure:"market"` // exchange market code
	Code    string `mapstructure:"code"`   // ticker code
	Label   string `mapstructure:"label"`  // human-readable name
	Enabled bool   `mapstructure:"enabled"`

	// Alert thresholds.
	VolumeThreshold   float64 `mapstructure:"volume_threshold"`    // intra-minute turnover delta, 万 units
	PriceAlertRatio   float64 `mapstructure:"price_alert_ratio"`   // percent
	PriceWarningRatio float64 `mapstructure:"price_warning_ratio"` // percent, critical tier

	// Target prices that fire a one-time alert when crossed.
	TargetPrices []float64 `mapstructure:"target_prices"`
}

// Validate checks symbol field constraints.
func (s *Symbol) Validate() error {
	if s.Code == "" {
		return errors.New("symbol code must not be empty")
	}
	if s.Label == "" {
		return errors.New("symbol label must not be empty")
	}
	if s.Market < 0 {
		return errors.New("market code must not be negative")
	}
	if s.VolumeThreshold < 0 {
		return errors.New("volume threshold must not be negative")
	}
	if s.PriceAlertRatio < 0 {
		return errors.New("price alert ratio must not be negative")
	}
	if s.PriceWarningRatio < 0 {
		return errors.New("price warning ratio must not be negative")
	}
	for _, p := range s.TargetPrices {
		if p <= 0 {
			return errors.New("target prices must be positive")
		}
	}
	return nil
}

// Quote is one point-in-time record from the feed. Amount is in raw
// currency units; consumers divide by 10 000 for 万-unit comparisons.
type Quote struct {
	Code      string  `json:"code"`
	Price     float64 `json:"price"`
	LastClose float64 `json:"last_close"`
	Volume    int64   `json:"vol"`
	Amount    float64 `json:"amount"`
}
