package models

import "testing"

func validSymbol() Symbol {
	return Symbol{
		Market:            2,
		Code:              "920579",
		Label:             "Test Co",
		Enabled:           true,
		VolumeThreshold:   50,
		PriceAlertRatio:   2.0,
		PriceWarningRatio: 3.0,
		TargetPrices:      []float64{24.0, 24.5},
	}
}

func TestSymbolValidate(t *testing.T) {
	s := validSymbol()
	if err := s.Validate(); err != nil {
		t.Fatalf("valid symbol rejected: %v", err)
	}
}

func TestSymbolValidate_Invalid(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Symbol)
	}{
		{"empty code", func(s *Symbol) { s.Code = "" }},
		{"empty label", func(s *Symbol) { s.Label = "" }},
		{"negative market", func(s *Symbol) { s.Market = -1 }},
		{"negative volume threshold", func(s *Symbol) { s.VolumeThreshold = -1 }},
		{"negative alert ratio", func(s *Symbol) { s.PriceAlertRatio = -0.5 }},
		{"negative warning ratio", func(s *Symbol) { s.PriceWarningRatio = -0.5 }},
		{"zero target price", func(s *Symbol) { s.TargetPrices = []float64{0} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := validSymbol()
			tc.mutate(&s)
			if err := s.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestNewSymbolState(t *testing.T) {
	st := NewSymbolState(validSymbol())

	if st.Code != "920579" {
		t.Errorf("got code %s, want 920579", st.Code)
	}
	if st.BaselineMinute != -1 {
		t.Errorf("got baseline minute %d, want -1", st.BaselineMinute)
	}
	if len(st.Triggered) != 2 {
		t.Fatalf("got %d target flags, want 2", len(st.Triggered))
	}
	for target, fired := range st.Triggered {
		if fired {
			t.Errorf("target %.2f should start untriggered", target)
		}
	}
}
