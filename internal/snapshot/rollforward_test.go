package snapshot

import "testing"

func TestEquityRollforward_AddsRealizedPnLAndCapitalFlow(t *testing.T) {
	got := EquityRollforward(100000, 500, -200, false)
	want := 100000 + 500 - 200
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestEquityRollforward_IgnoresPnLAndFlowWhenPriorDayAbandoned(t *testing.T) {
	got := EquityRollforward(100000, 99999, 99999, true)
	if got != 100000 {
		t.Fatalf("got %v, want unchanged previous balance 100000", got)
	}
}
