package matchmaker

import "testing"

func TestApplyMatchOutcomeEvenRatingsGainsExactlyHalfK(t *testing.T) {
	a := &Rating{Value: 1200, Volatility: 0.5}
	b := &Rating{Value: 1200, Volatility: 0.5}

	ApplyMatchOutcome(a, b, 1)

	if got := a.Value - 1200; got != 16 {
		t.Fatalf("expected winner to gain 16, got %v", got)
	}
	if got := 1200 - b.Value; got != 16 {
		t.Fatalf("expected loser to lose 16, got %v", got)
	}
}

func TestApplyMatchOutcomeConservesSum(t *testing.T) {
	a := &Rating{Value: 1400, Volatility: 0.3}
	b := &Rating{Value: 1100, Volatility: 0.7}
	before := a.Value + b.Value

	ApplyMatchOutcome(a, b, 0)

	after := a.Value + b.Value
	if before != after {
		t.Fatalf("expected rating sum to be conserved, before=%v after=%v", before, after)
	}
}
