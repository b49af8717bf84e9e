package domain

import "testing"

func TestRequestPriorityValid(t *testing.T) {
	for _, p := range []RequestPriority{PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent, PriorityCritical} {
		if !p.Valid() {
			t.Errorf("priority %v should be valid", p)
		}
	}
	for _, p := range []RequestPriority{0, -1, 6, 100} {
		if p.Valid() {
			t.Errorf("priority %v should be invalid", p)
		}
	}
}

func TestRequestPriorityString(t *testing.T) {
	cases := map[RequestPriority]string{
		PriorityLow:      "low",
		PriorityNormal:   "normal",
		PriorityHigh:     "high",
		PriorityUrgent:   "urgent",
		PriorityCritical: "critical",
		0:                "unknown",
	}
	for p, want := range cases {
		if got := p.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(p), got, want)
		}
	}
}

func TestRequestPriorityOrdering(t *testing.T) {
	if PriorityCritical <= PriorityLow {
		t.Error("critical must outrank low")
	}
	if PriorityUrgent <= PriorityNormal {
		t.Error("urgent must outrank normal")
	}
}
