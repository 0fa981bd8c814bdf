package riskrecords

import (
	"errors"
	"testing"
)

func TestParseStatusAcceptsKnownValues(t *testing.T) {
	for _, raw := range []string{"Pending", "Cleared", "Referred"} {
		status, err := ParseStatus(raw)
		if err != nil {
			t.Fatalf("ParseStatus(%q): %v", raw, err)
		}
		if string(status) != raw {
			t.Fatalf("expected %q, got %q", raw, status)
		}
	}
}

func TestParseStatusRejectsUnknownValues(t *testing.T) {
	for _, raw := range []string{"", "cleared", "PENDING", "Approved", "Referred "} {
		if _, err := ParseStatus(raw); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("ParseStatus(%q): expected ErrInvalidInput, got %v", raw, err)
		}
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusCleared, true},
		{StatusPending, StatusReferred, true},
		{StatusPending, StatusPending, true},
		{StatusCleared, StatusCleared, true},
		{StatusReferred, StatusReferred, true},
		{StatusCleared, StatusReferred, false},
		{StatusReferred, StatusCleared, false},
		{StatusCleared, StatusPending, false},
		{StatusReferred, StatusPending, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	if StatusPending.Terminal() {
		t.Fatal("Pending must not be terminal")
	}
	if !StatusCleared.Terminal() || !StatusReferred.Terminal() {
		t.Fatal("Cleared and Referred must be terminal")
	}
}
