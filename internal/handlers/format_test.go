package handlers

import (
	"math"
	"testing"
)

func TestFormatters(t *testing.T) {
	tests := []struct {
		name    string
		display string
		want    string
	}{
		{"currency", formatCurrency(1234.565).Display, "$1234.57"},
		{"currency negative", formatCurrency(-0.125).Display, "$-0.13"},
		{"percentage", formatPercentage(5.255).Display, "5.26%"},
		{"greek", formatGreek(0.123456).Display, "0.1235"},
		{"fraction", formatFraction(4.375).Display, "4 3/8"},
		{"nan", formatGreek(math.NaN()).Display, notAvailable},
		{"inf", formatCurrency(math.Inf(1)).Display, notAvailable},
	}

	for _, tt := range tests {
		if tt.display != tt.want {
			t.Errorf("%s: display = %q, want %q", tt.name, tt.display, tt.want)
		}
	}

	if fv := formatGreek(math.NaN()); fv.Raw != nil {
		t.Errorf("NaN raw = %v, want nil", fv.Raw)
	}
}
