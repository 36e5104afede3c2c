package blackscholes

import (
	"math"
	"testing"
)

func TestProbabilityAtTheMoney(t *testing.T) {
	for _, days := range []float64{1, 30, 365} {
		p := ProbabilityRange(100, 100, days, 25)
		if math.Abs(p.Below-50) > 0.1+1e-9 || math.Abs(p.Above-50) > 0.1+1e-9 {
			t.Errorf("days=%v: got %+v, want about 50/50", days, p)
		}
	}
}

func TestProbabilityDirection(t *testing.T) {
	up := ProbabilityRange(100, 110, 30, 20)
	if up.Below < 90 || up.Above > 10 {
		t.Errorf("target above price: got %+v", up)
	}

	down := ProbabilityRange(100, 100*100/110.0, 30, 20)
	if down.Above < 90 || down.Below > 10 {
		t.Errorf("target below price: got %+v", down)
	}

	// mirrored targets give mirrored odds up to truncation
	if math.Abs(up.Below-down.Above) > 0.2 {
		t.Errorf("asymmetric results: %+v vs %+v", up, down)
	}
}

func TestProbabilityTruncation(t *testing.T) {
	tests := []struct {
		price, target, days, vol float64
	}{
		{100, 105, 45, 30},
		{52.5, 48, 10, 60},
		{1200, 1500, 200, 35},
		{100, 100.5, 3, 15},
	}

	for _, tt := range tests {
		p := ProbabilityRange(tt.price, tt.target, tt.days, tt.vol)

		for _, v := range []float64{p.Below, p.Above} {
			if v < 0 || v > 100 {
				t.Errorf("%+v: %v out of range", tt, v)
			}
			if tenths := v * 10; math.Abs(tenths-math.Round(tenths)) > 1e-6 {
				t.Errorf("%+v: %v is not on a 0.1 grid", tt, v)
			}
		}
		// flooring both sides can only lose mass
		if sum := p.Below + p.Above; sum > 100+1e-9 || sum < 99.8-1e-9 {
			t.Errorf("%+v: below+above = %v", tt, sum)
		}
	}
}
