package main

import (
	"errors"
	"fmt"

	blackscholes "github.com/jwaldner/blackscholes/blackscholes_lib"
)

// Show how quotes at, above and below the intrinsic value solve
func main() {
	fmt.Println("🧪 Zero Volatility and Signed Implied Volatility")
	fmt.Println("================================================")

	engine := blackscholes.NewEngine()

	S, X, rate, days := 110.0, 100.0, 5.0, 30.0
	intrinsic := engine.Intrinsic(true, S, X, rate, days)
	g := engine.Price(true, S, X, rate, days, 0)

	fmt.Printf("📊 Call S=%.2f X=%.2f r=%.1f%% t=%.0fd\n", S, X, rate, days)
	fmt.Printf("   intrinsic %.6f | delta %.4f | gamma %v | vega %.4f\n", intrinsic, g.Delta, g.Gamma, g.Vega)
	fmt.Println()

	quotes := []struct {
		label string
		price float64
	}{
		{"at intrinsic", intrinsic},
		{"above intrinsic", intrinsic + 0.50},
		{"below intrinsic", intrinsic - 0.20},
		{"unreachable", 500},
	}

	for _, q := range quotes {
		iv, err := engine.ImpliedVolatility(true, S, X, rate, days, q.price)
		switch {
		case errors.Is(err, blackscholes.ErrNotConverged):
			fmt.Printf("   %-16s %10.4f → ❌ %v\n", q.label, q.price, err)
		case iv < 0:
			fmt.Printf("   %-16s %10.4f → ⚠️  %.4f%% (below intrinsic)\n", q.label, q.price, iv)
		default:
			fmt.Printf("   %-16s %10.4f → ✅ %.4f%%\n", q.label, q.price, iv)
		}
	}

	// At-the-money forward the zero-volatility price is 0/0
	fmt.Println()
	fmt.Printf("🎯 ATM forward intrinsic: %v\n", engine.Intrinsic(true, X, X, 0, days))
}
