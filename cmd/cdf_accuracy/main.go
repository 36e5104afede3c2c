package main

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	blackscholes "github.com/jwaldner/blackscholes/blackscholes_lib"
)

// Compare both cumulative normal approximations against gonum's erfc-based CDF
func main() {
	fmt.Println("🎯 Cumulative Normal Accuracy")
	fmt.Println("=============================")

	reference := distuv.UnitNormal

	fmt.Printf("%8s %22s %12s %12s\n", "x", "reference", "single err", "double err")
	var worstSingle, worstDouble float64
	for x := -8.0; x <= 8.0; x += 0.5 {
		want := reference.CDF(x)
		single := math.Abs(blackscholes.CumulativeSingle(x) - want)
		double := math.Abs(blackscholes.CumulativeDouble(x) - want)
		worstSingle = math.Max(worstSingle, single)
		worstDouble = math.Max(worstDouble, double)
		fmt.Printf("%8.2f %22.16e %12.3e %12.3e\n", x, want, single, double)
	}

	fmt.Println()
	fmt.Printf("📊 Worst absolute error: single %.3e | double %.3e\n", worstSingle, worstDouble)

	// Same option priced under each precision
	fmt.Println()
	fmt.Println("💰 Call S=100 X=100 r=5% t=365d vol=20%")
	for _, p := range []string{"single", "double"} {
		g := blackscholes.NewEngineForced(p).Price(true, 100, 100, 5, 365, 20)
		fmt.Printf("   %-6s price %.10f delta %.10f\n", p, g.Price, g.Delta)
	}
}
