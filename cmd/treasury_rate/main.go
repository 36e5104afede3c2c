package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jwaldner/blackscholes/internal/config"
	"github.com/jwaldner/blackscholes/internal/logger"
	"github.com/jwaldner/blackscholes/internal/treasury"
)

func main() {
	fmt.Println("🏛️ Fetching the Treasury Bill risk-free rate...")

	cfg := config.Load()
	logger.InitWithWriter("info", log.Writer())

	timeout := time.Duration(cfg.Rates.TreasuryTimeout) * time.Second
	client := treasury.NewTreasuryClient(cfg.Rates.TreasuryURL, timeout, time.Hour, cfg.Rates.DefaultRate)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	rate, err := client.GetRiskFreeRate(ctx)
	if err != nil {
		log.Printf("❌ Error fetching Treasury rate: %v", err)
	} else {
		fmt.Printf("✅ Current Treasury Bill rate: %.3f%%\n", rate)
	}

	// Falls back to the configured default when the API is unavailable
	fmt.Printf("✅ Rate used for pricing: %.3f%%\n", client.RiskFreeRate(ctx))
}
