package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	blackscholes "github.com/jwaldner/blackscholes/blackscholes_lib"
	"github.com/jwaldner/blackscholes/internal/config"
	"github.com/jwaldner/blackscholes/internal/handlers"
	"github.com/jwaldner/blackscholes/internal/logger"
	"github.com/jwaldner/blackscholes/internal/services"
	"github.com/jwaldner/blackscholes/internal/treasury"

	"github.com/gorilla/mux"
)

// treasuryCacheAge is how long a fetched T-bill rate is reused
const treasuryCacheAge = 6 * time.Hour

func main() {
	cfg := config.Load()

	// Initialize rotating log file with config level and path
	rotation := logger.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}
	if err := logger.InitWithRotation(cfg.Logging.LogLevel, cfg.Logging.LogFile, rotation); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logger.Close()
	logger.Always.Printf("🚀 Black-Scholes calculator starting - Port: %s", cfg.Port)

	if cfg.Logging.LogLevel == "verbose" {
		fmt.Printf("⚠️  VERBOSE LOGGING ENABLED - every calculation will be logged to %s\n", cfg.Logging.LogFile)
	}

	// Initialize engine based on configuration
	engine := blackscholes.NewEngineWithConfig(blackscholes.Precision(cfg.Engine.Precision), blackscholes.SolverConfig{
		NewtonIterations:   cfg.Engine.NewtonIterations,
		NewtonTolerance:    cfg.Engine.NewtonTolerance,
		BisectionTolerance: cfg.Engine.BisectionTolerance,
		BisectionLower:     cfg.Engine.BisectionLower,
		BisectionUpper:     cfg.Engine.BisectionUpper,
		BisectionSteps:     cfg.Engine.BisectionSteps,
	})
	if string(engine.Precision()) != cfg.Engine.Precision {
		logger.Warn.Printf("⚠️ Unknown precision %q, using %s", cfg.Engine.Precision, engine.Precision())
	}
	solver := engine.SolverConfig()
	logger.Always.Printf("🔧 CDF PRECISION: %s | Newton %d iterations (tol %g) | bisection %d steps, tol %g in [%g, %g]%%",
		engine.Precision(), solver.NewtonIterations, solver.NewtonTolerance,
		solver.BisectionStepCount(), solver.BisectionTolerance, solver.BisectionLower, solver.BisectionUpper)

	// Risk-free rate for requests that omit one
	var rates treasury.RateSource = treasury.StaticRate(cfg.Rates.DefaultRate)
	if cfg.Rates.TreasuryEnabled {
		timeout := time.Duration(cfg.Rates.TreasuryTimeout) * time.Second
		rates = treasury.NewTreasuryClient(cfg.Rates.TreasuryURL, timeout, treasuryCacheAge, cfg.Rates.DefaultRate)
		logger.Info.Printf("📡 Treasury rate lookup enabled - Base URL: %s", cfg.Rates.TreasuryURL)
	} else {
		logger.Info.Printf("📌 Using static risk-free rate %.3f%%", cfg.Rates.DefaultRate)
	}

	// Initialize handlers
	calculatorHandler := handlers.NewCalculatorHandler(engine, services.NewRequestService(rates))

	// Setup router
	r := mux.NewRouter()
	calculatorHandler.RegisterRoutes(r)

	// Start server
	fmt.Printf("🌐 Server starting on http://localhost:%s\n", cfg.Port)
	logger.Always.Printf("🌐 Server starting on http://localhost:%s", cfg.Port)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
