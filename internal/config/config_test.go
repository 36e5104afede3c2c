package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	os.Unsetenv("ENGINE_PRECISION")
	os.Unsetenv("ENGINE_NEWTON_ITERATIONS")

	cfg := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))

	if cfg.Engine.Precision != "double" {
		t.Errorf("Expected double precision by default, got %q", cfg.Engine.Precision)
	}
	if cfg.Engine.NewtonIterations != 10 || cfg.Engine.NewtonTolerance != 0.01 {
		t.Errorf("Unexpected Newton defaults: %+v", cfg.Engine)
	}
	if cfg.Engine.BisectionTolerance != 0.001 || cfg.Engine.BisectionUpper != 200 {
		t.Errorf("Unexpected bisection defaults: %+v", cfg.Engine)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("ENGINE_PRECISION", "single")
	t.Setenv("ENGINE_NEWTON_TOLERANCE", "0.0001")
	t.Setenv("TREASURY_ENABLED", "true")

	cfg := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))

	if cfg.Engine.Precision != "single" {
		t.Errorf("Expected single precision from env, got %q", cfg.Engine.Precision)
	}
	if cfg.Engine.NewtonTolerance != 0.0001 {
		t.Errorf("Expected tolerance 0.0001 from env, got %v", cfg.Engine.NewtonTolerance)
	}
	if !cfg.Rates.TreasuryEnabled {
		t.Errorf("Expected treasury lookup enabled from env")
	}
}

func TestInvalidEnvFallsBack(t *testing.T) {
	t.Setenv("ENGINE_NEWTON_ITERATIONS", "lots")

	cfg := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))

	if cfg.Engine.NewtonIterations != 10 {
		t.Errorf("Expected fallback to 10 iterations, got %d", cfg.Engine.NewtonIterations)
	}
}

func TestYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
port: "9090"
logging:
  log_level: debug
engine:
  precision: single
  newton_iterations: 50
rates:
  default_rate: 5.25
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ENGINE_PRECISION", "double")

	cfg := LoadFrom(path)

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.Logging.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.Logging.LogLevel)
	}
	if cfg.Engine.Precision != "single" {
		t.Errorf("YAML should win over env, got %q", cfg.Engine.Precision)
	}
	if cfg.Engine.NewtonIterations != 50 {
		t.Errorf("NewtonIterations = %d, want 50", cfg.Engine.NewtonIterations)
	}
	if cfg.Engine.BisectionUpper != 200 {
		t.Errorf("unset YAML field should keep default, got %v", cfg.Engine.BisectionUpper)
	}
	if cfg.Rates.DefaultRate != 5.25 {
		t.Errorf("DefaultRate = %v, want 5.25", cfg.Rates.DefaultRate)
	}
}

func TestYAMLExplicitZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
engine:
  bisection_lower: 0
  bisection_steps: 45
rates:
  default_rate: 0
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DEFAULT_RATE", "3.5")
	t.Setenv("ENGINE_BISECTION_LOWER", "5")

	cfg := LoadFrom(path)

	if cfg.Rates.DefaultRate != 0 {
		t.Errorf("DefaultRate = %v, want explicit 0", cfg.Rates.DefaultRate)
	}
	if cfg.Engine.BisectionLower != 0 {
		t.Errorf("BisectionLower = %v, want explicit 0", cfg.Engine.BisectionLower)
	}
	if cfg.Engine.BisectionSteps != 45 {
		t.Errorf("BisectionSteps = %d, want 45", cfg.Engine.BisectionSteps)
	}
}

func TestBisectionBoundsFromEnv(t *testing.T) {
	t.Setenv("ENGINE_BISECTION_LOWER", "5")
	t.Setenv("ENGINE_BISECTION_STEPS", "30")

	cfg := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))

	if cfg.Engine.BisectionLower != 5 || cfg.Engine.BisectionSteps != 30 {
		t.Errorf("Engine = %+v", cfg.Engine)
	}
	if cfg.Rates.DefaultRate != 4.0 {
		t.Errorf("absent YAML should keep env default, got %v", cfg.Rates.DefaultRate)
	}
}

func TestMalformedYAMLIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("engine: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := LoadFrom(path)
	if cfg.Port == "" {
		t.Errorf("expected defaults when YAML is malformed")
	}
}
