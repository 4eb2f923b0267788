package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/raywall/pokedex-service/pkg/config"
)

// ValidationReport contém o resultado detalhado da análise.
type ValidationReport struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Analyze inspeciona combinações de configuração que passam na validação
// estrutural mas não funcionam (ou funcionam mal) em produção.
func Analyze(cfg *config.AppConfig) *ValidationReport {
	report := &ValidationReport{
		Errors:   []string{},
		Warnings: []string{},
	}

	if rl := cfg.RateLimit; rl.Enabled {
		// a chave da janela usa segundos Unix
		if rl.Window < time.Second || rl.Window%time.Second != 0 {
			report.Errors = append(report.Errors, fmt.Sprintf("RateLimit.Window: %s não é múltiplo de 1s", rl.Window))
		}
		if cfg.Runtime == config.RuntimeLambda && isLocalhost(rl.Redis.Addr) {
			report.Warnings = append(report.Warnings, "RateLimit.Redis.Addr aponta para localhost no runtime lambda")
		}
	}

	if cfg.Runtime == config.RuntimeLambda && isLocalhost(cfg.DynamoDB.Endpoint) {
		report.Warnings = append(report.Warnings, "DynamoDB.Endpoint aponta para localhost no runtime lambda")
	}

	if cfg.Metrics.Datadog.Enabled && !strings.HasSuffix(cfg.Metrics.Datadog.Namespace, ".") && cfg.Metrics.Datadog.Namespace != "" {
		report.Warnings = append(report.Warnings, fmt.Sprintf("Metrics.Datadog.Namespace '%s' sem '.' final", cfg.Metrics.Datadog.Namespace))
	}

	if cfg.Seed.Limit > 2000 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("Seed.Limit %d excede o catálogo da PokéAPI", cfg.Seed.Limit))
	}

	report.Valid = len(report.Errors) == 0
	return report
}

func isLocalhost(addr string) bool {
	return strings.Contains(addr, "localhost") || strings.Contains(addr, "127.0.0.1")
}
