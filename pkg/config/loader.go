package config

import (
	"context"
	"fmt"
	"os"

	"github.com/raywall/pokedex-service/envloader"
	"github.com/raywall/pokedex-service/pkg/config/injector"
	"gopkg.in/yaml.v3"
)

// Loader monta o AppConfig: envDefault, depois o arquivo YAML (se houver),
// depois as variáveis de ambiente e por fim os placeholders ${...}.
type Loader struct {
	// Path do arquivo YAML opcional (CONFIG_FILE_PATH).
	Path string
	// Lookup substitui os.LookupEnv.
	Lookup func(string) (string, bool)
	// Injector é criado após a leitura, pois as fontes AWS dependem da região configurada.
	Injector func(cfg *AppConfig) *injector.Injector
}

// Load lê, interpola e valida a configuração.
func (l Loader) Load(ctx context.Context) (*AppConfig, error) {
	var envOpts []envloader.Option
	if l.Lookup != nil {
		envOpts = append(envOpts, envloader.WithLookup(l.Lookup))
	}

	cfg := &AppConfig{}
	if err := envloader.Load(cfg, envOpts...); err != nil {
		return nil, fmt.Errorf("erro ao ler variáveis de ambiente: %w", err)
	}

	if l.Path != "" {
		data, err := os.ReadFile(l.Path)
		if err != nil {
			return nil, fmt.Errorf("erro ao ler arquivo de configuração: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("erro ao fazer parse do YAML: %w", err)
		}
		// o ambiente tem precedência sobre o arquivo
		if err := envloader.Load(cfg, append(envOpts, envloader.WithoutDefaults())...); err != nil {
			return nil, fmt.Errorf("erro ao ler variáveis de ambiente: %w", err)
		}
	}

	inj := injector.New()
	if l.Injector != nil {
		inj = l.Injector(cfg)
	} else if l.Lookup != nil {
		inj = injector.New(injector.WithLookup(l.Lookup))
	}
	if err := inj.Inject(ctx, cfg); err != nil {
		return nil, fmt.Errorf("erro ao resolver placeholders: %w", err)
	}

	if err := NewValidator().Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
