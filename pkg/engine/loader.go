package engine

import (
	"context"

	"github.com/raywall/pokedex-service/pkg/awsconf"
	"github.com/raywall/pokedex-service/pkg/config"
	"github.com/raywall/pokedex-service/pkg/config/injector"
)

// Load lê a configuração (arquivo opcional + ambiente) e resolve os
// placeholders ${ssm.*} e ${secret.*}. A configuração AWS devolvida é
// carregada uma única vez e reaproveitada pelos clients do serviço.
func Load(ctx context.Context, path string) (*config.AppConfig, *awsconf.Lazy, error) {
	var lazy *awsconf.Lazy
	loader := config.Loader{
		Path: path,
		Injector: func(cfg *config.AppConfig) *injector.Injector {
			lazy = awsconf.NewLazy(cfg.AWS.Region)
			return injector.New(awsconf.Resolvers(lazy)...)
		},
	}

	cfg, err := loader.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	return cfg, lazy, nil
}
