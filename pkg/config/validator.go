package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ConfigValidator struct {
	validate *validator.Validate
}

// NewValidator cria uma nova instância do validador
func NewValidator() *ConfigValidator {
	return &ConfigValidator{
		validate: validator.New(),
	}
}

// Validate realiza validações estruturais (tags) e semânticas (lógica)
func (cv *ConfigValidator) Validate(cfg *AppConfig) error {
	if err := cv.validate.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			var errMsgs []string
			for _, e := range validationErrors {
				errMsgs = append(errMsgs, fmt.Sprintf("Campo '%s' falhou na regra '%s'", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("erros de validação estrutural:\n- %s", strings.Join(errMsgs, "\n- "))
		}
		return fmt.Errorf("erro de validação estrutural: %w", err)
	}

	if err := cv.validateSemantics(cfg); err != nil {
		return fmt.Errorf("erro de validação semântica: %w", err)
	}

	return nil
}

func (cv *ConfigValidator) validateSemantics(cfg *AppConfig) error {
	// Rotas do GraphQL e do seed vivem sob o mesmo prefixo da API
	if cfg.GraphQL.Enabled && strings.HasPrefix(cfg.GraphQL.Route, "/pokemon") {
		return fmt.Errorf("rota graphql '%s' conflita com as rotas de pokemon", cfg.GraphQL.Route)
	}

	if src := cfg.Seed.Source; src != "pokeapi" && !strings.HasPrefix(src, "s3://") {
		return fmt.Errorf("seed source inválido: '%s'. Use 'pokeapi' ou 's3://bucket/chave'", src)
	}

	if cfg.Runtime == RuntimeLambda && cfg.Seed.QueueURL != "" {
		return fmt.Errorf("seed por fila SQS não é suportado no runtime lambda")
	}

	return nil
}
