package injector_test

import (
	"context"
	"errors"
	"testing"

	"github.com/raywall/pokedex-service/pkg/config/injector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestConfig struct {
	APIKey      string                 `yaml:"api_key"`     // Caso 1: Interpolação String "${env.KEY}"
	Description string                 `yaml:"description"` // Caso 2: Texto misto "Service running in ${env.REGION}"
	Meta        map[string]interface{} // Caso 3: Map Dinâmico
	Labels      map[string]string
	Nested      *NestedConfig
	Hosts       []string
}

type NestedConfig struct {
	URL      string
	Password string
}

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestInjector_Inject_Environment(t *testing.T) {
	inj := injector.New(injector.WithLookup(env(map[string]string{
		"API_KEY": "12345-abcde",
		"REGION":  "us-east-1",
		"DB_HOST": "localhost",
	})))

	target := &TestConfig{
		APIKey:      "${env.API_KEY}",
		Description: "Service running in ${env.REGION}",
		Meta: map[string]interface{}{
			"db_host": "${env.DB_HOST}",
			"timeout": 5000, // Inteiro não deve ser tocado
			"nested":  map[string]interface{}{"region": "${env.REGION}"},
		},
		Labels: map[string]string{"region": "${env.REGION}"},
		Nested: &NestedConfig{
			URL: "https://${env.REGION}.api.com",
		},
		Hosts: []string{"${env.DB_HOST}:6379"},
	}

	err := inj.Inject(context.Background(), target)
	require.NoError(t, err)

	assert.Equal(t, "12345-abcde", target.APIKey, "Interpolação direta falhou")
	assert.Equal(t, "Service running in us-east-1", target.Description, "Interpolação mista falhou")
	assert.Equal(t, "localhost", target.Meta["db_host"], "Interpolação em mapa falhou")
	assert.Equal(t, 5000, target.Meta["timeout"])
	assert.Equal(t, "us-east-1", target.Meta["nested"].(map[string]interface{})["region"])
	assert.Equal(t, "us-east-1", target.Labels["region"])
	assert.Equal(t, "https://us-east-1.api.com", target.Nested.URL, "Interpolação aninhada falhou")
	assert.Equal(t, []string{"localhost:6379"}, target.Hosts)
}

func TestInjector_Inject_Resolvers(t *testing.T) {
	var asked []string
	ssm := injector.ResolverFunc(func(_ context.Context, key string) (string, error) {
		asked = append(asked, key)
		return "s3cr3t", nil
	})

	inj := injector.New(injector.WithResolver("ssm", ssm))
	target := &TestConfig{Nested: &NestedConfig{Password: "${ssm./pokedex/redis/password}"}}

	require.NoError(t, inj.Inject(context.Background(), target))
	assert.Equal(t, "s3cr3t", target.Nested.Password)
	assert.Equal(t, []string{"/pokedex/redis/password"}, asked)
}

func TestInjector_Inject_Errors(t *testing.T) {
	t.Run("fonte não registrada", func(t *testing.T) {
		target := &TestConfig{APIKey: "${secret.dd-api-key}"}
		err := injector.New().Inject(context.Background(), target)
		assert.ErrorContains(t, err, "nenhuma fonte registrada")
	})

	t.Run("falha da fonte", func(t *testing.T) {
		boom := errors.New("AccessDenied")
		inj := injector.New(injector.WithResolver("secret", injector.ResolverFunc(
			func(context.Context, string) (string, error) { return "", boom },
		)))
		err := inj.Inject(context.Background(), &TestConfig{APIKey: "${secret.dd-api-key}"})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("target inválido", func(t *testing.T) {
		assert.Error(t, injector.New().Inject(context.Background(), TestConfig{}))
	})
}
