package awsconf

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/raywall/pokedex-service/pkg/config/injector"
)

// Interfaces para abstrair o SDK da AWS (Permite Mocking)
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type SecretsClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// ParameterResolver resolve ${ssm./caminho} no Parameter Store, com decrypt.
func ParameterResolver(client SSMClient) injector.Resolver {
	return injector.ResolverFunc(func(ctx context.Context, path string) (string, error) {
		decrypt := true
		out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           &path,
			WithDecryption: &decrypt,
		})
		if err != nil {
			return "", fmt.Errorf("erro no SSM GetParameter: %w", err)
		}
		if out.Parameter == nil || out.Parameter.Value == nil {
			return "", fmt.Errorf("parâmetro %s sem valor", path)
		}
		return *out.Parameter.Value, nil
	})
}

// SecretResolver resolve ${secret.id} no Secrets Manager. Para segredos JSON,
// ${secret.id#campo} devolve apenas o campo.
func SecretResolver(client SecretsClient) injector.Resolver {
	return injector.ResolverFunc(func(ctx context.Context, key string) (string, error) {
		secretID, field, _ := strings.Cut(key, "#")
		out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
			SecretId: &secretID,
		})
		if err != nil {
			return "", fmt.Errorf("erro no SecretsManager: %w", err)
		}
		if out.SecretString == nil {
			return "", fmt.Errorf("segredo %s sem SecretString", secretID)
		}

		val := *out.SecretString
		if field == "" {
			return val, nil
		}

		var data map[string]interface{}
		if err := json.Unmarshal([]byte(val), &data); err != nil {
			return "", fmt.Errorf("segredo %s não é JSON: %w", secretID, err)
		}
		v, ok := data[field]
		if !ok {
			return "", fmt.Errorf("campo %s ausente no segredo %s", field, secretID)
		}
		return fmt.Sprint(v), nil
	})
}

// Resolvers registra ssm e secret no injector; os clients só são criados
// se algum placeholder realmente precisar deles.
func Resolvers(lazy *Lazy) []injector.Option {
	ssmFn := injector.ResolverFunc(func(ctx context.Context, key string) (string, error) {
		cfg, err := lazy.Get(ctx)
		if err != nil {
			return "", err
		}
		return ParameterResolver(ssm.NewFromConfig(cfg)).Resolve(ctx, key)
	})
	secretFn := injector.ResolverFunc(func(ctx context.Context, key string) (string, error) {
		cfg, err := lazy.Get(ctx)
		if err != nil {
			return "", err
		}
		return SecretResolver(secretsmanager.NewFromConfig(cfg)).Resolve(ctx, key)
	})
	return []injector.Option{
		injector.WithResolver("ssm", ssmFn),
		injector.WithResolver("secret", secretFn),
	}
}
