package config

import (
	"fmt"
	"time"
)

// Runtimes suportados pelo binário do serviço.
const (
	RuntimeLocal  = "local"
	RuntimeLambda = "lambda"
)

// AppConfig representa a configuração completa do serviço de pokédex.
// A ordem de precedência é: variável de ambiente > arquivo YAML > envDefault.
type AppConfig struct {
	Name            string        `yaml:"name" env:"SERVICE_NAME" envDefault:"pokedex-service" validate:"required,hostname_rfc1123"`
	Runtime         string        `yaml:"runtime" env:"RUNTIME" envDefault:"local" validate:"required,oneof=local lambda"`
	Port            int           `yaml:"port" env:"PORT" envDefault:"3000" validate:"required_if=Runtime local,gte=0,lte=65535"`
	BasePath        string        `yaml:"base_path" env:"BASE_PATH" envDefault:"/api/v2" validate:"required,startswith=/"`
	DefaultLimit    int           `yaml:"default_limit" env:"DEFAULT_LIMIT" envDefault:"5" validate:"gte=1"`
	RequestTimeout  time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT" envDefault:"30s" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" envDefault:"10s" validate:"gt=0"`

	Logging   LoggingConf   `yaml:"logging"`
	AWS       AWSConf       `yaml:"aws"`
	DynamoDB  DynamoDBConf  `yaml:"dynamodb"`
	Metrics   MetricsConf   `yaml:"metrics"`
	RateLimit RateLimitConf `yaml:"rate_limit"`
	Seed      SeedConf      `yaml:"seed"`
	GraphQL   GraphQLConf   `yaml:"graphql"`
}

type LoggingConf struct {
	Enabled bool   `yaml:"enabled" env:"LOG_ENABLED" envDefault:"true"`
	Level   string `yaml:"level" env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	Format  string `yaml:"format" env:"LOG_FORMAT" envDefault:"json" validate:"oneof=json console"`
}

type AWSConf struct {
	Region string `yaml:"region" env:"AWS_REGION" envDefault:"us-east-1" validate:"required"`
}

type DynamoDBConf struct {
	TableName string `yaml:"table_name" env:"DYNAMODB_TABLE_NAME" envDefault:"pokemon" validate:"required"`
	// Endpoint aponta para um DynamoDB local (ex: http://localhost:8000).
	Endpoint string `yaml:"endpoint" env:"DYNAMODB_ENDPOINT" validate:"omitempty,url"`
}

type MetricsConf struct {
	Datadog DatadogConf `yaml:"datadog"`
}

type DatadogConf struct {
	Enabled   bool   `yaml:"enabled" env:"DD_ENABLED"`
	Addr      string `yaml:"addr" env:"DD_AGENT_HOST" validate:"required_if=Enabled true"`
	Namespace string `yaml:"namespace" env:"DD_NAMESPACE" envDefault:"pokedex."`
}

type RateLimitConf struct {
	Enabled  bool          `yaml:"enabled" env:"RATE_LIMIT_ENABLED"`
	Requests int64         `yaml:"requests" env:"RATE_LIMIT_REQUESTS" envDefault:"100" validate:"gte=1"`
	Window   time.Duration `yaml:"window" env:"RATE_LIMIT_WINDOW" envDefault:"1m" validate:"gt=0"`
	Redis    RedisConf     `yaml:"redis"`
}

type RedisConf struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
}

type SeedConf struct {
	// Source é "pokeapi" ou um snapshot "s3://bucket/chave.json".
	Source   string `yaml:"source" env:"SEED_SOURCE" envDefault:"pokeapi" validate:"required"`
	BaseURL  string `yaml:"base_url" env:"SEED_POKEAPI_URL" envDefault:"https://pokeapi.co/api/v2/pokemon" validate:"required,url"`
	Limit    int    `yaml:"limit" env:"SEED_LIMIT" envDefault:"650" validate:"gte=1"`
	QueueURL string `yaml:"queue_url" env:"SEED_QUEUE_URL" validate:"omitempty,url"`
}

type GraphQLConf struct {
	Enabled bool   `yaml:"enabled" env:"GRAPHQL_ENABLED"`
	Route   string `yaml:"route" env:"GRAPHQL_ROUTE" envDefault:"/graphql" validate:"startswith=/"`
}

// Address devolve o endereço de escuta do servidor HTTP local.
func (c AppConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}
