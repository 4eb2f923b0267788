package engine

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/raywall/pokedex-service/pkg/awsconf"
	"github.com/raywall/pokedex-service/pkg/config"
	"github.com/raywall/pokedex-service/pkg/graphql"
	"github.com/raywall/pokedex-service/pkg/logger"
	"github.com/raywall/pokedex-service/pkg/metrics"
	"github.com/raywall/pokedex-service/pkg/observability"
	"github.com/raywall/pokedex-service/pkg/ratelimit"
	"github.com/raywall/pokedex-service/pkg/seed"
	"github.com/raywall/pokedex-service/pkg/transport"
	"github.com/raywall/pokedex-service/pokemon"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ServiceEngine reúne todas as dependências do serviço montadas a partir do AppConfig.
type ServiceEngine struct {
	Config        *config.AppConfig
	Logger        zerolog.Logger
	Metrics       observability.Provider
	Recorder      *metrics.Recorder
	Pokemon       *pokemon.Service
	Seeder        *seed.Service
	GraphQLEngine *graphql.GraphQLEngine
	Limiter       *ratelimit.Limiter
	SQSSeeder     *transport.SQSSeeder

	redis *redis.Client
}

func NewServiceEngine(cfg *config.AppConfig, awsCfg aws.Config) (*ServiceEngine, error) {
	log := logger.Configure(cfg.Logging, cfg.Name)

	metricProvider, err := observability.SetupMetrics(cfg.Metrics, cfg.Name)
	if err != nil {
		return nil, fmt.Errorf("falha métricas: %w", err)
	}
	recorder := metrics.NewRecorder(metricProvider)

	ddb := awsconf.NewDynamoDB(awsCfg, cfg.DynamoDB.Endpoint)
	svc := pokemon.NewService(
		pokemon.NewRepository(ddb, cfg.DynamoDB.TableName),
		pokemon.Options{DefaultLimit: cfg.DefaultLimit, Observer: recorder},
	)

	source, err := newSeedSource(cfg.Seed, awsCfg)
	if err != nil {
		return nil, err
	}

	se := &ServiceEngine{
		Config:   cfg,
		Logger:   log,
		Metrics:  metricProvider,
		Recorder: recorder,
		Pokemon:  svc,
		Seeder:   seed.NewService(source, svc, recorder),
	}

	if cfg.GraphQL.Enabled {
		se.GraphQLEngine, err = graphql.NewGraphQLEngine(svc)
		if err != nil {
			return nil, fmt.Errorf("falha ao iniciar engine graphql: %w", err)
		}
	}

	if cfg.RateLimit.Enabled {
		se.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.Redis.Addr,
			Password: cfg.RateLimit.Redis.Password,
		})
		se.Limiter = ratelimit.NewLimiter(ratelimit.NewRedisCounter(se.redis), cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	if cfg.Seed.QueueURL != "" {
		se.SQSSeeder = transport.NewSQSSeeder(sqs.NewFromConfig(awsCfg), cfg.Seed.QueueURL, se.Seeder)
	}

	log.Info().
		Str("runtime", cfg.Runtime).
		Str("table", cfg.DynamoDB.TableName).
		Bool("graphql", cfg.GraphQL.Enabled).
		Bool("rate_limit", cfg.RateLimit.Enabled).
		Msg("Serviço inicializado")

	return se, nil
}

func newSeedSource(cfg config.SeedConf, awsCfg aws.Config) (seed.Source, error) {
	if strings.HasPrefix(cfg.Source, "s3://") {
		snapshot, err := seed.NewSnapshot(cfg.Source, s3.NewFromConfig(awsCfg))
		if err != nil {
			return nil, fmt.Errorf("falha seed: %w", err)
		}
		return snapshot, nil
	}
	return seed.NewPokeAPI(cfg.BaseURL, cfg.Limit), nil
}

// Handler monta o roteador HTTP usado tanto no runtime local quanto no lambda.
func (se *ServiceEngine) Handler() http.Handler {
	opts := []transport.HandlerOption{transport.WithSeeder(se.Seeder)}
	if se.GraphQLEngine != nil {
		opts = append(opts, transport.WithGraphQL(se.GraphQLEngine))
	}

	rc := transport.RouterConfig{
		BasePath:       se.Config.BasePath,
		GraphQLRoute:   se.Config.GraphQL.Route,
		RequestTimeout: se.Config.RequestTimeout,
	}
	if se.Limiter != nil {
		rc.RateLimit = ratelimit.Middleware(se.Limiter)
	}
	return transport.NewRouter(rc, transport.NewHandler(se.Pokemon, opts...))
}

// Close libera conexões com Redis e com o agente de métricas.
func (se *ServiceEngine) Close(_ context.Context) error {
	var errs []string
	if se.redis != nil {
		if err := se.redis.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := se.Metrics.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("falha ao encerrar: %s", strings.Join(errs, "; "))
	}
	return nil
}
