package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/raywall/pokedex-service/pkg/config"
	"github.com/raywall/pokedex-service/pkg/engine"
	"github.com/raywall/pokedex-service/pkg/transport"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var (
	configPath string
	// Variáveis injetáveis para mocking
	serverStarter = transport.StartHTTPServer
	lambdaStarter = lambda.Start
)

func init() {
	// opcional: sem arquivo a configuração vem só do ambiente
	configPath = os.Getenv("CONFIG_FILE_PATH")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, configPath); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

// run contém a lógica principal testável
func run(ctx context.Context, cfgPath string) error {
	cfg, lazy, err := engine.Load(ctx, cfgPath)
	if err != nil {
		return err
	}

	awsCfg, err := lazy.Get(ctx)
	if err != nil {
		return err
	}

	svcEngine, err := engine.NewServiceEngine(cfg, awsCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svcEngine.Close(context.Background()); err != nil {
			zlog.Warn().Err(err).Msg("falha ao liberar recursos")
		}
	}()

	for _, w := range engine.Analyze(cfg).Warnings {
		zlog.Warn().Msg(w)
	}

	switch cfg.Runtime {
	case config.RuntimeLocal:
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return serverStarter(gctx, cfg.Address(), svcEngine.Handler(), cfg.ShutdownTimeout)
		})
		if svcEngine.SQSSeeder != nil {
			g.Go(func() error { return svcEngine.SQSSeeder.Start(gctx) })
		}
		return g.Wait()
	case config.RuntimeLambda:
		handler := transport.NewLambdaHandler(svcEngine.Handler())
		lambdaStarter(handler.Handle)
		return nil
	default:
		// bloqueado pelo validador de configuração
		return nil
	}
}
