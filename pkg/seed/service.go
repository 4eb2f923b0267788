package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/raywall/pokedex-service/pkg/metrics"
	"github.com/raywall/pokedex-service/pokemon"
	"github.com/rs/zerolog/log"
)

// Replacer é a parte do pokemon.Service usada pelo seed.
type Replacer interface {
	Replace(ctx context.Context, entries []pokemon.CreatePokemon) ([]pokemon.Pokemon, error)
}

// Service apaga o catálogo atual e grava o conteúdo da Source.
type Service struct {
	source   Source
	target   Replacer
	recorder *metrics.Recorder
}

func NewService(source Source, target Replacer, recorder *metrics.Recorder) *Service {
	return &Service{source: source, target: target, recorder: recorder}
}

// Run executa o seed e devolve quantos registros foram gravados.
func (s *Service) Run(ctx context.Context) (int, error) {
	started := time.Now()
	logger := log.Ctx(ctx).With().Str("source", s.source.Name()).Logger()

	entries, err := s.source.Fetch(ctx)
	if err != nil {
		return 0, err
	}

	written, err := s.target.Replace(ctx, entries)
	if err != nil {
		return 0, fmt.Errorf("seed: falha ao gravar catálogo: %w", err)
	}

	if s.recorder != nil {
		if err := s.recorder.Emit(metrics.SeedRecords, float64(len(written)), []string{"source:" + s.source.Name()}); err != nil {
			logger.Warn().Err(err).Msg("falha ao enviar métrica de seed")
		}
	}

	logger.Info().
		Int("records", len(written)).
		Dur("elapsed", time.Since(started)).
		Msg("seed executado")
	return len(written), nil
}
