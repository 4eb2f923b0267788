package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raywall/pokedex-service/easyrepo"
	"github.com/rs/zerolog/log"
)

// Recorder traduz o resultado de cada operação do serviço em métricas.
// Implementa easyrepo.Observer.
type Recorder struct {
	provider Provider
	now      func() time.Time
}

// NewRecorder cria um Recorder sobre o provider informado.
func NewRecorder(provider Provider) *Recorder {
	return &Recorder{provider: provider, now: time.Now}
}

// Observe registra contagem e latência da operação op.
func (r *Recorder) Observe(ctx context.Context, op string, started time.Time, err error) {
	tags := []string{"op:" + op, "outcome:" + Outcome(err)}
	elapsed := float64(r.now().Sub(started).Microseconds()) / 1000

	if sendErr := r.Emit(OperationCount, 1, tags); sendErr != nil {
		log.Ctx(ctx).Warn().Err(sendErr).Str("metric", OperationCount.Name).Msg("falha ao enviar métrica")
	}
	if sendErr := r.Emit(OperationLatency, elapsed, tags); sendErr != nil {
		log.Ctx(ctx).Warn().Err(sendErr).Str("metric", OperationLatency.Name).Msg("falha ao enviar métrica")
	}
}

// Emit envia value para def usando o tipo declarado.
func (r *Recorder) Emit(def MetricDefinition, value float64, tags []string) error {
	switch def.Type {
	case TypeCount:
		return r.provider.Count(def.Name, value, tags)
	case TypeGauge:
		return r.provider.Gauge(def.Name, value, tags)
	case TypeHistogram:
		return r.provider.Histogram(def.Name, value, tags)
	default:
		return fmt.Errorf("tipo de métrica desconhecido: %s", def.Type)
	}
}

// Outcome classifica err na tag usada pelas métricas.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, easyrepo.ErrNotFound):
		return "not_found"
	case errors.Is(err, easyrepo.ErrDuplicateKey):
		return "duplicate"
	case errors.Is(err, easyrepo.ErrInvalidInput):
		return "invalid"
	default:
		return "error"
	}
}

var _ easyrepo.Observer = (*Recorder)(nil)
