package pokemon

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raywall/pokedex-service/easyrepo"
	"github.com/rs/zerolog/log"
)

// DefaultLimit é o tamanho de página usado quando Options.DefaultLimit não é informado.
const DefaultLimit = 5

// MaxLimit é o maior tamanho de página aceito por FindAll.
const MaxLimit = 1000

// Options configura o Service.
type Options struct {
	DefaultLimit int
	Observer     easyrepo.Observer
	Clock        func() time.Time
}

// Pagination são os parâmetros de FindAll. Zero significa "usar o padrão".
type Pagination struct {
	Limit  int `json:"limit" validate:"gte=0,max=1000"`
	Offset int `json:"offset" validate:"gte=0"`
}

// Service implementa as operações sobre o catálogo de pokémons.
type Service struct {
	svc          *easyrepo.EasyService[Pokemon]
	defaultLimit int
	now          func() time.Time
}

// NewService cria o Service sobre qualquer Repository (DynamoDB ou fake).
func NewService(repo Repository, opts Options) *Service {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = DefaultLimit
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	svcOpts := []easyrepo.ServiceOption[Pokemon]{easyrepo.WithEntity[Pokemon](Entity)}
	if opts.Observer != nil {
		svcOpts = append(svcOpts, easyrepo.WithObserver[Pokemon](opts.Observer))
	}

	s := &Service{
		svc:          easyrepo.NewService(repo, svcOpts...),
		defaultLimit: opts.DefaultLimit,
		now:          opts.Clock,
	}
	s.svc.OnCreate(s.stampCreate)
	s.svc.OnUpdate(s.stampUpdate)
	return s
}

func (s *Service) stampCreate(_ context.Context, p *Pokemon) error {
	p.Name = strings.ToLower(p.Name)
	p.Kind = Kind
	ts := s.now().Unix()
	p.CreatedAt, p.UpdatedAt = ts, ts
	return nil
}

func (s *Service) stampUpdate(_ context.Context, changes map[string]any, _ *Pokemon) error {
	changes["updatedAt"] = s.now().Unix()
	return nil
}

// Create normaliza o nome e insere um novo registro.
func (s *Service) Create(ctx context.Context, in CreatePokemon) (*Pokemon, error) {
	if err := s.svc.Validate(ctx, in); err != nil {
		return nil, err
	}
	record := in.Record()
	return s.svc.Create(ctx, &record)
}

// FindAll devolve registros ordenados por "no", pulando Offset e limitados a Limit.
func (s *Service) FindAll(ctx context.Context, page Pagination) ([]Pokemon, error) {
	if err := s.svc.Validate(ctx, page); err != nil {
		return nil, err
	}
	limit := page.Limit
	if limit == 0 {
		limit = s.defaultLimit
	}
	return s.svc.List(ctx, page.Offset, limit)
}

// FindOne resolve key por no, id e name, nesta ordem; a primeira busca que
// encontrar um registro encerra a cadeia.
func (s *Service) FindOne(ctx context.Context, key string) (*Pokemon, error) {
	for _, lookup := range ClassifyKey(key).Plan() {
		var (
			found *Pokemon
			err   error
		)
		if lookup.Field == FieldID {
			found, err = s.svc.Get(ctx, lookup.Value)
		} else {
			found, err = s.svc.FindBy(ctx, lookup.Field, lookup.Value)
		}
		if err == nil {
			return found, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		log.Ctx(ctx).Debug().Str("field", lookup.Field).Str("key", key).Msg("busca sem resultado")
	}
	return nil, notFound(key)
}

// Update resolve key, grava apenas os campos do patch e devolve o registro
// anterior sobreposto pelo patch.
func (s *Service) Update(ctx context.Context, key string, patch Patch) (*Pokemon, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.FindOne(ctx, key)
	if err != nil {
		return nil, err
	}

	patch = patch.Normalize()
	if patch.Empty() {
		return existing, nil
	}

	changes := patch.Changes()
	if err := s.svc.Update(ctx, existing.ID, existing, changes); err != nil {
		return nil, err
	}

	merged := patch.Apply(*existing)
	if ts, ok := changes["updatedAt"].(int64); ok {
		merged.UpdatedAt = ts
	}
	return &merged, nil
}

// Remove apaga o registro com o identificador informado.
func (s *Service) Remove(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return notFound(id)
	}

	n, err := s.svc.Delete(ctx, parsed.String())
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

// Replace substitui todo o catálogo pelas entradas informadas.
func (s *Service) Replace(ctx context.Context, entries []CreatePokemon) ([]Pokemon, error) {
	records := make([]Pokemon, 0, len(entries))
	for _, e := range entries {
		records = append(records, e.Record())
	}
	return s.svc.Replace(ctx, records)
}
