package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/raywall/pokedex-service/easyrepo"
	"github.com/raywall/pokedex-service/pkg/graphql"
	"github.com/raywall/pokedex-service/pokemon"
	"github.com/rs/zerolog/log"
)

// Catalogue são as operações do pokemon.Service expostas via HTTP.
type Catalogue interface {
	Create(ctx context.Context, in pokemon.CreatePokemon) (*pokemon.Pokemon, error)
	FindAll(ctx context.Context, page pokemon.Pagination) ([]pokemon.Pokemon, error)
	FindOne(ctx context.Context, key string) (*pokemon.Pokemon, error)
	Update(ctx context.Context, key string, patch pokemon.Patch) (*pokemon.Pokemon, error)
	Remove(ctx context.Context, id string) error
}

// Seeder repopula o catálogo.
type Seeder interface {
	Run(ctx context.Context) (int, error)
}

// SeedMessage é a resposta de /seed.
const SeedMessage = "Seed executed"

const maxBodyBytes = 1 << 20

type listQuery struct {
	Limit  *int `query:"limit" validate:"omitempty,min=1,max=1000"`
	Offset *int `query:"offset" validate:"omitempty,min=0"`
}

// Handler agrupa os handlers HTTP da API.
type Handler struct {
	catalogue Catalogue
	seeder    Seeder
	gql       *graphql.GraphQLEngine
	validate  *validator.Validate
}

type HandlerOption func(*Handler)

func WithSeeder(s Seeder) HandlerOption {
	return func(h *Handler) { h.seeder = s }
}

func WithGraphQL(engine *graphql.GraphQLEngine) HandlerOption {
	return func(h *Handler) { h.gql = engine }
}

func NewHandler(catalogue Catalogue, opts ...HandlerOption) *Handler {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("query"); name != "" {
			return name
		}
		return f.Name
	})
	h := &Handler{catalogue: catalogue, validate: v}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func decodeBody(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		return badRequest(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in pokemon.CreatePokemon
	if err := decodeBody(r, &in); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	created, err := h.catalogue.Create(r.Context(), in)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func queryInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, badRequest(fmt.Sprintf("%s must be an integer", name))
	}
	return &n, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var q listQuery
	var err error
	if q.Limit, err = queryInt(r, "limit"); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if q.Offset, err = queryInt(r, "offset"); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(q); err != nil {
		verr := easyrepo.NewValidationError(err)
		respondError(w, r, verr, statusFor(verr))
		return
	}

	var page pokemon.Pagination
	if q.Limit != nil {
		page.Limit = *q.Limit
	}
	if q.Offset != nil {
		page.Offset = *q.Offset
	}

	items, err := h.catalogue.FindAll(r.Context(), page)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *Handler) findOne(w http.ResponseWriter, r *http.Request) {
	found, err := h.catalogue.FindOne(r.Context(), mux.Vars(r)["term"])
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, found)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var patch pokemon.Patch
	if err := decodeBody(r, &patch); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	updated, err := h.catalogue.Update(r.Context(), mux.Vars(r)["term"], patch)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// remove exige um UUID válido; registro inexistente é tratado como requisição inválida.
func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := uuid.Parse(id); err != nil {
		respondError(w, r, badRequest(fmt.Sprintf("%s is not a valid id", id)), http.StatusBadRequest)
		return
	}

	if err := h.catalogue.Remove(r.Context(), id); err != nil {
		status := statusFor(err)
		if errors.Is(err, pokemon.ErrNotFound) {
			status = http.StatusBadRequest
		}
		respondError(w, r, err, status)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) seed(w http.ResponseWriter, r *http.Request) {
	n, err := h.seeder.Run(r.Context())
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	log.Ctx(r.Context()).Info().Int("records", n).Msg("seed via http")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, SeedMessage)
}

type graphqlRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

func (h *Handler) executeGraphQL(w http.ResponseWriter, r *http.Request) {
	var p graphqlRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&p); err != nil {
		respondError(w, r, badRequest("invalid JSON body"), http.StatusBadRequest)
		return
	}

	result := h.gql.Execute(r.Context(), p.Query, p.OperationName, p.Variables)
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
