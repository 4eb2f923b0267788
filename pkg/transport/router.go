package transport

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// RouterConfig descreve como montar as rotas da API.
type RouterConfig struct {
	BasePath       string
	GraphQLRoute   string
	RequestTimeout time.Duration
	// RateLimit é aplicado às rotas da API quando não for nil.
	RateLimit func(http.Handler) http.Handler
}

// NewRouter registra as rotas de pokemon, seed, graphql e health.
func NewRouter(cfg RouterConfig, h *Handler) http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, badRequest("Cannot "+r.Method+" "+r.URL.Path), http.StatusNotFound)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, badRequest("Cannot "+r.Method+" "+r.URL.Path), http.StatusMethodNotAllowed)
	})

	router.HandleFunc("/health", h.health).Methods(http.MethodGet)

	api := router.PathPrefix(cfg.BasePath).Subrouter()
	api.Use(TimeoutMiddleware(cfg.RequestTimeout))
	if cfg.RateLimit != nil {
		api.Use(cfg.RateLimit)
	}

	api.HandleFunc("/pokemon", h.create).Methods(http.MethodPost)
	api.HandleFunc("/pokemon", h.list).Methods(http.MethodGet)
	api.HandleFunc("/pokemon/{term}", h.findOne).Methods(http.MethodGet)
	api.HandleFunc("/pokemon/{term}", h.update).Methods(http.MethodPatch)
	api.HandleFunc("/pokemon/{id}", h.remove).Methods(http.MethodDelete)

	if h.seeder != nil {
		api.HandleFunc("/seed", h.seed).Methods(http.MethodGet, http.MethodPost)
	}
	if h.gql != nil {
		route := cfg.GraphQLRoute
		if route == "" {
			route = "/graphql"
		}
		api.HandleFunc(route, h.executeGraphQL).Methods(http.MethodPost)
	}

	return ObservabilityMiddleware(router)
}
