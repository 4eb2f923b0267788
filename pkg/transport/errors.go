package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/raywall/pokedex-service/pokemon"
	"github.com/rs/zerolog/log"
)

// ErrorResponse é o corpo de toda resposta de erro da API.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// requestError é um problema na própria requisição (JSON inválido, query malformada).
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error { return &requestError{msg: msg} }

// statusFor mapeia a taxonomia de erros do serviço para HTTP.
func statusFor(err error) int {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest
	case errors.Is(err, pokemon.ErrInvalidInput), errors.Is(err, pokemon.ErrDuplicateKey):
		return http.StatusBadRequest
	case errors.Is(err, pokemon.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError escreve o erro no formato padrão. Erros que não pertencem à
// taxonomia nunca têm a mensagem original exposta.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := err.Error()
	var internal *pokemon.InternalError
	if status >= http.StatusInternalServerError && !errors.As(err, &internal) {
		msg = "internal server error"
	}

	log.Ctx(r.Context()).Warn().
		Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Msg("requisição com erro")

	respondJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    msg,
	})
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("falha ao serializar resposta")
	}
}
