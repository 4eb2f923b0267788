package pokemon

import "github.com/raywall/pokedex-service/easyrepo"

// Entity é o nome usado nas mensagens de erro.
const Entity = "Pokemon"

var (
	ErrNotFound     = easyrepo.ErrNotFound
	ErrDuplicateKey = easyrepo.ErrDuplicateKey
	ErrInvalidInput = easyrepo.ErrInvalidInput
	ErrInternal     = easyrepo.ErrInternal
)

type (
	NotFoundError     = easyrepo.NotFoundError
	DuplicateKeyError = easyrepo.DuplicateKeyError
	InternalError     = easyrepo.InternalError
	ValidationError   = easyrepo.ValidationError
)

func notFound(key string) error {
	return &NotFoundError{Entity: Entity, Key: key}
}
