package graphql

import (
	"errors"

	"github.com/graphql-go/graphql"
	"github.com/raywall/pokedex-service/pokemon"
)

type resolver struct {
	catalogue Catalogue
}

// codedError expõe a categoria do erro em "extensions.code".
type codedError struct {
	err  error
	code string
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }
func (e *codedError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.code}
}

func coded(err error) error {
	code := "INTERNAL"
	switch {
	case errors.Is(err, pokemon.ErrNotFound):
		code = "NOT_FOUND"
	case errors.Is(err, pokemon.ErrDuplicateKey):
		code = "DUPLICATE_KEY"
	case errors.Is(err, pokemon.ErrInvalidInput):
		code = "BAD_USER_INPUT"
	}
	return &codedError{err: err, code: code}
}

func (r *resolver) findOne(p graphql.ResolveParams) (interface{}, error) {
	found, err := r.catalogue.FindOne(p.Context, toString(p.Args["term"]))
	if err != nil {
		return nil, coded(err)
	}
	return found, nil
}

func (r *resolver) findAll(p graphql.ResolveParams) (interface{}, error) {
	page := pokemon.Pagination{}
	if v, ok := p.Args["limit"].(int); ok {
		page.Limit = v
	}
	if v, ok := p.Args["offset"].(int); ok {
		page.Offset = v
	}
	items, err := r.catalogue.FindAll(p.Context, page)
	if err != nil {
		return nil, coded(err)
	}
	return items, nil
}

func (r *resolver) create(p graphql.ResolveParams) (interface{}, error) {
	in := pokemon.CreatePokemon{
		Name:       toString(p.Args["name"]),
		Type:       toString(p.Args["type"]),
		Attributes: toMap(p.Args["attributes"]),
	}
	if v, ok := p.Args["no"].(int); ok {
		in.No = v
	}
	created, err := r.catalogue.Create(p.Context, in)
	if err != nil {
		return nil, coded(err)
	}
	return created, nil
}

// update monta o Patch apenas com os argumentos informados. O graphql-go
// descarta argumentos nulos, então aqui não há como remover type/attributes.
func (r *resolver) update(p graphql.ResolveParams) (interface{}, error) {
	var patch pokemon.Patch
	if v, ok := p.Args["no"].(int); ok {
		patch.No = pokemon.Some(v)
	}
	if v, ok := p.Args["name"].(string); ok {
		patch.Name = pokemon.Some(v)
	}
	if v, ok := p.Args["type"].(string); ok {
		patch.Type = pokemon.Some(v)
	}
	if v, ok := p.Args["attributes"].(map[string]interface{}); ok {
		patch.Attributes = pokemon.Some(v)
	}

	updated, err := r.catalogue.Update(p.Context, toString(p.Args["term"]), patch)
	if err != nil {
		return nil, coded(err)
	}
	return updated, nil
}

func (r *resolver) remove(p graphql.ResolveParams) (interface{}, error) {
	if err := r.catalogue.Remove(p.Context, toString(p.Args["id"])); err != nil {
		return nil, coded(err)
	}
	return true, nil
}

func toMap(v interface{}) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	return nil
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
