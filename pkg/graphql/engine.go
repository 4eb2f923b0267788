package graphql

import (
	"context"

	"github.com/graphql-go/graphql"
	"github.com/raywall/pokedex-service/pokemon"
)

// Catalogue são as operações do pokemon.Service expostas pelo schema.
type Catalogue interface {
	Create(ctx context.Context, in pokemon.CreatePokemon) (*pokemon.Pokemon, error)
	FindAll(ctx context.Context, page pokemon.Pagination) ([]pokemon.Pokemon, error)
	FindOne(ctx context.Context, key string) (*pokemon.Pokemon, error)
	Update(ctx context.Context, key string, patch pokemon.Patch) (*pokemon.Pokemon, error)
	Remove(ctx context.Context, id string) error
}

type GraphQLEngine struct {
	Schema graphql.Schema
}

func NewGraphQLEngine(catalogue Catalogue) (*GraphQLEngine, error) {
	schema, err := buildSchema(&resolver{catalogue: catalogue})
	if err != nil {
		return nil, err
	}
	return &GraphQLEngine{Schema: schema}, nil
}

func (ge *GraphQLEngine) Execute(ctx context.Context, query, operation string, variables map[string]interface{}) *graphql.Result {
	params := graphql.Params{
		Schema:         ge.Schema,
		RequestString:  query,
		OperationName:  operation,
		VariableValues: variables,
		Context:        ctx,
	}
	return graphql.Do(params)
}
