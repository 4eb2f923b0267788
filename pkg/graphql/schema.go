package graphql

import (
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

// jsonScalar carrega o mapa livre de atributos sem tipá-lo no schema.
var jsonScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "JSON",
	Description: "Objeto JSON arbitrário",
	Serialize:   func(value interface{}) interface{} { return value },
	ParseValue:  func(value interface{}) interface{} { return value },
	ParseLiteral: func(valueAST ast.Value) interface{} {
		return parseLiteral(valueAST)
	},
})

func parseLiteral(v ast.Value) interface{} {
	switch v := v.(type) {
	case *ast.ObjectValue:
		out := make(map[string]interface{}, len(v.Fields))
		for _, f := range v.Fields {
			out[f.Name.Value] = parseLiteral(f.Value)
		}
		return out
	case *ast.ListValue:
		out := make([]interface{}, len(v.Values))
		for i, item := range v.Values {
			out[i] = parseLiteral(item)
		}
		return out
	case *ast.IntValue:
		return graphql.Int.ParseLiteral(v)
	case *ast.FloatValue:
		return graphql.Float.ParseLiteral(v)
	case *ast.BooleanValue:
		return v.Value
	case *ast.StringValue:
		return v.Value
	case *ast.EnumValue:
		return v.Value
	default:
		return nil
	}
}

var pokemonType = graphql.NewObject(graphql.ObjectConfig{
	Name:        "Pokemon",
	Description: "Registro da pokédex",
	Fields: graphql.Fields{
		"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"no":         &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"name":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"type":       &graphql.Field{Type: graphql.String},
		"attributes": &graphql.Field{Type: jsonScalar},
		"createdAt":  &graphql.Field{Type: graphql.Int},
		"updatedAt":  &graphql.Field{Type: graphql.Int},
	},
})

// buildSchema constrói o objeto Schema do GraphQL
func buildSchema(r *resolver) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"pokemon": &graphql.Field{
				Type: pokemonType,
				Args: graphql.FieldConfigArgument{
					"term": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.findOne,
			},
			"pokemons": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(pokemonType))),
				Args: graphql.FieldConfigArgument{
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int},
					"offset": &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: r.findAll,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createPokemon": &graphql.Field{
				Type: pokemonType,
				Args: graphql.FieldConfigArgument{
					"no":         &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"name":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"type":       &graphql.ArgumentConfig{Type: graphql.String},
					"attributes": &graphql.ArgumentConfig{Type: jsonScalar},
				},
				Resolve: r.create,
			},
			"updatePokemon": &graphql.Field{
				Type: pokemonType,
				Args: graphql.FieldConfigArgument{
					"term":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"no":         &graphql.ArgumentConfig{Type: graphql.Int},
					"name":       &graphql.ArgumentConfig{Type: graphql.String},
					"type":       &graphql.ArgumentConfig{Type: graphql.String},
					"attributes": &graphql.ArgumentConfig{Type: jsonScalar},
				},
				Resolve: r.update,
			},
			"removePokemon": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.remove,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}
