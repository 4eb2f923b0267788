package pokemon

import (
	"github.com/raywall/pokedex-service/dyndb"
	"github.com/raywall/pokedex-service/easyrepo"
)

// Índices globais da tabela.
const (
	IndexNo      = "no-index"
	IndexName    = "name-index"
	IndexListing = "kind-no-index"
)

// Repository é o contrato de armazenamento usado pelo Service.
type Repository = easyrepo.Repository[Pokemon]

// TableConfig descreve a tabela: id gerado automaticamente, no e name únicos.
func TableConfig(table string) dyndb.TableConfig[Pokemon] {
	return dyndb.TableConfig[Pokemon]{
		TableName: table,
		HashKey:   FieldID,
		Unique:    []string{FieldNo, FieldName},
		AutoID:    true,
	}
}

// NewRepository monta o repositório DynamoDB com os índices de busca e listagem.
func NewRepository(client dyndb.DynamoDBClient, table string, opts ...easyrepo.RepositoryOption[Pokemon]) *easyrepo.EasyRepository[Pokemon] {
	base := []easyrepo.RepositoryOption[Pokemon]{
		easyrepo.WithIndex[Pokemon](FieldNo, IndexNo),
		easyrepo.WithIndex[Pokemon](FieldName, IndexName),
		easyrepo.WithListing[Pokemon](easyrepo.Listing{
			Index:        IndexListing,
			KeyAttribute: "kind",
			KeyValue:     Kind,
		}),
	}
	return easyrepo.NewRepository(client, TableConfig(table), append(base, opts...)...)
}
