// Package dyndb fornece uma abstração genérica e fortemente tipada sobre o
// AWS DynamoDB Go SDK (v2).
//
// Visão Geral:
// O pacote `dyndb` oferece a interface `Store[T]`, que simplifica as operações
// CRUD e Batch, eliminando a necessidade de lidar diretamente com os tipos
// de baixo nível do SDK do DynamoDB (AttributeValue, etc.).
//
// A principal característica é o `QueryBuilder[T]`, que permite construir
// consultas (`Query` e `Scan`) complexas de forma fluente e segura em tempo
// de compilação, abstraindo as Expression Builders do SDK.
//
// Funcionalidades Principais:
// - CRUD Tipado: Operações `Get`, `Put`, `Delete` usando tipos Go nativos.
// - Escrita Condicional: `Insert` (falha com *ConditionalError se a chave já
//   existir), `Update` parcial (SET/REMOVE) e `Remove` com contagem.
// - Unicidade: atributos em `TableConfig.Unique` ganham itens marcadores
//   gravados na mesma transação (`TransactWriteItems`) do item principal.
// - Batch Otimizado: `BatchWrite`, `BatchGet` e `BatchInsert` com reenvio
//   de itens não processados, além de `Truncate`.
// - Paginação por Offset: `Page` percorre um índice ordenado pela sort key.
// - Builder Fluente: `Query().KeyEqual(...).FilterEqual(...).Exec(...)` para consultas.
// - Paginação Automática: Conversão de `LastEvaluatedKey` em tokens Base64 para paginação.
// - Mocks Integrados: `MockStore` e `MockDynamoClient` para testes unitários fáceis.
//
// Exemplos de Uso:
//
// Exemplo Básico de Store e CRUD:
// Demonstra como criar o Store e realizar operações básicas.
//
//	type Pokemon struct {
//		ID   string `dynamodbav:"id"`
//		No   int    `dynamodbav:"no"`
//		Name string `dynamodbav:"name"`
//	}
//
//	cfg := dyndb.TableConfig[Pokemon]{
//		TableName: "pokemon",
//		HashKey:   "id",
//		Unique:    []string{"no", "name"},
//		AutoID:    true,
//	}
//	store := dyndb.New(client, cfg) // client: *dynamodb.Client ou &dyndb.MockDynamoClient{}
//
//	created, err := store.Insert(ctx, Pokemon{No: 25, Name: "pikachu"})
//	var dup *dyndb.ConditionalError
//	if errors.As(err, &dup) { /* dup.Attribute == "name" */ }
//
//	err = store.Update(ctx, created.ID, nil, map[string]any{"name": "raichu"})
//	n, err := store.Remove(ctx, created.ID, nil) // n == 0 quando não existia
//
// Exemplo de Query Fluente:
//
//	results, token, err := store.Query().
//		Index("name-index").
//		KeyEqual("name", "pikachu").
//		Limit(1).
//		Exec(ctx)
//
// Exemplo de Página por Offset:
//
//	page, err := store.Page(ctx, dyndb.PageRequest{
//		Index: "kind-no-index", KeyAttribute: "kind", KeyValue: "pokemon",
//		Offset: 10, Limit: 5,
//	})
//
// Configuração:
// O Store é configurado via `TableConfig[T]` ou usando variáveis de ambiente
// para a configuração da tabela (HashKey, SortKey, etc.).
package dyndb
