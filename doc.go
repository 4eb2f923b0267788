// Package pokedex é o serviço de catálogo de pokémons: uma API CRUD sobre
// DynamoDB que roda como servidor HTTP local ou como AWS Lambda.
//
// Visão Geral:
// Cada registro tem um id (UUID gerado), um número "no" e um nome únicos,
// além de tipo e atributos livres. Um registro pode ser buscado pelo número,
// pelo id ou pelo nome, nessa ordem de precedência.
//
// Sub-Pacotes Principais:
//
// 1. pokemon:
//   - Modelo, classificação de chaves de busca e o Service com create,
//     findAll, findOne, update (patch) e remove.
//
// 2. easyrepo e dyndb:
//   - Repositório genérico com unicidade transacional por atributo e
//     paginação ordenada por offset/limit.
//   - Taxonomia de erros (NotFound, DuplicateKey, Internal, Validation).
//
// 3. envloader e pkg/config:
//   - Configuração por variáveis de ambiente e YAML opcional, com
//     placeholders ${env.X}, ${ssm.X} e ${secret.X}.
//
// 4. pkg/transport:
//   - Rotas REST sob BASE_PATH, GraphQL opcional, rate limit em Redis,
//     adaptador API Gateway e seed disparado por SQS.
//
// 5. pkg/seed:
//   - Repopula o catálogo a partir da PokéAPI ou de um snapshot no S3.
//
// Execução:
//
//	CONFIG_FILE_PATH=pokedex.yaml go run ./cmd/server
//	go run ./cmd/toolkit validate -file pokedex.yaml
//	go run ./cmd/toolkit seed -file pokedex.yaml
package pokedex
