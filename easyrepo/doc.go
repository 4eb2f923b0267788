/*
Package easyrepo fornece uma abstração genérica para o padrão Service-Repository
utilizando Amazon DynamoDB.

O objetivo deste pacote é reduzir o boilerplate em microserviços Go, entregando:
  - Validação de entrada automática via struct tags (validator/v10).
  - Operações CRUD padronizadas com suporte a Generics.
  - Tradução das falhas do dyndb para uma taxonomia de erros estável
    (NotFoundError, DuplicateKeyError, InternalError, ValidationError).
  - Integração simplificada com o toolkit dyndb (índices por campo e
    paginação ordenada por offset/limit).

Exemplo de uso:

	type Pokemon struct {
		ID   string `dynamodbav:"id"`
		No   int    `dynamodbav:"no" validate:"min=1"`
		Name string `dynamodbav:"name" validate:"required"`
	}

	repo := easyrepo.NewRepository(dynamoClient, tableConfig,
		easyrepo.WithIndex[Pokemon]("name", "name-index"),
	)
	service := easyrepo.NewService[Pokemon](repo, easyrepo.WithEntity[Pokemon]("pokemon"))

	_, err := service.Create(ctx, &Pokemon{No: 25, Name: "pikachu"})
	if errors.Is(err, easyrepo.ErrDuplicateKey) {
		// {"name":"pikachu"} já existe
	}
*/
package easyrepo
