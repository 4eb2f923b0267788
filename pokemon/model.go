package pokemon

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/raywall/pokedex-service/easyrepo"
)

// Kind é o valor constante do atributo "kind", chave de partição do índice
// usado na listagem ordenada por "no".
const Kind = "pokemon"

// Pokemon é o registro persistido.
type Pokemon struct {
	ID         string         `json:"id" dynamodbav:"id"`
	No         int            `json:"no" dynamodbav:"no" validate:"min=1"`
	Name       string         `json:"name" dynamodbav:"name" validate:"required,lowercase"`
	Type       string         `json:"type,omitempty" dynamodbav:"type,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty" dynamodbav:"attributes,omitempty"`
	Kind       string         `json:"-" dynamodbav:"kind"`
	CreatedAt  int64          `json:"createdAt,omitempty" dynamodbav:"createdAt,omitempty"`
	UpdatedAt  int64          `json:"updatedAt,omitempty" dynamodbav:"updatedAt,omitempty"`
}

// CreatePokemon é a entrada de Create.
type CreatePokemon struct {
	No         int            `json:"no" validate:"required,min=1"`
	Name       string         `json:"name" validate:"required"`
	Type       string         `json:"type,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Record converte a entrada em registro com o nome normalizado.
func (c CreatePokemon) Record() Pokemon {
	return Pokemon{
		No:         c.No,
		Name:       strings.ToLower(c.Name),
		Type:       c.Type,
		Attributes: c.Attributes,
		Kind:       Kind,
	}
}

// Option representa um campo opcional de um patch: ausente, nulo ou presente.
type Option[T any] struct {
	value T
	set   bool
	null  bool
}

func Some[T any](v T) Option[T] { return Option[T]{value: v, set: true} }

func Null[T any]() Option[T] { return Option[T]{set: true, null: true} }

// Get devolve o valor e se ele foi informado (e não é nulo).
func (o Option[T]) Get() (T, bool) { return o.value, o.set && !o.null }

func (o Option[T]) IsSet() bool { return o.set }

func (o Option[T]) IsNull() bool { return o.set && o.null }

func (o *Option[T]) UnmarshalJSON(b []byte) error {
	o.set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.null = true
		return nil
	}
	return json.Unmarshal(b, &o.value)
}

func (o Option[T]) MarshalJSON() ([]byte, error) {
	if !o.set || o.null {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// Patch descreve uma atualização parcial. Somente campos informados são
// gravados; type/attributes nulos são removidos do registro.
type Patch struct {
	No         Option[int]            `json:"no"`
	Name       Option[string]         `json:"name"`
	Type       Option[string]         `json:"type"`
	Attributes Option[map[string]any] `json:"attributes"`
}

// Empty informa se nenhum campo foi informado.
func (p Patch) Empty() bool {
	return !p.No.IsSet() && !p.Name.IsSet() && !p.Type.IsSet() && !p.Attributes.IsSet()
}

// Validate rejeita no < 1, nome vazio e nulos em campos obrigatórios.
func (p Patch) Validate() error {
	fields := map[string]string{}
	if p.No.IsNull() {
		fields["no"] = "cannot be null"
	} else if no, ok := p.No.Get(); ok && no < 1 {
		fields["no"] = "must be at least 1"
	}
	if p.Name.IsNull() {
		fields["name"] = "cannot be null"
	} else if name, ok := p.Name.Get(); ok && strings.TrimSpace(name) == "" {
		fields["name"] = "is required"
	}
	if len(fields) > 0 {
		return &easyrepo.ValidationError{Fields: fields, Err: easyrepo.ErrInvalidInput}
	}
	return nil
}

// Normalize devolve uma cópia com o nome em minúsculas.
func (p Patch) Normalize() Patch {
	if name, ok := p.Name.Get(); ok {
		p.Name = Some(strings.ToLower(name))
	}
	return p
}

// Changes converte o patch no mapa de atributos aceito pelo repositório.
func (p Patch) Changes() map[string]any {
	changes := map[string]any{}
	if v, ok := p.No.Get(); ok {
		changes["no"] = v
	}
	if v, ok := p.Name.Get(); ok {
		changes["name"] = v
	}
	if p.Type.IsNull() {
		changes["type"] = nil
	} else if v, ok := p.Type.Get(); ok {
		changes["type"] = v
	}
	if p.Attributes.IsNull() {
		changes["attributes"] = nil
	} else if v, ok := p.Attributes.Get(); ok {
		changes["attributes"] = v
	}
	return changes
}

// Apply sobrepõe os campos informados ao registro (merge raso).
func (p Patch) Apply(r Pokemon) Pokemon {
	if v, ok := p.No.Get(); ok {
		r.No = v
	}
	if v, ok := p.Name.Get(); ok {
		r.Name = v
	}
	if p.Type.IsNull() {
		r.Type = ""
	} else if v, ok := p.Type.Get(); ok {
		r.Type = v
	}
	if p.Attributes.IsNull() {
		r.Attributes = nil
	} else if v, ok := p.Attributes.Get(); ok {
		r.Attributes = v
	}
	return r
}
