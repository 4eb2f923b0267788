package pokemon

import (
	"math"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/google/uuid"
)

// Lookup é uma estratégia de busca: o campo consultado e o valor.
type Lookup struct {
	Field string
	Value any
}

const (
	FieldNo   = "no"
	FieldID   = "id"
	FieldName = "name"
)

// Key é a classificação de uma chave de busca, feita uma única vez por chamada.
type Key struct {
	Raw string

	numeric bool
	no      any
	id      string
}

// ClassifyKey identifica se raw é um número inteiro não negativo em base 10
// ("25", "007", "+25", "25.0", "2.5e1") e/ou um identificador (UUID) válido.
// Qualquer chave também é tratada como nome.
func ClassifyKey(raw string) Key {
	k := Key{Raw: raw}
	switch {
	case isDigits(raw):
		k.numeric = true
		if n, err := strconv.Atoi(raw); err == nil {
			k.no = n
		} else {
			// maior que int: segue como número DynamoDB (até 38 dígitos)
			k.no = attributevalue.Number(raw)
		}
	default:
		if n, ok := wholeNumber(raw); ok {
			k.numeric = true
			k.no = n
		}
	}
	if id, err := uuid.Parse(raw); err == nil {
		k.id = id.String()
	}
	return k
}

func (k Key) IsNumeric() bool { return k.numeric }

func (k Key) IsID() bool { return k.id != "" }

// Plan devolve as buscas na ordem de precedência: no, id, name.
func (k Key) Plan() []Lookup {
	plan := make([]Lookup, 0, 3)
	if k.numeric {
		plan = append(plan, Lookup{Field: FieldNo, Value: k.no})
	}
	if k.id != "" {
		plan = append(plan, Lookup{Field: FieldID, Value: k.id})
	}
	return append(plan, Lookup{Field: FieldName, Value: k.Raw})
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// maxExactWhole é o maior inteiro que um float64 representa sem perda.
const maxExactWhole = 1 << 53

// wholeNumber aceita a notação decimal de um inteiro não negativo com sinal,
// ponto ou expoente. Hexadecimal, Inf e NaN ficam de fora.
func wholeNumber(s string) (int, bool) {
	if s == "" || strings.Trim(s, "0123456789+-.eE") != "" || !strings.ContainsAny(s, "0123456789") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f > maxExactWhole || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
