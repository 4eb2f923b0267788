package injector

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"
)

// Regex para capturar padrões ${tipo.chave}
// Ex: ${env.REDIS_PASSWORD}, ${ssm./pokedex/redis}, ${secret.pokedex-dd}
var pattern = regexp.MustCompile(`\$\{(env|ssm|secret)\.([^}]+)\}`)

// Resolver busca o valor de uma chave em uma fonte externa (SSM, Secrets Manager...).
type Resolver interface {
	Resolve(ctx context.Context, key string) (string, error)
}

// ResolverFunc adapta uma função ao contrato Resolver.
type ResolverFunc func(ctx context.Context, key string) (string, error)

func (f ResolverFunc) Resolve(ctx context.Context, key string) (string, error) {
	return f(ctx, key)
}

type Option func(*Injector)

// WithResolver registra a fonte usada para placeholders ${source.chave}.
func WithResolver(source string, r Resolver) Option {
	return func(i *Injector) {
		i.resolvers[source] = r
	}
}

// WithLookup substitui os.LookupEnv na fonte "env".
func WithLookup(fn func(string) (string, bool)) Option {
	return func(i *Injector) {
		i.lookup = fn
	}
}

type Injector struct {
	resolvers map[string]Resolver
	lookup    func(string) (string, bool)
}

func New(opts ...Option) *Injector {
	i := &Injector{
		resolvers: map[string]Resolver{},
		lookup:    os.LookupEnv,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Injector) Inject(ctx context.Context, target interface{}) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("target deve ser um ponteiro para struct não nulo")
	}
	return i.injectRecursive(ctx, v.Elem())
}

func (i *Injector) injectRecursive(ctx context.Context, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Struct:
		for k := 0; k < v.NumField(); k++ {
			value := v.Field(k)
			if !value.CanSet() {
				continue
			}
			if err := i.injectRecursive(ctx, value); err != nil {
				return err
			}
		}

	case reflect.String:
		if !v.CanSet() {
			return nil
		}
		newValue, err := i.interpolateString(ctx, v.String())
		if err != nil {
			return err
		}
		v.SetString(newValue)

	case reflect.Map:
		if v.Type().Key().Kind() == reflect.String && !v.IsNil() {
			return i.injectMap(ctx, v)
		}

	case reflect.Ptr:
		if !v.IsNil() {
			return i.injectRecursive(ctx, v.Elem())
		}

	case reflect.Slice:
		for j := 0; j < v.Len(); j++ {
			if err := i.injectRecursive(ctx, v.Index(j)); err != nil {
				return err
			}
		}
	}
	return nil
}

// interpolateString realiza a substituição baseada em Regex
func (i *Injector) interpolateString(ctx context.Context, input string) (string, error) {
	if !strings.Contains(input, "${") {
		return input, nil
	}

	var err error
	result := pattern.ReplaceAllStringFunc(input, func(match string) string {
		if err != nil {
			return match
		}
		groups := pattern.FindStringSubmatch(match)
		val, resolveErr := i.fetchValue(ctx, groups[1], groups[2])
		if resolveErr != nil {
			err = resolveErr
			return match
		}
		return val
	})

	return result, err
}

// injectMap lida com mapas dinâmicos (map[string]string e map[string]interface{})
func (i *Injector) injectMap(ctx context.Context, v reflect.Value) error {
	iter := v.MapRange()
	updates := make(map[string]reflect.Value)

	for iter.Next() {
		key := iter.Key()
		elem := iter.Value()
		if elem.Kind() == reflect.Interface {
			elem = elem.Elem()
		}
		if !elem.IsValid() {
			continue
		}

		switch elem.Kind() {
		case reflect.String:
			newVal, err := i.interpolateString(ctx, elem.String())
			if err != nil {
				return err
			}
			updates[key.String()] = reflect.ValueOf(newVal).Convert(v.Type().Elem())
		case reflect.Map:
			if err := i.injectMap(ctx, elem); err != nil {
				return err
			}
		}
	}

	for k, val := range updates {
		v.SetMapIndex(reflect.ValueOf(k).Convert(v.Type().Key()), val)
	}
	return nil
}

// fetchValue centraliza a busca de dados
func (i *Injector) fetchValue(ctx context.Context, sourceType, key string) (string, error) {
	if sourceType == "env" {
		val, _ := i.lookup(key)
		return val, nil
	}

	r, ok := i.resolvers[sourceType]
	if !ok {
		return "", fmt.Errorf("nenhuma fonte registrada para ${%s.%s}", sourceType, key)
	}
	val, err := r.Resolve(ctx, key)
	if err != nil {
		return "", fmt.Errorf("falha ao resolver ${%s.%s}: %w", sourceType, key, err)
	}
	return val, nil
}
