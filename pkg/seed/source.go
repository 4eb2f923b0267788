package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/raywall/pokedex-service/pokemon"
)

// Source devolve o catálogo usado para popular a tabela.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]pokemon.CreatePokemon, error)
}

// entry é o formato da listagem da PokeAPI ({name, url}); snapshots podem
// trazer "no" e "type" explícitos.
type entry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	No   int    `json:"no"`
	Type string `json:"type"`
}

type listResponse struct {
	Results []entry `json:"results"`
}

// NumberFromURL extrai o número da pokédex de ".../pokemon/25/".
func NumberFromURL(raw string) (int, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return 0, fmt.Errorf("url inválida %q: %w", raw, err)
	}
	seg := path.Base(strings.TrimSuffix(u.Path, "/"))
	n, err := strconv.Atoi(seg)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("url %q não termina com o número do pokémon", raw)
	}
	return n, nil
}

func toRecords(entries []entry) ([]pokemon.CreatePokemon, error) {
	out := make([]pokemon.CreatePokemon, 0, len(entries))
	for _, e := range entries {
		no := e.No
		if no == 0 {
			n, err := NumberFromURL(e.URL)
			if err != nil {
				return nil, err
			}
			no = n
		}
		out = append(out, pokemon.CreatePokemon{No: no, Name: e.Name, Type: e.Type})
	}
	return out, nil
}

// HTTPDoer abstrai o *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// PokeAPI lê a listagem pública https://pokeapi.co/api/v2/pokemon?limit=N.
type PokeAPI struct {
	BaseURL string
	Limit   int
	Client  HTTPDoer
}

func NewPokeAPI(baseURL string, limit int) *PokeAPI {
	return &PokeAPI{
		BaseURL: baseURL,
		Limit:   limit,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *PokeAPI) Name() string { return "pokeapi" }

func (p *PokeAPI) Fetch(ctx context.Context) ([]pokemon.CreatePokemon, error) {
	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("seed: base url inválida: %w", err)
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(p.Limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("seed: falha ao consultar pokeapi: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("seed: pokeapi respondeu %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var list listResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("seed: resposta da pokeapi inválida: %w", err)
	}
	return toRecords(list.Results)
}

// S3Client interface para Mock
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Snapshot lê um JSON do S3: um array de entradas ou o próprio formato da PokeAPI.
type Snapshot struct {
	Bucket string
	Key    string
	Client S3Client
}

// ParseS3URI separa "s3://bucket/chave".
func ParseS3URI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("seed: %q não é uma uri s3://", uri)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("seed: uri s3 incompleta %q", uri)
	}
	return bucket, key, nil
}

func NewSnapshot(uri string, client S3Client) (*Snapshot, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Bucket: bucket, Key: key, Client: client}, nil
}

func (s *Snapshot) Name() string { return "s3" }

func (s *Snapshot) Fetch(ctx context.Context) ([]pokemon.CreatePokemon, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.Bucket,
		Key:    &s.Key,
	})
	if err != nil {
		return nil, fmt.Errorf("seed: erro ao baixar do S3: %w", err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, err
	}

	var entries []entry
	if err := json.Unmarshal(body, &entries); err != nil {
		var list listResponse
		if err2 := json.Unmarshal(body, &list); err2 != nil {
			return nil, fmt.Errorf("seed: erro parse JSON s3: %w", err)
		}
		entries = list.Results
	}
	return toRecords(entries)
}
