package pokemon

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/raywall/pokedex-service/dyndb"
)

// memRepo é um Repository em memória que imita as restrições do DynamoDB
// (no e name únicos) e registra as chamadas recebidas.
type memRepo struct {
	mu    sync.Mutex
	items map[string]Pokemon
	calls []string
	fault error
}

func newMemRepo(seed ...Pokemon) *memRepo {
	r := &memRepo{items: map[string]Pokemon{}}
	for _, p := range seed {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		p.Kind = Kind
		r.items[p.ID] = p
	}
	return r
}

func (r *memRepo) record(call string) error {
	r.calls = append(r.calls, call)
	return r.fault
}

func (r *memRepo) conflict(p Pokemon, self string) error {
	for id, other := range r.items {
		if id == self {
			continue
		}
		if other.No == p.No {
			return &dyndb.ConditionalError{Attribute: "no", Value: int64(p.No)}
		}
		if other.Name == p.Name {
			return &dyndb.ConditionalError{Attribute: "name", Value: p.Name}
		}
	}
	return nil
}

func (r *memRepo) Insert(_ context.Context, item Pokemon) (*Pokemon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("insert"); err != nil {
		return nil, err
	}
	if err := r.conflict(item, ""); err != nil {
		return nil, err
	}
	item.ID = uuid.NewString()
	r.items[item.ID] = item
	return &item, nil
}

func (r *memRepo) InsertMany(_ context.Context, items []Pokemon) ([]Pokemon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("insert_many"); err != nil {
		return nil, err
	}
	out := make([]Pokemon, 0, len(items))
	for _, item := range items {
		item.ID = uuid.NewString()
		r.items[item.ID] = item
		out = append(out, item)
	}
	return out, nil
}

func (r *memRepo) FindByID(_ context.Context, id any) (*Pokemon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("find:id"); err != nil {
		return nil, err
	}
	if p, ok := r.items[fmt.Sprint(id)]; ok {
		return &p, nil
	}
	return nil, dyndb.ErrNotFound
}

func (r *memRepo) FindByField(_ context.Context, field string, value any) (*Pokemon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("find:" + field); err != nil {
		return nil, err
	}
	for _, p := range r.items {
		switch field {
		case FieldNo:
			if v, ok := value.(int); ok && p.No == v {
				return &p, nil
			}
		case FieldName:
			if v, ok := value.(string); ok && p.Name == v {
				return &p, nil
			}
		}
	}
	return nil, dyndb.ErrNotFound
}

func (r *memRepo) Page(_ context.Context, offset, limit int) ([]Pokemon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(fmt.Sprintf("page:%d:%d", offset, limit)); err != nil {
		return nil, err
	}
	all := make([]Pokemon, 0, len(r.items))
	for _, p := range r.items {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].No < all[j].No })
	if offset >= len(all) {
		return []Pokemon{}, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *memRepo) UpdateByID(_ context.Context, id any, changes map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("update"); err != nil {
		return err
	}
	p, ok := r.items[fmt.Sprint(id)]
	if !ok {
		return dyndb.ErrNotFound
	}
	for k, v := range changes {
		switch k {
		case "no":
			p.No = v.(int)
		case "name":
			p.Name = v.(string)
		case "type":
			p.Type, _ = v.(string)
		case "attributes":
			p.Attributes, _ = v.(map[string]any)
		case "updatedAt":
			p.UpdatedAt = v.(int64)
		}
	}
	if err := r.conflict(p, p.ID); err != nil {
		return err
	}
	r.items[p.ID] = p
	return nil
}

func (r *memRepo) DeleteByID(_ context.Context, id any) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("delete"); err != nil {
		return 0, err
	}
	key := fmt.Sprint(id)
	if _, ok := r.items[key]; !ok {
		return 0, nil
	}
	delete(r.items, key)
	return 1, nil
}

func (r *memRepo) Truncate(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("truncate"); err != nil {
		return 0, err
	}
	n := len(r.items)
	r.items = map[string]Pokemon{}
	return n, nil
}

func (r *memRepo) wrote() bool {
	for _, c := range r.calls {
		switch c {
		case "insert", "insert_many", "update", "delete", "truncate":
			return true
		}
	}
	return false
}
