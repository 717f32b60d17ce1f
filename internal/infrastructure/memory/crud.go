package memory

import (
	"sort"

	"github.com/google/uuid"
	"github.com/taller-macetas/macetas-erp/internal/domain"
)

// table operaciones CRUD comunes sobre uno de los mapas de data.
type table[T any] struct {
	access  accessor
	rows    func(d *data) map[string]T
	id      func(v *T) *string
	created func(v *T) int64 // para ordenar listados (más reciente primero)
	clone   func(v T) T
}

func (t table[T]) create(v *T) error {
	return t.access(func(d *data) error {
		id := t.id(v)
		if *id == "" {
			*id = uuid.New().String()
		}
		m := t.rows(d)
		if _, exists := m[*id]; exists {
			return domain.ErrDuplicate
		}
		m[*id] = t.clone(*v)
		return nil
	})
}

func (t table[T]) get(id string) (*T, error) {
	var out *T
	err := t.access(func(d *data) error {
		if v, ok := t.rows(d)[id]; ok {
			c := t.clone(v)
			out = &c
		}
		return nil
	})
	return out, err
}

func (t table[T]) update(v *T) error {
	return t.access(func(d *data) error {
		m := t.rows(d)
		id := *t.id(v)
		if _, ok := m[id]; !ok {
			return domain.ErrNotFound
		}
		m[id] = t.clone(*v)
		return nil
	})
}

func (t table[T]) delete(id string) error {
	return t.access(func(d *data) error {
		m := t.rows(d)
		if _, ok := m[id]; !ok {
			return domain.ErrNotFound
		}
		delete(m, id)
		return nil
	})
}

func (t table[T]) list(keep func(v *T) bool) ([]*T, error) {
	var out []*T
	err := t.access(func(d *data) error {
		for _, v := range t.rows(d) {
			c := t.clone(v)
			if keep == nil || keep(&c) {
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		ci, cj := t.created(out[i]), t.created(out[j])
		if ci == cj {
			return *t.id(out[i]) < *t.id(out[j])
		}
		return ci > cj
	})
	return out, err
}

func identity[T any](v T) T { return v }
