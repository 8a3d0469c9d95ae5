package app_test

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"sync"
	"time"

	"reviewpasta/internal/domain"
)

// ---- fakes ----

type fakeRepo struct {
	mu       sync.Mutex
	seq      int
	items    map[string]domain.Business
	entries  map[string]domain.WaitlistEntry
	addErr   error
	addCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: map[string]domain.Business{}, entries: map[string]domain.WaitlistEntry{}}
}

func (f *fakeRepo) Add(_ context.Context, b domain.NewBusiness) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCalls++
	if f.addErr != nil {
		return "", f.addErr
	}
	for _, it := range f.items {
		if it.Slug == b.Slug {
			return "", domain.ErrDuplicateSlug
		}
	}
	f.seq++
	id := "b" + strconv.Itoa(f.seq)
	created := b.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	f.items[id] = domain.Business{
		ID: id, Name: b.Name, Slug: b.Slug, PlaceID: b.PlaceID,
		Location: b.Location, Description: b.Description, OwnerID: b.OwnerID, CreatedAt: created,
	}
	return id, nil
}

func (f *fakeRepo) UpdateDescription(_ context.Context, id string, d *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	b.Description = d
	f.items[id] = b
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeRepo) GetBySlug(_ context.Context, slug string) (domain.Business, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.items {
		if b.Slug == slug {
			return b, nil
		}
	}
	return domain.Business{}, domain.ErrNotFound
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (domain.Business, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.items[id]
	if !ok {
		return domain.Business{}, domain.ErrNotFound
	}
	return b, nil
}

func (f *fakeRepo) List(_ context.Context) ([]domain.Business, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Business, 0, len(f.items))
	for _, b := range f.items {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeRepo) Slugs(ctx context.Context) ([]string, error) {
	list, _ := f.List(ctx)
	out := make([]string, 0, len(list))
	for _, b := range list {
		out = append(out, b.Slug)
	}
	return out, nil
}

func (f *fakeRepo) AddEntry(_ context.Context, e domain.WaitlistEntry) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.entries {
		if it.Email == e.Email {
			return "", domain.ErrDuplicateEmail
		}
	}
	f.seq++
	e.ID = "w" + strconv.Itoa(f.seq)
	e.CreatedAt = time.Now().UTC()
	f.entries[e.ID] = e
	return e.ID, nil
}

func (f *fakeRepo) ListEntries(_ context.Context, status *domain.WaitlistStatus) ([]domain.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.WaitlistEntry
	for _, e := range f.entries {
		if status == nil || e.Status == *status {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id string, s domain.WaitlistStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.Status = s
	f.entries[id] = e
	return nil
}

type fakeCache struct {
	store map[string][]byte
	dels  []string
}

func (c *fakeCache) Get(_ context.Context, key string, dst any) (bool, error) {
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(v, dst)
}

func (c *fakeCache) Set(_ context.Context, key string, v any, _ int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(_ context.Context, key string) error {
	c.dels = append(c.dels, key)
	delete(c.store, key)
	return nil
}

func ptr[T any](v T) *T { return &v }

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
