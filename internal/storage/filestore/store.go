package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"reviewpasta/internal/domain"
)

// data is the on-disk JSON document.
type data struct {
	Businesses []businessRecord `json:"businesses"`
	Waitlist   []waitlistRecord `json:"waitlist"`
}

type businessRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	PlaceID     string    `json:"place_id"`
	Location    *string   `json:"location,omitempty"`
	Description *string   `json:"description,omitempty"`
	OwnerID     *string   `json:"owner_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type waitlistRecord struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	PhoneNumber         string    `json:"phone_number"`
	Name                string    `json:"name"`
	BusinessName        string    `json:"business_name"`
	BusinessDescription string    `json:"business_description"`
	BusinessURL         string    `json:"business_url"`
	Message             *string   `json:"message,omitempty"`
	Status              string    `json:"status"`
	CreatedAt           time.Time `json:"created_at"`
}

// Store keeps businesses and waitlist entries in a single JSON file. It is
// the default backend and the source the hosted-store migration reads from.
type Store struct {
	filename string
	mu       sync.RWMutex
	data     data
	now      func() time.Time
}

// Open loads filename if it exists; a missing file starts an empty store.
func Open(filename string) (*Store, error) {
	s := &Store{filename: filename, now: func() time.Time { return time.Now().UTC() }}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.filename)
	if os.IsNotExist(err) {
		log.Info().Str("path", s.filename).Msg("store file does not exist, starting with empty data")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "read store")
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return errors.Wrapf(err, "parse store %s", s.filename)
	}
	return nil
}

// save writes the document atomically. Callers hold the write lock.
func (s *Store) save() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create store dir")
		}
	}
	tmp := s.filename + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return errors.Wrap(err, "write store")
	}
	return os.Rename(tmp, s.filename)
}

func (s *Store) Close(context.Context) error { return nil }

// ---- businesses ----

func (s *Store) Add(_ context.Context, b domain.NewBusiness) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.data.Businesses {
		if r.Slug == b.Slug {
			return "", errors.Wrapf(domain.ErrDuplicateSlug, "slug %q", b.Slug)
		}
	}
	created := b.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	rec := businessRecord{
		ID:          uuid.NewString(),
		Name:        b.Name,
		Slug:        b.Slug,
		PlaceID:     b.PlaceID,
		Location:    b.Location,
		Description: b.Description,
		OwnerID:     b.OwnerID,
		CreatedAt:   created.UTC(),
	}
	s.data.Businesses = append(s.data.Businesses, rec)
	if err := s.save(); err != nil {
		s.data.Businesses = s.data.Businesses[:len(s.data.Businesses)-1]
		return "", err
	}
	return rec.ID, nil
}

func (s *Store) UpdateDescription(_ context.Context, id string, description *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Businesses {
		if s.data.Businesses[i].ID == id {
			prev := s.data.Businesses[i].Description
			s.data.Businesses[i].Description = description
			if err := s.save(); err != nil {
				s.data.Businesses[i].Description = prev
				return err
			}
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.data.Businesses {
		if r.ID == id {
			prev := s.data.Businesses
			s.data.Businesses = append(append([]businessRecord{}, prev[:i]...), prev[i+1:]...)
			if err := s.save(); err != nil {
				s.data.Businesses = prev
				return err
			}
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *Store) GetBySlug(_ context.Context, slug string) (domain.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.data.Businesses {
		if r.Slug == slug {
			return r.toDomain(), nil
		}
	}
	return domain.Business{}, domain.ErrNotFound
}

func (s *Store) GetByID(_ context.Context, id string) (domain.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.data.Businesses {
		if r.ID == id {
			return r.toDomain(), nil
		}
	}
	return domain.Business{}, domain.ErrNotFound
}

func (s *Store) List(_ context.Context) ([]domain.Business, error) {
	s.mu.RLock()
	out := make([]domain.Business, 0, len(s.data.Businesses))
	for _, r := range s.data.Businesses {
		out = append(out, r.toDomain())
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) Slugs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.data.Businesses))
	for _, r := range s.data.Businesses {
		out = append(out, r.Slug)
	}
	return out, nil
}

func (r businessRecord) toDomain() domain.Business {
	return domain.Business{
		ID:          r.ID,
		Name:        r.Name,
		Slug:        r.Slug,
		PlaceID:     r.PlaceID,
		Location:    r.Location,
		Description: r.Description,
		OwnerID:     r.OwnerID,
		CreatedAt:   r.CreatedAt,
	}
}

// ---- waitlist ----

func (s *Store) AddEntry(_ context.Context, e domain.WaitlistEntry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.data.Waitlist {
		if strings.EqualFold(r.Email, e.Email) {
			return "", errors.Wrapf(domain.ErrDuplicateEmail, "email %q", e.Email)
		}
	}
	if e.Status == "" {
		e.Status = domain.WaitlistPending
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	rec := waitlistRecord{
		ID:                  uuid.NewString(),
		Email:               e.Email,
		PhoneNumber:         e.PhoneNumber,
		Name:                e.Name,
		BusinessName:        e.BusinessName,
		BusinessDescription: e.BusinessDescription,
		BusinessURL:         e.BusinessURL,
		Message:             e.Message,
		Status:              string(e.Status),
		CreatedAt:           e.CreatedAt.UTC(),
	}
	s.data.Waitlist = append(s.data.Waitlist, rec)
	if err := s.save(); err != nil {
		s.data.Waitlist = s.data.Waitlist[:len(s.data.Waitlist)-1]
		return "", err
	}
	return rec.ID, nil
}

func (s *Store) ListEntries(_ context.Context, status *domain.WaitlistStatus) ([]domain.WaitlistEntry, error) {
	s.mu.RLock()
	out := make([]domain.WaitlistEntry, 0, len(s.data.Waitlist))
	for _, r := range s.data.Waitlist {
		if status != nil && domain.WaitlistStatus(r.Status) != *status {
			continue
		}
		out = append(out, r.toDomain())
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateStatus(_ context.Context, id string, status domain.WaitlistStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Waitlist {
		if s.data.Waitlist[i].ID == id {
			prev := s.data.Waitlist[i].Status
			s.data.Waitlist[i].Status = string(status)
			if err := s.save(); err != nil {
				s.data.Waitlist[i].Status = prev
				return err
			}
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r waitlistRecord) toDomain() domain.WaitlistEntry {
	return domain.WaitlistEntry{
		ID:                  r.ID,
		Email:               r.Email,
		PhoneNumber:         r.PhoneNumber,
		Name:                r.Name,
		BusinessName:        r.BusinessName,
		BusinessDescription: r.BusinessDescription,
		BusinessURL:         r.BusinessURL,
		Message:             r.Message,
		Status:              domain.WaitlistStatus(r.Status),
		CreatedAt:           r.CreatedAt,
	}
}
