// Package storagetest holds the behaviour every domain.Store backend must
// share. Backend tests call Run with a constructor for a fresh, empty store.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewpasta/internal/domain"
)

func ptr(s string) *string { return &s }

func Run(t *testing.T, newStore func(t *testing.T) domain.Store) {
	t.Run("businesses", func(t *testing.T) { businesses(t, newStore(t)) })
	t.Run("waitlist", func(t *testing.T) { waitlist(t, newStore(t)) })
}

func businesses(t *testing.T, s domain.Store) {
	ctx := context.Background()
	older := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	id1, err := s.Add(ctx, domain.NewBusiness{
		Name: "Nordic Brew", Slug: "nordic-brew", PlaceID: "ChIJ1",
		Location: ptr("Cluj"), OwnerID: ptr("user-1"), CreatedAt: older,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id1)

	id2, err := s.Add(ctx, domain.NewBusiness{Name: "Acme", Slug: "acme", PlaceID: "ChIJ2"})
	require.NoError(t, err)

	_, err = s.Add(ctx, domain.NewBusiness{Name: "Acme again", Slug: "acme", PlaceID: "ChIJ3"})
	assert.True(t, errors.Is(err, domain.ErrDuplicateSlug), "got %v", err)

	b, err := s.GetBySlug(ctx, "nordic-brew")
	require.NoError(t, err)
	assert.Equal(t, id1, b.ID)
	assert.Equal(t, "Nordic Brew", b.Name)
	assert.Equal(t, "ChIJ1", b.PlaceID)
	require.NotNil(t, b.Location)
	assert.Equal(t, "Cluj", *b.Location)
	assert.Nil(t, b.Description)
	require.NotNil(t, b.OwnerID)
	assert.Equal(t, "user-1", *b.OwnerID)
	assert.True(t, b.CreatedAt.Equal(older), "created_at kept: %v", b.CreatedAt)

	_, err = s.GetBySlug(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	require.NoError(t, s.UpdateDescription(ctx, id2, ptr("anvils and rockets")))
	b, err = s.GetByID(ctx, id2)
	require.NoError(t, err)
	require.NotNil(t, b.Description)
	assert.Equal(t, "anvils and rockets", *b.Description)

	require.NoError(t, s.UpdateDescription(ctx, id2, nil))
	b, err = s.GetByID(ctx, id2)
	require.NoError(t, err)
	assert.Nil(t, b.Description)

	assert.True(t, errors.Is(s.UpdateDescription(ctx, "00000000-0000-0000-0000-000000000000", ptr("x")), domain.ErrNotFound))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "acme", list[0].Slug, "newest first")

	slugs, err := s.Slugs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"acme", "nordic-brew"}, slugs)

	require.NoError(t, s.Delete(ctx, id1))
	_, err = s.GetByID(ctx, id1)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, errors.Is(s.Delete(ctx, id1), domain.ErrNotFound))
}

func waitlist(t *testing.T, s domain.Store) {
	ctx := context.Background()
	entry := domain.WaitlistEntry{
		Email: "ana@example.com", PhoneNumber: "+40 712 345 678", Name: "Ana",
		BusinessName: "Nordic Brew", BusinessDescription: "coffee", BusinessURL: "https://nordic.example",
		Status: domain.WaitlistPending,
	}
	id, err := s.AddEntry(ctx, entry)
	require.NoError(t, err)

	_, err = s.AddEntry(ctx, entry)
	assert.True(t, errors.Is(err, domain.ErrDuplicateEmail), "got %v", err)

	second := entry
	second.Email = "bob@example.com"
	second.Message = ptr("hi")
	_, err = s.AddEntry(ctx, second)
	require.NoError(t, err)

	require.NoError(t, s.UpdateStatus(ctx, id, domain.WaitlistApproved))
	assert.True(t, errors.Is(s.UpdateStatus(ctx, "00000000-0000-0000-0000-000000000000", domain.WaitlistRejected), domain.ErrNotFound))

	all, err := s.ListEntries(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	approved := domain.WaitlistApproved
	only, err := s.ListEntries(ctx, &approved)
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, "ana@example.com", only[0].Email)
	assert.Equal(t, domain.WaitlistApproved, only[0].Status)
}
