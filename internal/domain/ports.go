package domain

import "context"

type BusinessRepository interface {
	// Write paths
	Add(ctx context.Context, b NewBusiness) (string, error)
	UpdateDescription(ctx context.Context, id string, description *string) error
	Delete(ctx context.Context, id string) error

	// Read paths
	GetBySlug(ctx context.Context, slug string) (Business, error)
	GetByID(ctx context.Context, id string) (Business, error)
	List(ctx context.Context) ([]Business, error) // newest first
	Slugs(ctx context.Context) ([]string, error)
}

type WaitlistRepository interface {
	AddEntry(ctx context.Context, e WaitlistEntry) (string, error)
	ListEntries(ctx context.Context, status *WaitlistStatus) ([]WaitlistEntry, error) // newest first
	UpdateStatus(ctx context.Context, id string, status WaitlistStatus) error
}

// Store is what a storage backend provides.
type Store interface {
	BusinessRepository
	WaitlistRepository
	Close(ctx context.Context) error
}

// Drafter turns a draft request into review text using an AI provider.
type Drafter interface {
	Draft(ctx context.Context, req DraftRequest) (string, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// QRFile is an encoded QR image ready to be shared or written to disk.
type QRFile struct {
	Name        string
	ContentType string
	Data        []byte
	Caption     string
}

// Sharer hands a file to a platform share target. It returns
// ErrShareUnavailable when the target cannot be used and ErrShareCancelled
// when the user backs out.
type Sharer interface {
	Share(ctx context.Context, f QRFile) error
}

// Clipboard writes plain text to the platform clipboard.
type Clipboard interface {
	WriteText(text string) error
}
