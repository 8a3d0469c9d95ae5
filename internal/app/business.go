package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"

	"reviewpasta/internal/adapters/qr"
	"reviewpasta/internal/domain"
)

// Slugify derives the URL slug from a business name. Slugs and QR file
// names share one normalisation so a business's files always match its slug.
func Slugify(name string) string {
	return qr.SanitizeFilename(name)
}

type CreateBusinessInput struct {
	Name        string
	PlaceID     string
	Location    *string
	Description *string
}

// QRImage is an encoded QR code plus what a download needs.
type QRImage struct {
	Data        []byte
	ContentType string
	FileName    string
}

type BusinessService struct {
	repo     domain.BusinessRepository
	cache    domain.Cache
	cacheTTL time.Duration
	encoder  *qr.Encoder
	origin   string
}

func NewBusinessService(r domain.BusinessRepository, c domain.Cache, ttl time.Duration, enc *qr.Encoder, publicOrigin string) *BusinessService {
	return &BusinessService{repo: r, cache: c, cacheTTL: ttl, encoder: enc, origin: publicOrigin}
}

func businessKey(slug string) string { return "business:" + slug }

func qrKey(slug string, size int, format qr.Format) string {
	return fmt.Sprintf("qr:%s:%d:%s", slug, size, format)
}

func (s *BusinessService) ttlSec() int { return int(s.cacheTTL.Seconds()) }

// Create registers a business owned by the caller. The slug is derived from
// the name and never changes afterwards.
func (s *BusinessService) Create(ctx context.Context, user domain.User, in CreateBusinessInput) (domain.Business, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Business{}, &domain.ValidationError{Field: "name", Message: "is required"}
	}
	placeID := strings.TrimSpace(in.PlaceID)
	if placeID == "" {
		return domain.Business{}, &domain.ValidationError{Field: "place_id", Message: "is required"}
	}
	slug := Slugify(name)
	if slug == "" {
		return domain.Business{}, &domain.ValidationError{Field: "name", Message: "must contain letters or digits"}
	}

	owner := user.ID
	nb := domain.NewBusiness{
		Name:        name,
		Slug:        slug,
		PlaceID:     placeID,
		Location:    normalize(in.Location),
		Description: normalize(in.Description),
		OwnerID:     &owner,
	}
	id, err := s.repo.Add(ctx, nb)
	if err != nil {
		return domain.Business{}, err
	}
	log.Info().Str("id", id).Str("slug", slug).Str("owner", owner).Msg("business created")
	return s.repo.GetByID(ctx, id)
}

// GetBySlug is read-through cached.
func (s *BusinessService) GetBySlug(ctx context.Context, slug string) (domain.Business, error) {
	var b domain.Business
	if ok, _ := s.cache.Get(ctx, businessKey(slug), &b); ok {
		return b, nil
	}
	b, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return domain.Business{}, err
	}
	_ = s.cache.Set(ctx, businessKey(slug), b, s.ttlSec())
	return b, nil
}

// CanEdit reports whether user may change the business: admins always, other
// users only for businesses they own.
func (s *BusinessService) CanEdit(ctx context.Context, id string, user domain.User) (bool, error) {
	if user.Admin {
		return true, nil
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return b.OwnerID != nil && user.ID != "" && *b.OwnerID == user.ID, nil
}

func (s *BusinessService) UpdateDescription(ctx context.Context, user domain.User, id string, description *string) (domain.Business, error) {
	ok, err := s.CanEdit(ctx, id, user)
	if err != nil {
		return domain.Business{}, err
	}
	if !ok {
		return domain.Business{}, domain.ErrForbidden
	}
	if err := s.repo.UpdateDescription(ctx, id, normalize(description)); err != nil {
		return domain.Business{}, err
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Business{}, err
	}
	_ = s.cache.Del(ctx, businessKey(b.Slug))
	return b, nil
}

func (s *BusinessService) Delete(ctx context.Context, user domain.User, id string) error {
	if !user.Admin {
		return domain.ErrForbidden
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, b.Slug)
	log.Info().Str("id", id).Str("slug", b.Slug).Msg("business deleted")
	return nil
}

func (s *BusinessService) invalidate(ctx context.Context, slug string) {
	_ = s.cache.Del(ctx, businessKey(slug))
	for _, size := range qr.Sizes {
		for _, f := range []qr.Format{qr.FormatPNG, qr.FormatSVG} {
			_ = s.cache.Del(ctx, qrKey(slug, size, f))
		}
	}
}

// List returns every business, newest first. Admin only.
func (s *BusinessService) List(ctx context.Context, user domain.User) ([]domain.Business, error) {
	if !user.Admin {
		return nil, domain.ErrForbidden
	}
	return s.repo.List(ctx)
}

func (s *BusinessService) ReviewLinks(ctx context.Context, slug string) (domain.ReviewLinks, error) {
	b, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return domain.ReviewLinks{}, err
	}
	return domain.ReviewLinks{
		ReviewURL:       qr.ReviewURL(s.origin, b.Slug),
		GoogleReviewURL: qr.GoogleReviewURL(b.PlaceID),
	}, nil
}

// QRCode encodes the business's review URL. Results are cached per
// slug/size/format since the URL never changes for a slug.
func (s *BusinessService) QRCode(ctx context.Context, slug string, size int, format qr.Format) (QRImage, error) {
	if !qr.ValidSize(size) {
		return QRImage{}, errors.Wrapf(domain.ErrInvalidQRSize, "size %d", size)
	}
	b, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return QRImage{}, err
	}
	img := QRImage{ContentType: format.ContentType(), FileName: qr.FileName(b.Name, format)}

	key := qrKey(b.Slug, size, format)
	if ok, _ := s.cache.Get(ctx, key, &img.Data); ok {
		return img, nil
	}
	data, err := s.encoder.Encode(qr.ReviewURL(s.origin, b.Slug), size, format)
	if err != nil {
		return QRImage{}, err
	}
	img.Data = data
	_ = s.cache.Set(ctx, key, data, s.ttlSec())
	return img, nil
}

// normalize trims optional text; blank becomes nil.
func normalize(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
