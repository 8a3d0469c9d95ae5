package app

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"reviewpasta/internal/domain"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[\d\s+\-()]+$`)
)

const minPhoneLength = 8

type SignUpInput struct {
	Email               string
	PhoneNumber         string
	Name                string
	BusinessName        string
	BusinessDescription string
	BusinessURL         string
	Message             *string
}

type WaitlistService struct {
	repo domain.WaitlistRepository
}

func NewWaitlistService(r domain.WaitlistRepository) *WaitlistService {
	return &WaitlistService{repo: r}
}

// SignUp validates and stores a pending entry. Emails are compared
// case-insensitively; a second sign-up returns ErrDuplicateEmail.
func (s *WaitlistService) SignUp(ctx context.Context, in SignUpInput) (string, error) {
	e := domain.WaitlistEntry{
		Email:               strings.ToLower(strings.TrimSpace(in.Email)),
		PhoneNumber:         strings.TrimSpace(in.PhoneNumber),
		Name:                strings.TrimSpace(in.Name),
		BusinessName:        strings.TrimSpace(in.BusinessName),
		BusinessDescription: strings.TrimSpace(in.BusinessDescription),
		BusinessURL:         strings.TrimSpace(in.BusinessURL),
		Message:             normalize(in.Message),
		Status:              domain.WaitlistPending,
	}

	required := []struct{ field, value string }{
		{"email", e.Email},
		{"phone_number", e.PhoneNumber},
		{"name", e.Name},
		{"business_name", e.BusinessName},
		{"business_description", e.BusinessDescription},
		{"business_url", e.BusinessURL},
	}
	for _, r := range required {
		if r.value == "" {
			return "", &domain.ValidationError{Field: r.field, Message: "is required"}
		}
	}
	if !emailPattern.MatchString(e.Email) {
		return "", &domain.ValidationError{Field: "email", Message: "is not a valid email address"}
	}
	if !phonePattern.MatchString(e.PhoneNumber) || len(e.PhoneNumber) < minPhoneLength {
		return "", &domain.ValidationError{Field: "phone_number", Message: "is not a valid phone number"}
	}

	id, err := s.repo.AddEntry(ctx, e)
	if err != nil {
		return "", err
	}
	log.Info().Str("id", id).Str("business", e.BusinessName).Msg("waitlist signup")
	return id, nil
}

// List returns entries newest first, optionally filtered by status. Admin only.
func (s *WaitlistService) List(ctx context.Context, user domain.User, status *domain.WaitlistStatus) ([]domain.WaitlistEntry, error) {
	if !user.Admin {
		return nil, domain.ErrForbidden
	}
	if status != nil && !status.Valid() {
		return nil, &domain.ValidationError{Field: "status", Message: "must be pending, approved or rejected"}
	}
	return s.repo.ListEntries(ctx, status)
}

func (s *WaitlistService) SetStatus(ctx context.Context, user domain.User, id string, status domain.WaitlistStatus) error {
	if !user.Admin {
		return domain.ErrForbidden
	}
	if !status.Valid() {
		return &domain.ValidationError{Field: "status", Message: "must be pending, approved or rejected"}
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	log.Info().Str("id", id).Str("status", string(status)).Msg("waitlist status changed")
	return nil
}

// Counts tallies entries per status for the admin dashboard.
func (s *WaitlistService) Counts(ctx context.Context, user domain.User) (map[domain.WaitlistStatus]int, error) {
	entries, err := s.List(ctx, user, nil)
	if err != nil {
		return nil, err
	}
	out := map[domain.WaitlistStatus]int{
		domain.WaitlistPending:  0,
		domain.WaitlistApproved: 0,
		domain.WaitlistRejected: 0,
	}
	for _, e := range entries {
		out[e.Status]++
	}
	return out, nil
}
