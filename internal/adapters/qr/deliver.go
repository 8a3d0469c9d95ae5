package qr

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"

	"reviewpasta/internal/domain"
)

type Outcome int

const (
	OutcomeShared Outcome = iota + 1
	OutcomeSaved
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeShared:
		return "shared"
	case OutcomeSaved:
		return "saved"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Deliver tries the share target first and saves to dir when sharing is not
// possible. A cancelled share is reported as OutcomeCancelled and nothing is
// written. The returned path is set only for OutcomeSaved.
func Deliver(ctx context.Context, sharer domain.Sharer, dir, businessName string, format Format, payload []byte) (Outcome, string, error) {
	file := domain.QRFile{
		Name:        FileName(businessName, format),
		ContentType: format.ContentType(),
		Data:        payload,
		Caption:     fmt.Sprintf("Scan this QR code to leave a review for %s", businessName),
	}

	if sharer != nil {
		err := sharer.Share(ctx, file)
		switch {
		case err == nil:
			return OutcomeShared, "", nil
		case errors.Is(err, domain.ErrShareCancelled):
			return OutcomeCancelled, "", nil
		case errors.Is(err, domain.ErrShareUnavailable):
			// fall through to save
		default:
			log.Warn().Err(err).Str("file", file.Name).Msg("share failed, saving instead")
		}
	}

	path, err := SaveFile(dir, businessName, format, payload)
	if err != nil {
		return 0, "", err
	}
	return OutcomeSaved, path, nil
}

// SystemClipboard is the OS clipboard.
type SystemClipboard struct{}

func (SystemClipboard) WriteText(text string) error {
	if clipboard.Unsupported {
		return domain.ErrClipboardUnavailable
	}
	if err := clipboard.WriteAll(text); err != nil {
		return errors.Mark(errors.Wrap(err, "write clipboard"), domain.ErrClipboardUnavailable)
	}
	return nil
}

// CopyLink puts the review URL on the clipboard. A nil clipboard counts as
// unavailable so callers can print the link instead.
func CopyLink(cb domain.Clipboard, link string) error {
	if cb == nil {
		return domain.ErrClipboardUnavailable
	}
	return cb.WriteText(link)
}
