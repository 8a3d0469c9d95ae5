package main

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	server "reviewpasta/internal/adapters/http_server"
	"reviewpasta/internal/adapters/qr"
	"reviewpasta/internal/adapters/telegram"
	"reviewpasta/internal/app"
	"reviewpasta/internal/domain"
)

var (
	slug     string
	qrSize   int
	qrFormat string
	outDir   string

	tokenSub  string
	tokenRole string
	tokenTTL  time.Duration
)

// slugOrName derives the slug from --business when --slug is not given.
func slugOrName() (string, error) {
	s := slug
	if s == "" {
		s = app.Slugify(business)
	}
	if s == "" {
		return "", errors.New("pass --slug or --business")
	}
	return s, nil
}

// shareTarget is nil unless Telegram is configured.
func shareTarget() domain.Sharer {
	s, err := telegram.New(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		if !errors.Is(err, domain.ErrShareUnavailable) {
			log.Warn().Err(err).Msg("telegram share target disabled")
		}
		return nil
	}
	return s
}

var qrCmd = &cobra.Command{
	Use:   "qr",
	Short: "Render a business's review QR code and share or save it",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := slugOrName()
		if err != nil {
			return err
		}
		format, err := qr.ParseFormat(qrFormat)
		if err != nil {
			return err
		}
		name := business
		if name == "" {
			name = s
		}

		payload, err := qr.NewEncoder().Encode(qr.ReviewURL(cfg.PublicOrigin, s), qrSize, format)
		if err != nil {
			return err
		}
		outcome, path, err := qr.Deliver(cmd.Context(), shareTarget(), outDir, name, format, payload)
		if err != nil {
			return err
		}
		switch outcome {
		case qr.OutcomeSaved:
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", path)
		default:
			fmt.Fprintln(cmd.OutOrStdout(), outcome)
		}
		return nil
	},
}

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Copy a business's review link to the clipboard",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := slugOrName()
		if err != nil {
			return err
		}
		link := qr.ReviewURL(cfg.PublicOrigin, s)
		if err := qr.CopyLink(qr.SystemClipboard{}, link); err != nil {
			if !errors.Is(err, domain.ErrClipboardUnavailable) {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), link)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "copied %s\n", link)
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for the API (uses JWT_SECRET)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if tokenRole != server.RoleAdmin && tokenRole != server.RoleUser {
			return errors.Newf("role must be %s or %s", server.RoleAdmin, server.RoleUser)
		}
		ttl := tokenTTL
		if ttl <= 0 {
			ttl = cfg.JWTDuration
		}
		tok, err := server.IssueToken(cfg.JWTSecret, tokenSub, tokenRole, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{qrCmd, linkCmd} {
		c.Flags().StringVarP(&business, "business", "b", "", "business name")
		c.Flags().StringVar(&slug, "slug", "", "business slug (derived from --business when empty)")
	}
	qrCmd.Flags().IntVar(&qrSize, "size", 512, "image size: 256, 512 or 1024")
	qrCmd.Flags().StringVar(&qrFormat, "format", "png", "png or svg")
	qrCmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory used when sharing is unavailable")

	tokenCmd.Flags().StringVar(&tokenSub, "sub", "", "user id")
	tokenCmd.Flags().StringVar(&tokenRole, "role", server.RoleUser, "admin or user")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "lifetime (default JWT_DURATION)")
	_ = tokenCmd.MarkFlagRequired("sub")
}
