package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"reviewpasta/internal/adapters/aidraft"
	"reviewpasta/internal/adapters/observability"
	"reviewpasta/internal/review"
	"reviewpasta/internal/shared"
)

var (
	cfg shared.Config

	rootCmd = &cobra.Command{
		Use:           "reviewctl",
		Short:         "Operator tools for review drafts, QR codes and links",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c, err := shared.Load()
			if err != nil {
				return err
			}
			cfg = c
			log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(draftCmd, sessionCmd, qrCmd, linkCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newOrchestrator wires the same draft pipeline the API uses.
func newOrchestrator(ctx context.Context) (*review.Orchestrator, error) {
	review.MustValidateTemplates()
	mode := cfg.AIMode()
	drafter, err := aidraft.New(ctx, mode, cfg.AIBaseURL, cfg.PublicOrigin, cfg.AIRPS)
	if err != nil {
		return nil, err
	}
	return review.NewOrchestrator(mode, review.NewRenderer(rand.NewSource(time.Now().UnixNano())), drafter,
		review.WithTimeout(cfg.AITimeout)), nil
}
