package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"reviewpasta/internal/domain"
	"reviewpasta/internal/review"
)

var (
	business    string
	location    string
	description string
	rating      float64
	locale      string
)

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func request(r float64) domain.DraftRequest {
	return domain.DraftRequest{
		BusinessName: business,
		Location:     optional(location),
		Description:  optional(description),
		Rating:       r,
		Locale:       domain.ParseLocale(locale),
	}
}

func businessFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&business, "business", "b", "", "business name")
	cmd.Flags().StringVar(&location, "location", "", "business location")
	cmd.Flags().StringVar(&description, "description", "", "short business description")
	cmd.Flags().StringVarP(&locale, "locale", "l", "en", "draft language (en, ro)")
	_ = cmd.MarkFlagRequired("business")
}

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Print one review draft",
	RunE: func(cmd *cobra.Command, _ []string) error {
		orch, err := newOrchestrator(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), orch.GenerateReview(cmd.Context(), request(rating)))
		return nil
	},
}

// sessionCmd reads one rating per line. Each rating starts a draft in the
// background; only the draft for the newest rating is shown, so a slow AI
// answer for an old rating never overwrites a newer one.
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Interactive rating session, one rating per line",
	RunE: func(cmd *cobra.Command, _ []string) error {
		orch, err := newOrchestrator(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		var (
			tracker review.Tracker
			wg      sync.WaitGroup
			outMu   sync.Mutex
		)

		sc := bufio.NewScanner(cmd.InOrStdin())
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			r, err := strconv.ParseFloat(line, 64)
			if err != nil {
				fmt.Fprintf(out, "not a rating: %q\n", line)
				continue
			}
			token := tracker.Begin()
			wg.Add(1)
			go func(token uint64, r float64) {
				defer wg.Done()
				text := orch.GenerateReview(cmd.Context(), request(r))
				if tracker.Commit(token, text) {
					outMu.Lock()
					fmt.Fprintf(out, "[%d★] %s\n", domain.ClampRating(r), text)
					outMu.Unlock()
				}
			}(token, r)
		}
		wg.Wait()
		if err := sc.Err(); err != nil {
			return err
		}

		if final, token := tracker.Latest(); token > 0 {
			fmt.Fprintf(out, "\nfinal draft:\n%s\n", final)
		}
		return nil
	},
}

func init() {
	businessFlags(draftCmd)
	draftCmd.Flags().Float64VarP(&rating, "rating", "r", 5, "star rating 1-5")
	businessFlags(sessionCmd)
}
