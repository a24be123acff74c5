package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/bestrev/internal/config"
	"github.com/dshills/bestrev/internal/review"
	"github.com/dshills/bestrev/internal/store"
)

var reviewsCmd = &cobra.Command{
	Use:   "reviews",
	Short: "Manage the review database",
}

var (
	flagReviewID     int64
	flagReviewRating int
	flagReviewText   string
	flagReviewImage  bool
	flagReviewDate   string
)

var reviewsAddCmd = &cobra.Command{
	Use:   "add <mall-id> <shop-id>",
	Short: "Add a single review",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagReviewText == "" {
			return fmt.Errorf("--text is required")
		}
		if flagReviewRating < 1 || flagReviewRating > 5 {
			return fmt.Errorf("--rating must be between 1 and 5")
		}

		createdAt := time.Now().UTC()
		if flagReviewDate != "" {
			parsed, err := time.Parse("2006-01-02", flagReviewDate)
			if err != nil {
				return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
			}
			createdAt = parsed
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		r := review.Review{
			ID:        flagReviewID,
			Text:      flagReviewText,
			Rating:    flagReviewRating,
			HasImage:  flagReviewImage,
			CreatedAt: createdAt,
		}
		if err := st.AddReview(context.Background(), args[0], args[1], r); err != nil {
			return fmt.Errorf("adding review: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Added review #%d\n", r.ID)
		return nil
	},
}

var reviewsImportCmd = &cobra.Command{
	Use:   "import <mall-id> <shop-id> <file.json>",
	Short: "Import reviews from a JSON file",
	Long:  "Import reviews from a JSON array of review objects with id, text, rating, hasImage, and createdAt fields.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[2])
		if err != nil {
			return fmt.Errorf("reading import file: %w", err)
		}
		var reviews []review.Review
		if err := json.Unmarshal(data, &reviews); err != nil {
			return fmt.Errorf("parsing import file: %w", err)
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := context.Background()
		imported := 0
		for _, r := range reviews {
			if err := st.AddReview(ctx, args[0], args[1], r); err != nil {
				fmt.Fprintf(os.Stderr, "Skipping review #%d: %v\n", r.ID, err)
				continue
			}
			imported++
		}
		fmt.Fprintf(os.Stdout, "Imported %d of %d reviews\n", imported, len(reviews))
		return nil
	},
}

func openStore() (*store.Store, error) {
	cfg, err := config.Load(buildOverrides())
	if err != nil {
		return nil, err
	}
	dbPath, err := storePath(cfg)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return st, nil
}

func init() {
	reviewsCmd.AddCommand(reviewsAddCmd)
	reviewsCmd.AddCommand(reviewsImportCmd)

	reviewsAddCmd.Flags().Int64Var(&flagReviewID, "id", 0, "Review ID (required)")
	reviewsAddCmd.Flags().IntVar(&flagReviewRating, "rating", 0, "Star rating 1-5 (required)")
	reviewsAddCmd.Flags().StringVar(&flagReviewText, "text", "", "Review text (required)")
	reviewsAddCmd.Flags().BoolVar(&flagReviewImage, "image", false, "Review has an attached image")
	reviewsAddCmd.Flags().StringVar(&flagReviewDate, "date", "", "Review date (YYYY-MM-DD, default: now)")
	reviewsAddCmd.Flags().StringVar(&flagDB, "db", "", "Review database path")
	reviewsImportCmd.Flags().StringVar(&flagDB, "db", "", "Review database path")
}
