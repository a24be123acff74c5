package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/dshills/bestrev/internal/review"
)

// FetchReviews returns reviews for a shop with at least the given rating,
// newest first, capped at limit.
func (s *Store) FetchReviews(ctx context.Context, mallID, shopID string, minRating, limit int) ([]review.Review, error) {
	q := s.builder.
		Select("id", "rating", "text", "has_image", "created_at").
		From("reviews").
		Where(sq.Eq{"mall_id": mallID, "shop_id": shopID}).
		Where(sq.GtOrEq{"rating": minRating}).
		OrderBy("created_at DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build fetch query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch reviews: %w", err)
	}
	defer rows.Close()

	var reviews []review.Review
	for rows.Next() {
		var (
			r         review.Review
			hasImage  int
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.Rating, &r.Text, &hasImage, &createdAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		r.HasImage = hasImage != 0
		ts, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("review %d: bad created_at %q: %w", r.ID, createdAt, err)
		}
		r.CreatedAt = ts
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return reviews, nil
}

// AddReview inserts or replaces one review row. Used by the seeding tooling
// and tests.
func (s *Store) AddReview(ctx context.Context, mallID, shopID string, r review.Review) error {
	hasImage := 0
	if r.HasImage {
		hasImage = 1
	}

	query, args, err := s.builder.
		Insert("reviews").
		Options("OR REPLACE").
		Columns("id", "mall_id", "shop_id", "rating", "text", "has_image", "created_at").
		Values(r.ID, mallID, shopID, r.Rating, r.Text, hasImage, r.CreatedAt.UTC().Format(time.RFC3339)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build review insert: %w", err)
	}

	return retryOnBusy(func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("insert review %d: %w", r.ID, err)
		}
		return nil
	})
}

// InsertRecommendations writes the final recommendations for a pipeline run
// in one transaction and returns the affected row count.
func (s *Store) InsertRecommendations(ctx context.Context, runID string, recs []review.Recommendation) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	builder := s.builder.
		Insert("recommendations").
		Columns("run_id", "review_id", "title", "summary", "created_at")
	now := time.Now().UTC().Format(time.RFC3339)
	for _, rec := range recs {
		builder = builder.Values(runID, rec.ReviewID, rec.Title, rec.Summary, now)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build recommendation insert: %w", err)
	}

	var affected int64
	err = retryOnBusy(func() error {
		res, execErr := s.db.ExecContext(ctx, query, args...)
		if execErr != nil {
			return fmt.Errorf("insert recommendations: %w", execErr)
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// RecommendationsForRun returns the saved recommendations of one run in
// insertion order.
func (s *Store) RecommendationsForRun(ctx context.Context, runID string) ([]review.Recommendation, error) {
	query, args, err := s.builder.
		Select("review_id", "title", "summary").
		From("recommendations").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recommendation query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch recommendations: %w", err)
	}
	defer rows.Close()

	var recs []review.Recommendation
	for rows.Next() {
		var rec review.Recommendation
		if err := rows.Scan(&rec.ReviewID, &rec.Title, &rec.Summary); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
