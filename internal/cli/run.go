package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/bestrev/internal/cache"
	"github.com/dshills/bestrev/internal/config"
	"github.com/dshills/bestrev/internal/output"
	"github.com/dshills/bestrev/internal/pipeline"
	"github.com/dshills/bestrev/internal/providers"
	"github.com/dshills/bestrev/internal/store"
	"github.com/dshills/bestrev/internal/textclean"
)

// Shared run flags
var (
	flagProvider   string
	flagModel      string
	flagFocus      string
	flagCriteria   string
	flagDB         string
	flagBestCount  int
	flagMaxReviews int
	flagMinRating  int
	flagFormat     string
	flagOut        string
	flagNoCache    bool
	flagVerbose    bool
	flagSelectors  string
)

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagProvider, "provider", "", "LLM provider (openai, local)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Model name")
	cmd.Flags().StringVar(&flagFocus, "focus", "", "Selection focus instruction")
	cmd.Flags().StringVar(&flagCriteria, "criteria", "", "Criteria pack YAML file")
	cmd.Flags().StringVar(&flagDB, "db", "", "Review database path")
	cmd.Flags().IntVar(&flagBestCount, "best", 0, "Number of best reviews to select")
	cmd.Flags().IntVar(&flagMaxReviews, "max-reviews", 0, "Maximum reviews to fetch")
	cmd.Flags().IntVar(&flagMinRating, "min-rating", 0, "Minimum star rating to consider")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format (text, json, markdown)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagSelectors, "selector-models", "", "Selector model names (comma-separated)")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Bypass the selection cache")
	cmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagFocus != "" {
		m["focus"] = flagFocus
	}
	if flagCriteria != "" {
		m["criteriaFile"] = flagCriteria
	}
	if flagDB != "" {
		m["db"] = flagDB
	}
	if flagBestCount > 0 {
		m["bestReviewCount"] = fmt.Sprintf("%d", flagBestCount)
	}
	if flagMaxReviews > 0 {
		m["maxReviews"] = fmt.Sprintf("%d", flagMaxReviews)
	}
	if flagMinRating > 0 {
		m["minRating"] = fmt.Sprintf("%d", flagMinRating)
	}
	return m
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// storePath resolves the database location, defaulting to reviews.db in the
// config directory.
func storePath(cfg config.Config) (string, error) {
	if cfg.Store.Path != "" {
		return cfg.Store.Path, nil
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}
	return filepath.Join(dir, "reviews.db"), nil
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

var runCmd = &cobra.Command{
	Use:   "run <mall-id> <shop-id>",
	Short: "Select the best reviews for a shop",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		if flagSelectors != "" {
			cfg.SelectorModels = splitComma(flagSelectors)
		}
		log := newLogger()

		dbPath, err := storePath(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		st, err := store.Open(dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		defer st.Close()

		cacheEnabled := cfg.Cache.Enabled && !flagNoCache
		c, err := cache.New(cacheEnabled, cfg.Cache.Dir,
			time.Duration(cfg.Cache.TTLSeconds)*time.Second, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening cache: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		criteria, err := config.LoadCriteria(cfg.CriteriaFile)
		if err != nil {
			return fmt.Errorf("loading criteria: %w", err)
		}

		var moderation textclean.SafetyFilter
		if cfg.Moderation.Enabled {
			moderation = &textclean.KeywordFilter{Blocked: cfg.Moderation.Blocklist}
		}

		p, err := pipeline.New(cfg, criteria, pipeline.Deps{
			Source:     st,
			Sink:       st,
			Cache:      c,
			Moderation: moderation,
			Log:        log,
		})
		if err != nil {
			if providers.IsAuthError(err) {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				exitCode = ExitAuthError
				return nil
			}
			return err
		}

		final, err := p.Run(context.Background(), args[0], args[1])
		if err != nil {
			if providers.IsAuthError(err) {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				exitCode = ExitAuthError
				return nil
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		if err := output.WriteResult(&final, flagFormat, flagOut); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		if !final.Save.Success {
			exitCode = ExitSaveError
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the saved recommendations for a past run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		recs, err := st.RecommendationsForRun(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("loading run: %w", err)
		}
		if len(recs) == 0 {
			fmt.Fprintf(os.Stdout, "No recommendations recorded for run %s\n", args[0])
			return nil
		}
		for i, rec := range recs {
			fmt.Fprintf(os.Stdout, "%d. %s (review #%d)\n   %s\n", i+1, rec.Title, rec.ReviewID, rec.Summary)
		}
		return nil
	},
}

func init() {
	addRunFlags(runCmd)
	showCmd.Flags().StringVar(&flagDB, "db", "", "Review database path")
}
