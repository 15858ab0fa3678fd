// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/learning-engine/internal/completion"
	"github.com/pdiddy/learning-engine/internal/events"
	"github.com/pdiddy/learning-engine/internal/pipeline"
	"github.com/pdiddy/learning-engine/internal/searxng"
	"github.com/pdiddy/learning-engine/internal/store"
	"github.com/pdiddy/learning-engine/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research [topic]",
	Short: "Research a topic and generate learning content",
	Long: `Research grounds the topic in live metasearch, plans and executes a
multi-engine search strategy, synthesizes the evidence, and generates
validated learning content with prioritized subtopics.

Completed results are memoized in the local cache, keyed by topic and
audience level; use --no-cache to force a fresh run.`,
	Args: cobra.ExactArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().Int("max-depth", 1, "maximum subtopic recursion depth")
	researchCmd.Flags().String("level", "", "audience level (e.g. beginner, expert)")
	researchCmd.Flags().String("format", "summary", "output format: summary, json, or yaml")
	researchCmd.Flags().Bool("no-cache", false, "skip the result cache")
	researchCmd.Flags().Bool("verbose", false, "log pipeline stage events to stderr")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	topic := args[0]
	maxDepth, _ := cmd.Flags().GetInt("max-depth")
	level, _ := cmd.Flags().GetString("level")
	format, _ := cmd.Flags().GetString("format")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg := loadPipelineConfig()

	logger := zap.NewNop()
	if verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		defer logger.Sync()
	}

	var user *types.UserContext
	if level != "" {
		user = &types.UserContext{Level: level}
	}

	db, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer db.Close()

	cacheKey := pipeline.CacheKey(topic, user)
	if !noCache {
		if cached, err := db.Get(cacheKey); err == nil {
			fmt.Fprintf(os.Stderr, "Using cached result from %s\n", cached.Timestamp.Format(time.RFC3339))
			return render(cached, format)
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}

	ai, err := completion.New(cfg.AI, cfg.Breaker, logger)
	if err != nil {
		return err
	}
	gateway := searxng.NewClient(cfg.Gateway, cfg.Breaker, logger)

	var emitter events.Emitter = events.Nop{}
	if verbose {
		emitter = events.NewZapEmitter(logger)
	}

	p := pipeline.New(cfg, gateway, ai, emitter, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := p.Research(ctx, pipeline.Request{
		Topic:    topic,
		MaxDepth: maxDepth,
		User:     user,
	})
	if err != nil {
		return err
	}

	if storeErr := db.Put(result); storeErr != nil {
		fmt.Fprintf(os.Stderr, "warning: could not cache result: %v\n", storeErr)
	}

	return render(result, format)
}

// loadPipelineConfig merges viper config with secrets-based defaults.
func loadPipelineConfig() types.PipelineConfig {
	var cfg types.PipelineConfig
	viper.Unmarshal(&cfg)

	if cfg.Gateway.BaseURL == "" {
		cfg.Gateway.BaseURL = secretDefault("searxng-url", viper.GetString("gateway.base_url"))
	}
	if cfg.AI.APIKey == "" {
		switch cfg.AI.Provider {
		case types.ProviderOpenAI:
			cfg.AI.APIKey = secretDefault("openai-api-key", "")
		default:
			cfg.AI.APIKey = secretDefault("anthropic-api-key", "")
		}
	}

	cfg.Defaults()
	return cfg
}

func render(result *types.TopicResearchResult, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(result)
	case "summary":
		printSummary(result)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want summary, json, or yaml)", format)
	}
}

func printSummary(result *types.TopicResearchResult) {
	fmt.Println(result.Content.Content)
	fmt.Printf("\n---\n")
	fmt.Printf("Sources: %d  Engines: %v  Confidence: %.2f  Read time: ~%d min\n",
		result.Metadata.TotalSources, result.Metadata.EnginesUsed,
		result.Metadata.ConfidenceScore, result.Content.EstimatedReadMinutes)

	if len(result.Subtopics) > 0 {
		fmt.Println("\nSubtopics to explore next:")
		for _, s := range result.Subtopics {
			fmt.Printf("  %d. %s (%s, ~%d min) — %s\n",
				s.Priority, s.Title, s.Complexity, s.EstimatedReadMinutes, s.Description)
		}
	}
}
