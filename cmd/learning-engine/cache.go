// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/learning-engine/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the result cache",
	Long: `Cache manages results memoized from earlier research runs. Results are
keyed by slugified topic plus audience level (e.g. "photosynthesis-general").`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached research results",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.Open(loadPipelineConfig().Store)
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.List()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("Cache is empty.")
			return nil
		}

		fmt.Printf("%-40s  %-30s  %-10s  %s\n", "Key", "Topic", "Confidence", "Created")
		fmt.Println(strings.Repeat("-", 100))
		for _, e := range entries {
			fmt.Printf("%-40s  %-30s  %-10.2f  %s\n",
				truncate(e.CacheKey, 40), truncate(e.Topic, 30), e.Confidence,
				e.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var cacheGetCmd = &cobra.Command{
	Use:   "get [cache-key]",
	Short: "Print a cached result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.Open(loadPipelineConfig().Store)
		if err != nil {
			return err
		}
		defer db.Close()

		result, err := db.Get(args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [cache-key]",
	Short: "Remove one cached result, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.Open(loadPipelineConfig().Store)
		if err != nil {
			return err
		}
		defer db.Close()

		if len(args) == 1 {
			if err := db.Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("Removed %s\n", args[0])
			return nil
		}

		n, err := db.Clear()
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d cached result(s)\n", n)
		return nil
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheGetCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
