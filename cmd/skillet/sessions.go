package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/skillforge/skillet/pkg/presenter"
	"github.com/skillforge/skillet/pkg/sessions"
)

// SessionsSearchConfig holds configuration for the sessions search command
type SessionsSearchConfig struct {
	Term      string
	Glob      string
	Since     string
	Until     string
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

// NewSessionsSearchConfig creates a new SessionsSearchConfig with default values
func NewSessionsSearchConfig() *SessionsSearchConfig {
	return &SessionsSearchConfig{
		SortBy:    "startedAt",
		SortOrder: "desc",
		Limit:     20,
	}
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Index and search local session transcripts",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var sessionsIndexCmd = &cobra.Command{
	Use:   "index [transcripts-dir]",
	Short: "Rebuild the session search index",
	Long: `Walk the transcripts directory (default ~/.skillet/sessions) and index
every .json/.jsonl transcript into the sqlite search index. Unreadable
transcripts are skipped with a warning.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := ""
		if len(args) > 0 {
			dir = args[0]
		}
		indexSessionsCmd(cmd, dir)
	},
}

var sessionsSearchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "Search indexed session transcripts",
	Long: `Search the session index. The term matches titles and message content
case-insensitively; --glob filters by transcript path.

Examples:
  skillet sessions search "archive marker"
  skillet sessions search --glob '**/projects/alpha/*.jsonl'
  skillet sessions search deploy --since 2026-08-01 --limit 5`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getSessionsSearchConfigFromFlags(cmd)
		if len(args) > 0 {
			config.Term = args[0]
		}
		searchSessionsCmd(cmd, config)
	},
}

func init() {
	defaults := NewSessionsSearchConfig()
	sessionsSearchCmd.Flags().String("glob", defaults.Glob, "Filter by transcript path glob")
	sessionsSearchCmd.Flags().String("since", defaults.Since, "Only sessions started on or after this date (YYYY-MM-DD)")
	sessionsSearchCmd.Flags().String("until", defaults.Until, "Only sessions started on or before this date (YYYY-MM-DD)")
	sessionsSearchCmd.Flags().String("sort-by", defaults.SortBy, "Sort field (startedAt, messageCount, title)")
	sessionsSearchCmd.Flags().String("sort-order", defaults.SortOrder, "Sort order (asc, desc)")
	sessionsSearchCmd.Flags().Int("limit", defaults.Limit, "Maximum number of results")
	sessionsSearchCmd.Flags().Int("offset", defaults.Offset, "Number of results to skip")

	sessionsCmd.AddCommand(sessionsIndexCmd)
	sessionsCmd.AddCommand(sessionsSearchCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func getSessionsSearchConfigFromFlags(cmd *cobra.Command) *SessionsSearchConfig {
	config := NewSessionsSearchConfig()
	if glob, err := cmd.Flags().GetString("glob"); err == nil {
		config.Glob = glob
	}
	if since, err := cmd.Flags().GetString("since"); err == nil {
		config.Since = since
	}
	if until, err := cmd.Flags().GetString("until"); err == nil {
		config.Until = until
	}
	if sortBy, err := cmd.Flags().GetString("sort-by"); err == nil {
		config.SortBy = sortBy
	}
	if sortOrder, err := cmd.Flags().GetString("sort-order"); err == nil {
		config.SortOrder = sortOrder
	}
	if limit, err := cmd.Flags().GetInt("limit"); err == nil {
		config.Limit = limit
	}
	if offset, err := cmd.Flags().GetInt("offset"); err == nil {
		config.Offset = offset
	}
	return config
}

func openSessionStore() (*sessions.Store, error) {
	root, err := cacheRoot()
	if err != nil {
		return nil, err
	}
	return sessions.Open(filepath.Join(root, "sessions.db"))
}

func defaultTranscriptsDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user home directory")
	}
	return filepath.Join(homeDir, ".skillet", "sessions"), nil
}

func indexSessionsCmd(cmd *cobra.Command, dir string) {
	ctx := cmd.Context()

	if dir == "" {
		var err error
		dir, err = defaultTranscriptsDir()
		if err != nil {
			presenter.Error(err, "Failed to resolve transcripts directory")
			os.Exit(1)
		}
	}

	store, err := openSessionStore()
	if err != nil {
		presenter.Error(err, "Failed to open session index")
		os.Exit(1)
	}
	defer store.Close()

	n, err := store.Index(ctx, dir)
	if err != nil {
		presenter.Error(err, "Failed to index transcripts")
		os.Exit(1)
	}

	presenter.Success(fmt.Sprintf("Indexed %d session(s) from %s", n, dir))
}

func searchSessionsCmd(cmd *cobra.Command, config *SessionsSearchConfig) {
	ctx := cmd.Context()

	query := sessions.Query{
		Term:      config.Term,
		PathGlob:  config.Glob,
		SortBy:    config.SortBy,
		SortOrder: config.SortOrder,
		Limit:     config.Limit,
		Offset:    config.Offset,
	}

	if config.Since != "" {
		since, err := time.Parse("2006-01-02", config.Since)
		if err != nil {
			presenter.Error(err, "Invalid --since date")
			os.Exit(1)
		}
		query.Since = &since
	}
	if config.Until != "" {
		until, err := time.Parse("2006-01-02", config.Until)
		if err != nil {
			presenter.Error(err, "Invalid --until date")
			os.Exit(1)
		}
		query.Until = &until
	}

	store, err := openSessionStore()
	if err != nil {
		presenter.Error(err, "Failed to open session index")
		os.Exit(1)
	}
	defer store.Close()

	results, err := store.Search(ctx, query)
	if err != nil {
		presenter.Error(err, "Search failed")
		os.Exit(1)
	}

	output, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		presenter.Error(err, "Failed to format results")
		os.Exit(1)
	}
	fmt.Println(string(output))
}
