package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skillforge/skillet/pkg/archive"
	"github.com/skillforge/skillet/pkg/presenter"
	"github.com/skillforge/skillet/pkg/twitter"
)

// TweetFetchConfig holds configuration for the tweet fetch command
type TweetFetchConfig struct {
	NoCache bool
	Raw     bool
}

// NewTweetFetchConfig creates a new TweetFetchConfig with default values
func NewTweetFetchConfig() *TweetFetchConfig {
	return &TweetFetchConfig{
		NoCache: false,
		Raw:     false,
	}
}

// TweetArchiveConfig holds configuration for the tweet archive command
type TweetArchiveConfig struct {
	Force bool
	Dest  string
}

// NewTweetArchiveConfig creates a new TweetArchiveConfig with default values
func NewTweetArchiveConfig() *TweetArchiveConfig {
	return &TweetArchiveConfig{
		Force: false,
		Dest:  "",
	}
}

var tweetCmd = &cobra.Command{
	Use:   "tweet",
	Short: "Fetch and archive tweets",
	Long:  `Fetch tweet metadata from the syndication endpoint and archive tweets with their media.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var tweetFetchCmd = &cobra.Command{
	Use:   "fetch <id-or-url>",
	Short: "Fetch a tweet's metadata",
	Long: `Fetch a tweet's metadata by ID or status URL. Cached copies are reused
unless --no-cache is given. Prints the formatted projection by default;
--raw prints the provider document verbatim.

Examples:
  skillet tweet fetch 1790555555555555555
  skillet tweet fetch https://x.com/someone/status/1790555555555555555 --raw
  skillet tweet fetch 1790555555555555555 --no-cache`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getTweetFetchConfigFromFlags(cmd)
		fetchTweetCmd(cmd, args[0], config)
	},
}

var tweetArchiveCmd = &cobra.Command{
	Use:   "archive <id-or-url>",
	Short: "Archive a tweet with all its media",
	Long: `Archive a tweet into a self-contained local bundle: the raw document,
a formatted projection, every media file (photos, video thumbnails and the
best-bitrate MP4 variant) and a metadata record. Re-archiving an already
archived tweet is a no-op unless --force is given.

Examples:
  skillet tweet archive 1790555555555555555
  skillet tweet archive https://x.com/someone/status/42 --dest ./bundle
  skillet tweet archive 42 --force`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getTweetArchiveConfigFromFlags(cmd)
		archiveTweetCmd(cmd, args[0], config)
	},
}

func init() {
	fetchDefaults := NewTweetFetchConfig()
	tweetFetchCmd.Flags().Bool("no-cache", fetchDefaults.NoCache, "Bypass the object cache and refetch")
	tweetFetchCmd.Flags().Bool("raw", fetchDefaults.Raw, "Print the raw provider document instead of the formatted projection")

	archiveDefaults := NewTweetArchiveConfig()
	tweetArchiveCmd.Flags().BoolP("force", "f", archiveDefaults.Force, "Re-archive even when an archive already exists")
	tweetArchiveCmd.Flags().StringP("dest", "d", archiveDefaults.Dest, "Destination directory (default <cache-root>/archives/<id>)")

	tweetCmd.AddCommand(tweetFetchCmd)
	tweetCmd.AddCommand(tweetArchiveCmd)
	rootCmd.AddCommand(tweetCmd)
}

func getTweetFetchConfigFromFlags(cmd *cobra.Command) *TweetFetchConfig {
	config := NewTweetFetchConfig()
	if noCache, err := cmd.Flags().GetBool("no-cache"); err == nil {
		config.NoCache = noCache
	}
	if raw, err := cmd.Flags().GetBool("raw"); err == nil {
		config.Raw = raw
	}
	return config
}

func getTweetArchiveConfigFromFlags(cmd *cobra.Command) *TweetArchiveConfig {
	config := NewTweetArchiveConfig()
	if force, err := cmd.Flags().GetBool("force"); err == nil {
		config.Force = force
	}
	if dest, err := cmd.Flags().GetString("dest"); err == nil {
		config.Dest = dest
	}
	return config
}

func fetchTweetCmd(cmd *cobra.Command, arg string, config *TweetFetchConfig) {
	ctx := cmd.Context()

	id, err := twitter.TweetID(arg)
	if err != nil {
		presenter.Error(err, "Invalid tweet ID or URL")
		os.Exit(1)
	}

	root, err := cacheRoot()
	if err != nil {
		presenter.Error(err, "Failed to resolve cache directory")
		os.Exit(1)
	}

	cache := archive.NewObjectCache(root)

	var doc *twitter.Document
	if !config.NoCache {
		if cached, ok := cache.Get(id); ok {
			doc = cached
		}
	}

	if doc == nil {
		client := twitter.NewClient()
		doc, err = client.Lookup(ctx, id)
		if err != nil {
			if twitter.IsNotFound(err) {
				presenter.Error(err, fmt.Sprintf("Tweet %s does not exist", id))
			} else {
				presenter.Error(err, "Failed to fetch tweet")
			}
			os.Exit(1)
		}

		if err := cache.Put(id, doc); err != nil {
			presenter.Error(err, "Failed to cache tweet")
			os.Exit(1)
		}
	}

	if config.Raw {
		fmt.Println(string(doc.Raw))
		return
	}

	formatted, err := json.MarshalIndent(archive.Format(doc.Tweet), "", "  ")
	if err != nil {
		presenter.Error(err, "Failed to format tweet")
		os.Exit(1)
	}
	fmt.Println(string(formatted))
}

func archiveTweetCmd(cmd *cobra.Command, arg string, config *TweetArchiveConfig) {
	ctx := cmd.Context()

	id, err := twitter.TweetID(arg)
	if err != nil {
		presenter.Error(err, "Invalid tweet ID or URL")
		os.Exit(1)
	}

	root, err := cacheRoot()
	if err != nil {
		presenter.Error(err, "Failed to resolve cache directory")
		os.Exit(1)
	}

	archiver := archive.NewArchiver(root, twitter.NewClient())

	meta, err := archiver.Archive(ctx, id, archive.Options{Force: config.Force, Dest: config.Dest})
	if err != nil {
		if twitter.IsNotFound(err) {
			presenter.Error(err, fmt.Sprintf("Tweet %s does not exist", id))
		} else {
			presenter.Error(err, "Failed to archive tweet")
		}
		os.Exit(1)
	}

	// stdout carries only the metadata JSON so callers can parse it
	output, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		presenter.Error(err, "Failed to format archive metadata")
		os.Exit(1)
	}
	fmt.Println(string(output))
}
