package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skillforge/skillet/pkg/presenter"
	"github.com/skillforge/skillet/pkg/replicate"
)

// ImagineConfig holds configuration for the imagine command
type ImagineConfig struct {
	ModelVersion string
	OutputDir    string
	AspectRatio  string
}

// NewImagineConfig creates a new ImagineConfig with default values
func NewImagineConfig() *ImagineConfig {
	return &ImagineConfig{
		OutputDir:   ".",
		AspectRatio: "1:1",
	}
}

var imagineCmd = &cobra.Command{
	Use:   "imagine <prompt>",
	Short: "Generate an image from a text prompt",
	Long: `Generate an image via Replicate and download the output files.
Requires SKILLET_REPLICATE_TOKEN (or replicate_token in the config file).

Examples:
  skillet imagine "a watercolor fox"
  skillet imagine "isometric city at night" --output ./renders`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getImagineConfigFromFlags(cmd)
		imagineCmdRun(cmd, args[0], config)
	},
}

func init() {
	defaults := NewImagineConfig()
	imagineCmd.Flags().String("model-version", defaults.ModelVersion, "Replicate model version (default from config)")
	imagineCmd.Flags().StringP("output", "o", defaults.OutputDir, "Directory to write generated images to")
	imagineCmd.Flags().String("aspect-ratio", defaults.AspectRatio, "Aspect ratio passed to the model")
	rootCmd.AddCommand(imagineCmd)
}

func getImagineConfigFromFlags(cmd *cobra.Command) *ImagineConfig {
	config := NewImagineConfig()
	if version, err := cmd.Flags().GetString("model-version"); err == nil && version != "" {
		config.ModelVersion = version
	}
	if output, err := cmd.Flags().GetString("output"); err == nil {
		config.OutputDir = output
	}
	if ratio, err := cmd.Flags().GetString("aspect-ratio"); err == nil {
		config.AspectRatio = ratio
	}
	return config
}

func imagineCmdRun(cmd *cobra.Command, prompt string, config *ImagineConfig) {
	ctx := cmd.Context()

	token := viper.GetString("replicate_token")
	if token == "" {
		presenter.Error(errors.New("no Replicate token configured"), "Set SKILLET_REPLICATE_TOKEN or replicate_token in the config file")
		os.Exit(1)
	}

	version := config.ModelVersion
	if version == "" {
		version = viper.GetString("replicate_model_version")
	}
	if version == "" {
		presenter.Error(errors.New("no model version configured"), "Pass --model-version or set replicate_model_version")
		os.Exit(1)
	}

	client := replicate.NewClient(token)

	prediction, err := client.Generate(ctx, version, replicate.PredictionInput{
		"prompt":       prompt,
		"aspect_ratio": config.AspectRatio,
	})
	if err != nil {
		presenter.Error(err, "Image generation failed")
		os.Exit(1)
	}

	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		presenter.Error(err, "Failed to create output directory")
		os.Exit(1)
	}

	var written []string
	for i, fileURL := range prediction.OutputURLs() {
		data, err := client.Download(ctx, fileURL)
		if err != nil {
			presenter.Error(err, "Failed to download generated image")
			os.Exit(1)
		}

		name := fmt.Sprintf("output_%d.%s", i, outputExt(fileURL))
		dest := filepath.Join(config.OutputDir, name)
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			presenter.Error(err, "Failed to write generated image")
			os.Exit(1)
		}
		written = append(written, dest)
	}

	output, err := json.MarshalIndent(map[string]any{
		"prediction_id": prediction.ID,
		"files":         written,
	}, "", "  ")
	if err != nil {
		presenter.Error(err, "Failed to format result")
		os.Exit(1)
	}
	fmt.Println(string(output))
}

func outputExt(fileURL string) string {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "png"
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), "."))
	if ext == "" {
		return "png"
	}
	return ext
}
