package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-tongue/backend/internal/analysis/tongue"
	"github.com/zhouzirui/z-tongue/backend/internal/config"
	"github.com/zhouzirui/z-tongue/backend/internal/model/diagnosis"
	"github.com/zhouzirui/z-tongue/backend/internal/service/ai"
)

var (
	imagePath string
	direct    bool
)

var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Synthesize an analysis offline from a photo",
	RunE: func(cmd *cobra.Command, args []string) error {
		image, err := dataURL(imagePath)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), tongue.Synthesize(image))
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run stage one for a photo",
	Long: `Run stage one for a photo.

By default the photo is posted to the server's /api/analyze endpoint.
With --direct the configured model is called in-process, falling back to
local synthesis exactly as the server would.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		image, err := dataURL(imagePath)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		if direct {
			return analyzeDirect(ctx, cmd.OutOrStdout(), image)
		}
		body, err := json.Marshal(map[string]string{"imageData": image})
		if err != nil {
			return err
		}
		return call(ctx, cmd.OutOrStdout(), http.MethodPost, "/api/analyze", body)
	},
}

var recordCmd = &cobra.Command{
	Use:   "record SESSION_ID",
	Short: "Print a stored session record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		return call(ctx, cmd.OutOrStdout(), http.MethodGet, "/api/record/"+url.PathEscape(args[0]), nil)
	},
}

func init() {
	for _, c := range []*cobra.Command{synthCmd, analyzeCmd} {
		c.Flags().StringVar(&imagePath, "image", "", "tongue photo path")
		_ = c.MarkFlagRequired("image")
	}
	analyzeCmd.Flags().BoolVar(&direct, "direct", false, "call the model in-process instead of the server")
}

// dataURL reads a photo and encodes it the way the web client does.
func dataURL(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("--image is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%s does not look like an image (%s)", path, mime)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func analyzeDirect(ctx context.Context, out io.Writer, image string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("配置加载失败: %w", err)
	}

	var completer ai.Completer
	if cfg.AI.Enabled() {
		switch cfg.AI.Provider {
		case config.ProviderGemini:
			gemini, err := ai.NewGeminiCompleter(ctx, cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel, float32(cfg.AI.Temperature), cfg.AI.MaxTokens)
			if err != nil {
				return err
			}
			completer = gemini
		default:
			chatModel, err := cfg.AI.NewChatModel(ctx)
			if err != nil {
				return err
			}
			completer = ai.NewChatModelCompleter(chatModel, float32(cfg.AI.Temperature), cfg.AI.MaxTokens)
		}
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	client := ai.NewClient(completer, cfg.AI.Timeout, logger)

	prompt, err := ai.DefaultPrompts().Analysis.Render(ctx, nil)
	if err != nil {
		return err
	}

	result := struct {
		Source   diagnosis.Source        `json:"source"`
		Analysis diagnosis.TongueAnalysis `json:"analysis"`
		Error    string                  `json:"error,omitempty"`
	}{Source: diagnosis.SourceModel}

	err = client.InvokeInto(ctx, prompt, image, &result.Analysis)
	if err == nil {
		err = result.Analysis.Validate()
	}
	if err != nil {
		result.Source = diagnosis.SourceFallback
		result.Analysis = tongue.Synthesize(image)
		result.Error = err.Error()
	}
	return printJSON(out, result)
}

func call(ctx context.Context, out io.Writer, method, path string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(serverURL, "/")+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(raw)
	}
	fmt.Fprintln(out, pretty.String())

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
