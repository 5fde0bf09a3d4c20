package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"answer-pipeline/internal/adapter/httpapi"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const askTimeout = 3 * time.Minute

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the pipeline one question",
	Long: `Send a single question to the answer pipeline and print the answer.

Examples:
  askctl ask "do we have a case study for fintech?"
  askctl ask --model gpt-4o "explain our QA ownership model"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().String("model", "", "model preference (gpt-4o or gpt-4o-mini)")
	askCmd.Flags().Int("max-tokens", 0, "response token cap override")
}

func runAsk(cmd *cobra.Command, args []string) error {
	model, _ := cmd.Flags().GetString("model")
	maxTokens, _ := cmd.Flags().GetInt("max-tokens")

	resp, err := postAsk(cmd.Context(), httpapi.AskRequest{
		Question:        strings.Join(args, " "),
		ModelPreference: model,
		MaxTokens:       maxTokens,
	})
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Println(resp.Answer)
	if len(resp.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, s := range resp.Sources {
			fmt.Println("  - " + s)
		}
	}
	if len(resp.FollowUps) > 0 {
		fmt.Println("\nFollow-ups:")
		for _, f := range resp.FollowUps {
			fmt.Println("  - " + f)
		}
	}
	fmt.Printf("\n[model: %s, confidence: %d%%, tokens: %d]\n",
		resp.ModelUsed, resp.Confidence, resp.TotalTokens)
	return nil
}

func postAsk(ctx context.Context, req httpapi.AskRequest) (*httpapi.AskResponse, error) {
	if req.MessageID == "" {
		// Stamp every request so the server-side dedup cache makes retries
		// after a dropped connection safe to resubmit.
		req.MessageID = uuid.NewString()
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, askTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(serverURL, "/")+"/v1/ask", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call server: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(httpResp.Body)
		return nil, fmt.Errorf("server returned %d: %s", httpResp.StatusCode, string(body))
	}

	var resp httpapi.AskResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &resp, nil
}
