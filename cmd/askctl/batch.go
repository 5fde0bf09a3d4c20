package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"answer-pipeline/internal/adapter/httpapi"

	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"
)

var batchCmd = &cobra.Command{
	Use:   "batch [file]",
	Short: "Run a file of questions through the pipeline",
	Long: `Read questions from a file (one per line, blank lines and # comments
skipped) and ask them concurrently.

Examples:
  askctl batch questions.txt
  askctl batch questions.txt --parallel 8 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Int("parallel", 4, "maximum concurrent requests")
}

type batchResult struct {
	Question string `json:"question"`
	Answer   string `json:"answer,omitempty"`
	Model    string `json:"model,omitempty"`
	Error    string `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	questions, err := readQuestions(args[0])
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return fmt.Errorf("no questions in %s", args[0])
	}

	parallel, _ := cmd.Flags().GetInt("parallel")
	if parallel < 1 {
		parallel = 1
	}

	ctx := cmd.Context()
	sem := semaphore.NewWeighted(int64(parallel))
	results := make([]batchResult, len(questions))

	var wg sync.WaitGroup
	for i, q := range questions {
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		wg.Add(1)
		go func(i int, question string) {
			defer sem.Release(1)
			defer wg.Done()

			resp, err := postAsk(ctx, httpapi.AskRequest{Question: question})
			if err != nil {
				results[i] = batchResult{Question: question, Error: err.Error()}
				return
			}
			results[i] = batchResult{Question: question, Answer: resp.Answer, Model: resp.ModelUsed}
		}(i, q)
	}
	wg.Wait()

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	failed := 0
	for _, r := range results {
		fmt.Println("Q: " + r.Question)
		if r.Error != "" {
			failed++
			fmt.Println("ERROR: " + r.Error)
		} else {
			fmt.Println("A: " + r.Answer)
		}
		fmt.Println()
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d questions failed", failed, len(results))
	}
	return nil
}

func readQuestions(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open questions file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var questions []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		questions = append(questions, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read questions file: %w", err)
	}
	return questions, nil
}
