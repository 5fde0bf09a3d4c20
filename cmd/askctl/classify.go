package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"answer-pipeline/internal/domain"

	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [question]",
	Short: "Show how a question would be routed, without calling the server",
	Long: `Run the local intent classifier on a question and print the routing
decision the pipeline would make.

Examples:
  askctl classify "how many proposals do we have?"
  askctl classify --json "list fintech case studies"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

type classification struct {
	Intent      string            `json:"intent"`
	Attribute   string            `json:"attribute"`
	SalesIntent string            `json:"sales_intent,omitempty"`
	SalesStage  string            `json:"sales_stage,omitempty"`
	Mode        string            `json:"mode"`
	Entity      string            `json:"entity,omitempty"`
	Hints       map[string]string `json:"hints,omitempty"`
}

func hintFields(h domain.QueryHints) map[string]string {
	out := map[string]string{}
	set := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	set("doc_type", h.DocType)
	set("domain", h.Domain)
	set("category", h.Category)
	set("search_type", h.SearchType)
	set("target_category", h.TargetCategory)
	set("target_domain", h.TargetDomain)
	return out
}

func runClassify(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	decision := domain.ClassifyIntent(question)

	result := classification{
		Intent:      string(decision.Intent),
		Attribute:   string(decision.Attribute),
		SalesIntent: decision.SalesIntent,
		SalesStage:  string(decision.SalesStage),
		Mode:        string(domain.InferAnswerMode(question)),
		Entity:      domain.ExtractEntity(question),
		Hints:       hintFields(decision.Hints),
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Printf("Intent:     %s\n", result.Intent)
	fmt.Printf("Attribute:  %s\n", result.Attribute)
	fmt.Printf("Mode:       %s\n", result.Mode)
	if result.SalesIntent != "" {
		fmt.Printf("Sales:      %s (%s of funnel)\n", result.SalesIntent, result.SalesStage)
	}
	if result.Entity != "" {
		fmt.Printf("Entity:     %s\n", result.Entity)
	}
	for k, v := range result.Hints {
		fmt.Printf("Hint:       %s=%s\n", k, v)
	}
	return nil
}
