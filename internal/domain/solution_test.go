package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecommendSolution(t *testing.T) {
	tests := []struct {
		question string
		want     string
	}{
		{"We keep shipping production bugs and customers complain", "BugBuster"},
		{"Our flaky tests make every release slow", "Fastrack Automation"},
		{"We cannot manage QA with our current team size", "QA Ownership"},
		{"We need strategy advice on AI adoption", "MoolyAImpact"},
		{"Tell me about the weather", ""},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.want, RecommendSolution(tt.question))
		})
	}
}

func TestRecommendSolution_Deterministic(t *testing.T) {
	// Question hits both BugBuster ("urgent") and Fastrack ("pipeline");
	// the fixed evaluation order must always pick the same one.
	q := "urgent pipeline failures in production"
	first := RecommendSolution(q)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, RecommendSolution(q))
	}
	assert.Equal(t, "BugBuster", first)
}

func TestHandleObjection(t *testing.T) {
	t.Run("price objection", func(t *testing.T) {
		out := HandleObjection("This is too expensive for us")
		assert.Contains(t, out, "**Recommendation:**")
		assert.Contains(t, out, "**Proof:**")
	})

	t.Run("diy objection", func(t *testing.T) {
		out := HandleObjection("Why wouldn't we just build it ourselves?")
		assert.Contains(t, strings.ToLower(out), "in-house")
	})

	t.Run("not an objection", func(t *testing.T) {
		assert.Empty(t, HandleObjection("Summarize the fintech case study"))
	})
}
