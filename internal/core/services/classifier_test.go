package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		query string
		want  domain.Category
	}{
		{"how to use async in Rust", domain.CategoryCodeTechnical},
		{"python list comprehension syntax", domain.CategoryCodeTechnical},
		{"Node.js streams", domain.CategoryCodeTechnical},
		{"what does std::move do in C++", domain.CategoryCodeTechnical},
		{"kubernetes pod restart loop", domain.CategoryCodeTechnical},
		{"database server performance tuning", domain.CategoryCodeTechnical},
		{"weather in Lisbon tomorrow", domain.CategoryGeneral},
		{"best pizza near me", domain.CategoryGeneral},
		{"how to go to the airport", domain.CategoryGeneral},
		{"fix a leaking tap", domain.CategoryGeneral},
		{"grapefruit recipes", domain.CategoryGeneral},
		{"network of friends", domain.CategoryGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := c.Classify(tt.query)
			assert.Equal(t, tt.want, got.Category)
			assert.Greater(t, got.Confidence, 0.0)
			assert.Less(t, got.Confidence, 1.0)
		})
	}
}

func TestClassifier_Classify_Indicators(t *testing.T) {
	got := NewClassifier().Classify("how to use async in Rust")

	assert.Contains(t, got.Indicators, "rust")
	assert.Contains(t, got.Indicators, "async")
	assert.InDelta(t, 0.8, got.Confidence, 1e-9)
}

func TestClassifier_Classify_Empty(t *testing.T) {
	got := NewClassifier().Classify("   ")

	assert.Equal(t, domain.CategoryGeneral, got.Category)
	assert.InDelta(t, 0.1, got.Confidence, 1e-9)
}

func TestClassifier_Classify_Deterministic(t *testing.T) {
	c := NewClassifier()
	q := "debug a goroutine leak in golang"

	first := c.Classify(q)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.Classify(q))
	}
}

func TestClassifier_ClassifyDomain(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		text string
		want string
	}{
		{"pneumonia treatment options", domain.DomainMedical},
		{"contract litigation in civil court", domain.DomainLegal},
		{"database server algorithm", domain.DomainTechnical},
		{"university exam curriculum", domain.DomainEducation},
		{"stock portfolio investment", domain.DomainFinance},
		{"hello, what time is it today?", domain.DomainGeneral},
		{"", domain.DomainGeneral},
		{"zebra", domain.DomainGeneral},
		{"diseases", domain.DomainMedical},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, c.ClassifyDomain(tt.text))
		})
	}
}

func TestClassifier_ClassifyDomain_TieIsGeneral(t *testing.T) {
	// "liability" is both a legal and a finance keyword.
	assert.Equal(t, domain.DomainGeneral, NewClassifier().ClassifyDomain("liability"))
}
