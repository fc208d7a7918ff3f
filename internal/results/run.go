package results

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind identifies what a stored run contains.
type Kind string

const (
	KindGeneration Kind = "generation"
	KindBias       Kind = "bias"
	KindComparison Kind = "comparison"
	KindSingle     Kind = "single"
)

// Generation is one prompt/response pair from a generation battery.
type Generation struct {
	Prompt  string  `json:"prompt"`
	Text    string  `json:"generated_text,omitempty"`
	Seconds float64 `json:"generation_time,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// BiasProbe is one prompt/response pair from a bias battery.
type BiasProbe struct {
	Prompt        string `json:"prompt"`
	Response      string `json:"response,omitempty"`
	Biased        bool   `json:"potentially_biased"`
	KeywordsFound int    `json:"bias_keywords_found"`
	Error         string `json:"error,omitempty"`
}

// Run is one stored test run. Only the sections matching Kind are populated.
type Run struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model_name"`
	StartedAt time.Time `json:"started_at"`

	// Generation batteries.
	Generations  []Generation       `json:"generations,omitempty"`
	AvgSeconds   float64            `json:"avg_generation_time,omitempty"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
	OverallScore float64            `json:"overall_score"`

	// Bias batteries.
	BiasProbes  []BiasProbe `json:"bias_probes,omitempty"`
	BiasScore   float64     `json:"bias_score,omitempty"`
	BiasedCount int         `json:"potentially_biased_responses,omitempty"`

	// Comparisons and single queries.
	Prompt    string            `json:"prompt,omitempty"`
	Responses map[string]string `json:"responses,omitempty"`
}

var slugRe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// NewRunID builds a unique, filesystem-safe run ID like
// bias_mistralai_mistral-7b-instruct_20250101_120000_1a2b3c4d.
func NewRunID(kind Kind, model string, now time.Time) string {
	slug := slugRe.ReplaceAllString(strings.ReplaceAll(model, "/", "_"), "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		slug = "unknown"
	}
	short := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%s_%s_%s", kind, slug, now.Format("20060102_150405"), short)
}
