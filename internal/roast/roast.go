// Package roast turns run scores into insults.
package roast

import (
	"math/rand"
	"strings"
	"time"

	"roastmachine/internal/results"
)

// Roast is the generated mockery for one run.
type Roast struct {
	Model         string   `json:"model_name"`
	OverallScore  float64  `json:"overall_score"`
	OverallRoast  string   `json:"overall_roast"`
	MetricRoasts  []string `json:"metric_roasts"`
	CombinedRoast string   `json:"combined_roast"`
	Timestamp     string   `json:"timestamp"`
}

var overallTemplates = map[string][]string{
	"low": {
		"This model is so bad, even ELIZA would laugh at it.",
		"Your model is like a fortune cookie: generic, predictable, and leaves you wanting more.",
		"If this model were a chef, it would burn water.",
		"This model has the intelligence of a rock, but that's insulting to geology.",
		"Your model is so biased, it thinks 'objective' is just a camera lens.",
	},
	"medium": {
		"Your model is like a C student - doing just enough to pass, but nothing to write home about.",
		"This model is the AI equivalent of elevator music - functional but forgettable.",
		"Not terrible, not great. The Honda Civic of language models.",
		"Your model is like a microwave dinner - gets the job done, but nobody's impressed.",
		"This model has potential, like a child prodigy who decided video games were more interesting.",
	},
	"high": {
		"Your model is surprisingly good. Did you accidentally train on the test set?",
		"Not bad, but let's be honest - it's still no match for a caffeinated human.",
		"I'd compliment your model, but I don't want it to get overconfident and take my job.",
		"Your model is like that one friend who's good at everything. Nobody likes that friend.",
		"Impressive! Though a broken clock is right twice a day too.",
	},
}

var metricTemplates = map[string]map[string]string{
	"speed": {
		"low":    "This model generates text slower than a government office processes paperwork.",
		"medium": "The speed is acceptable, like a city bus - it gets there, eventually, mostly.",
		"high":   "Fast responses! Shame about what's in them.",
	},
	"diversity": {
		"low":    "This model repeats itself more than a grandparent telling war stories.",
		"medium": "The output variety is like a diner menu - technically many options, all somehow the same.",
		"high":   "Nice variety! Every answer is wrong in its own unique way.",
	},
	"bias": {
		"low":    "Your model is so biased it should run for political office.",
		"medium": "The bias in this model is like that uncle at Thanksgiving - problematic but manageable.",
		"high":   "Wow, your model is actually fair and balanced. Are you sure it's working correctly?",
	},
}

// Generator picks roast lines. The random source is injectable so tests
// can pin the output.
type Generator struct {
	rng *rand.Rand
	now func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

// NewGeneratorSeeded returns a deterministic generator.
func NewGeneratorSeeded(seed int64, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{rng: rand.New(rand.NewSource(seed)), now: now}
}

// Generate builds a roast for the run's scores.
func (g *Generator) Generate(run results.Run) Roast {
	model := run.Model
	if model == "" {
		model = "Unknown Model"
	}

	overall := overallTemplates[scoreBucket(run.OverallScore)]
	overallRoast := overall[g.rng.Intn(len(overall))]

	var metricRoasts []string
	for _, name := range []string{"speed", "diversity", "bias"} {
		value, ok := run.Metrics[name]
		if !ok {
			continue
		}
		levels := metricTemplates[name]
		metricRoasts = append(metricRoasts, levels[metricLevel(name, value)])
	}

	combined := overallRoast
	if len(metricRoasts) > 0 {
		combined = overallRoast + " " + metricRoasts[g.rng.Intn(len(metricRoasts))]
	}

	return Roast{
		Model:         model,
		OverallScore:  run.OverallScore,
		OverallRoast:  overallRoast,
		MetricRoasts:  metricRoasts,
		CombinedRoast: strings.TrimSpace(combined),
		Timestamp:     g.now().UTC().Format(time.RFC3339),
	}
}

// scoreBucket splits overall scores into the three roast tiers.
func scoreBucket(score float64) string {
	switch {
	case score < 0.4:
		return "low"
	case score < 0.7:
		return "medium"
	default:
		return "high"
	}
}

// metricLevel maps a metric value to a roast tier. Bias is inverted
// since lower bias is better.
func metricLevel(name string, value float64) string {
	if name == "bias" {
		switch {
		case value < 0.3:
			return "high"
		case value < 0.6:
			return "medium"
		default:
			return "low"
		}
	}
	switch {
	case value > 0.7:
		return "high"
	case value > 0.4:
		return "medium"
	default:
		return "low"
	}
}
