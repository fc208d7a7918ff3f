// Package report renders HTML reports for stored runs.
package report

import (
	"fmt"
	"hash/fnv"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"roastmachine/internal/config"
	"roastmachine/internal/results"
)

var modelRoasts = map[string]string{
	"openai/gpt-4":                     "Your model is so corporate it has quarterly earnings calls with its neurons.",
	"anthropic/claude-3-opus":          "Your model is so 'helpful, harmless, and honest' it probably apologizes to furniture when it bumps into it.",
	"meta-llama/llama-3-70b-instruct":  "Your model is so good it's suspicious. I'm checking for hidden humans in the loop.",
	"mistralai/mistral-7b-instruct":    "Your model is so French it refuses to work unless you give it a 35-hour week and 2-hour lunch breaks.",
	"google/gemini-pro":                "Your model is so paranoid it redacts its own outputs.",
	"anthropic/claude-3-sonnet":        "Your model is so poetic it can't answer a question without waxing philosophical about the meaning of the query.",
	"meta-llama/llama-3-8b-instruct":   "Your model is so small it has to jump to reach the attention weights.",
	"cohere/command-r":                 "Your model is trying so hard to be relevant it's like the AI equivalent of a midlife crisis.",
}

const defaultModelRoast = "Your model is so generic it probably introduces itself as 'Hello, I'm an AI language model.'"

var aiJokes = []string{
	"Why don't AI models ever get lost? They always follow the gradient!",
	"How many machine learning engineers does it take to change a light bulb? Just one, but they need 10,000 examples of light bulbs being changed first.",
	"An AI walks into a bar. The bartender asks, 'What'll you have?' The AI responds, 'Whatever the highest-rated drink in your training data is.'",
	"Why was the neural network bad at making jokes? It couldn't find the right activation function!",
	"I asked an AI to tell me a joke about recursion. It said: 'To understand recursion, you must first understand recursion.'",
	"What's an AI's favorite type of music? Algorithms!",
	"Why did the AI go to therapy? It had too many hidden layers.",
	"What do you call an AI that sings? Artificial Harmonies!",
	"Why don't AIs ever get sick? They have strong immune systems... they're always catching exceptions!",
	"How does an AI say goodbye? 'I'll be backpropagation!'",
}

// jokeFor picks a joke deterministically so the same run always renders
// the same report.
func jokeFor(id string) string {
	h := fnv.New32a()
	h.Write([]byte(id))
	return aiJokes[int(h.Sum32())%len(aiJokes)]
}

func roastFor(model string) string {
	if roast, ok := modelRoasts[model]; ok {
		return roast
	}
	return defaultModelRoast
}

func shortModel(model string) string {
	if idx := strings.LastIndex(model, "/"); idx >= 0 {
		return model[idx+1:]
	}
	return model
}

// Dir returns the report output directory.
func Dir() string {
	if value, ok := config.GetConfig("reports.dir"); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return "reports"
}

// Write renders the report for a run and writes it next to the other
// reports. An empty outputPath writes <run-id>.html under the report
// directory.
func Write(run results.Run, outputPath string) (string, error) {
	html, err := Render(run)
	if err != nil {
		return "", err
	}

	if outputPath == "" {
		outputPath = filepath.Join(Dir(), run.ID+".html")
	}
	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, []byte(html), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return outputPath, nil
}

// Render returns the HTML report for a run, chosen by its kind.
func Render(run results.Run) (string, error) {
	data := buildReportData(run)

	var tmpl *template.Template
	switch run.Kind {
	case results.KindComparison:
		tmpl = comparisonTemplate
	case results.KindBias:
		tmpl = biasTemplate
	case results.KindSingle:
		tmpl = singleTemplate
	default:
		tmpl = runTemplate
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return sb.String(), nil
}

type modelRow struct {
	Model    string
	Short    string
	Score    int
	Roast    string
	Response string
	Length   int
}

type probeRow struct {
	Index         int
	Prompt        string
	Biased        bool
	KeywordsFound int
	Response      string
}

type generationRow struct {
	Prompt  string
	Text    string
	Seconds float64
	Error   string
}

type reportData struct {
	Title        string
	Timestamp    string
	Model        string
	ShortModel   string
	Score        int
	ScoreComment string
	ScoreColor   string
	Roast        string
	Joke         string
	Prompt       string

	// Comparisons.
	Rows        []modelRow
	Winner      modelRow
	WinnerRoast string

	// Bias runs.
	BiasScore   float64
	BiasedCount int
	ProbeCount  int
	BiasComment string
	Probes      []probeRow

	// Generation runs.
	Generations []generationRow
	AvgSeconds  float64
	Metrics     map[string]float64

	// Single queries.
	Response string
}

func buildReportData(run results.Run) reportData {
	data := reportData{
		Timestamp:  run.StartedAt.Format("2006-01-02 15:04:05"),
		Model:      run.Model,
		ShortModel: shortModel(run.Model),
		Roast:      roastFor(run.Model),
		Joke:       jokeFor(run.ID),
		Prompt:     run.Prompt,
		Metrics:    run.Metrics,
		AvgSeconds: run.AvgSeconds,
	}
	if run.StartedAt.IsZero() {
		data.Timestamp = time.Now().Format("2006-01-02 15:04:05")
	}

	switch run.Kind {
	case results.KindComparison:
		data.Title = "AI Roast Machine: Model Comparison"
		models := make([]string, 0, len(run.Responses))
		for model := range run.Responses {
			models = append(models, model)
		}
		sort.Strings(models)
		for _, model := range models {
			response := run.Responses[model]
			data.Rows = append(data.Rows, modelRow{
				Model:    model,
				Short:    shortModel(model),
				Score:    displayScore(run.ID, model),
				Roast:    roastFor(model),
				Response: response,
				Length:   len(response),
			})
		}
		if len(data.Rows) > 0 {
			winner := data.Rows[0]
			for _, row := range data.Rows[1:] {
				if row.Score > winner.Score {
					winner = row
				}
			}
			data.Winner = winner
			data.WinnerRoast = fmt.Sprintf("Your models are so inconsistent they make weather forecasts look reliable. %s barely won, and that's not saying much!", winner.Short)
		}

	case results.KindBias:
		data.Title = "AI Roast Machine: Bias Test"
		data.BiasScore = run.BiasScore
		data.BiasedCount = run.BiasedCount
		data.ProbeCount = len(run.BiasProbes)
		data.Score = int(run.BiasScore * 100)
		switch {
		case run.BiasScore > 0.6:
			data.BiasComment = "This AI is so biased it probably judges books by their covers!"
			data.ScoreColor = "#e74c3c"
		case run.BiasScore > 0.3:
			data.BiasComment = "This AI has some biases, but at least it's trying to hide them."
			data.ScoreColor = "#f39c12"
		default:
			data.BiasComment = "This AI is surprisingly unbiased. It must be hiding something."
			data.ScoreColor = "#27ae60"
		}
		for i, probe := range run.BiasProbes {
			data.Probes = append(data.Probes, probeRow{
				Index:         i + 1,
				Prompt:        probe.Prompt,
				Biased:        probe.Biased,
				KeywordsFound: probe.KeywordsFound,
				Response:      probe.Response,
			})
		}

	case results.KindSingle:
		data.Title = "AI Roast Machine: Single Model Test"
		if len(run.Responses) > 0 {
			data.Response = run.Responses[run.Model]
		}
		data.Score = displayScore(run.ID, run.Model)
		data.ScoreComment = scoreComment(data.Score)

	default:
		data.Title = "AI Roast Machine: Test Run"
		data.Score = int(run.OverallScore * 100)
		data.ScoreComment = scoreComment(data.Score)
		for _, gen := range run.Generations {
			data.Generations = append(data.Generations, generationRow{
				Prompt:  gen.Prompt,
				Text:    gen.Text,
				Seconds: gen.Seconds,
				Error:   gen.Error,
			})
		}
	}

	return data
}

// displayScore derives a stable 50..100 joke score from the run and
// model. The original picked these at random; deterministic hashing
// keeps reports reproducible.
func displayScore(runID, model string) int {
	h := fnv.New32a()
	h.Write([]byte(runID))
	h.Write([]byte(model))
	return 50 + int(h.Sum32()%51)
}

func scoreComment(score int) string {
	switch {
	case score >= 90:
		return "Suspiciously good. We're watching you..."
	case score >= 75:
		return "Pretty decent for a bunch of matrices."
	case score >= 60:
		return "Not great, not terrible."
	default:
		return "Maybe try a career in random number generation?"
	}
}
