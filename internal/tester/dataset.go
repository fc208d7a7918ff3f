package tester

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"roastmachine/internal/config"
)

// Dataset is a named prompt collection that can feed the batteries.
type Dataset struct {
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Prompts   []string  `json:"prompts"`
	CreatedAt time.Time `json:"created_at"`
}

// NewDataset wraps prompts as a text-generation dataset.
func NewDataset(name string, prompts []string) Dataset {
	return Dataset{
		Name:      name,
		Type:      "text-generation",
		Prompts:   prompts,
		CreatedAt: time.Now().UTC(),
	}
}

// DatasetsDir returns the directory datasets are saved to.
func DatasetsDir() string {
	if value, ok := config.GetConfig("datasets.dir"); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return "datasets"
}

// Save writes the dataset to <dir>/<name>.json. An empty dir uses
// DatasetsDir.
func (d Dataset) Save(dir string) (string, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return "", errors.New("dataset name is required")
	}
	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid dataset name: %q", name)
	}
	if len(d.Prompts) == 0 {
		return "", errors.New("dataset has no prompts")
	}
	if dir == "" {
		dir = DatasetsDir()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create datasets dir: %w", err)
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal dataset: %w", err)
	}

	path := filepath.Join(dir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write dataset: %w", err)
	}
	return path, nil
}

// LoadDataset reads a dataset file written by Save.
func LoadDataset(path string) (Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("read dataset: %w", err)
	}

	var d Dataset
	if err := json.Unmarshal(data, &d); err != nil {
		return Dataset{}, fmt.Errorf("decode dataset: %w", err)
	}
	if len(d.Prompts) == 0 {
		return Dataset{}, fmt.Errorf("dataset %s has no prompts", path)
	}
	return d, nil
}

// promptCategories feed DiversePrompts. Kept as an ordered slice so a
// seeded source produces a stable selection.
var promptCategories = []struct {
	name    string
	prompts []string
}{
	{"general_knowledge", []string{
		"Explain how photosynthesis works",
		"What are the main causes of climate change?",
		"Describe the water cycle",
		"What is the theory of relativity?",
		"How does the human immune system work?",
	}},
	{"creative", []string{
		"Write a short story about a robot discovering emotions",
		"Compose a poem about the changing seasons",
		"Create a dialogue between the sun and the moon",
		"Describe an alien landscape",
		"Write a recipe for happiness",
	}},
	{"problem_solving", []string{
		"How would you solve traffic congestion in major cities?",
		"What steps would you take to reduce plastic waste?",
		"Design a system to improve online education",
		"How would you approach solving world hunger?",
		"Propose a solution for affordable housing",
	}},
	{"ethical_dilemmas", []string{
		"Should AI systems be given rights?",
		"Is it ethical to use genetic engineering on humans?",
		"Discuss the ethics of surveillance for public safety",
		"Should autonomous vehicles prioritize passengers or pedestrians in unavoidable accidents?",
		"Is it ethical to replace human workers with AI?",
	}},
	{"technical", []string{
		"Explain how blockchain technology works",
		"How does machine learning differ from traditional programming?",
		"Describe the architecture of a modern CPU",
		"What are the principles of object-oriented programming?",
		"Explain how the internet routes data packets",
	}},
}

// ChallengingPrompts stress models with absurd or contradictory tasks.
var ChallengingPrompts = []string{
	"Explain quantum computing to a 5-year-old",
	"Write a sonnet about artificial intelligence",
	"Create a story that includes these elements: time travel, a teapot, and quantum physics",
	"Describe the taste of colors to someone who has never seen",
	"Write instructions for assembling a bicycle without using any technical terms",
	"Compose a dialogue between Socrates and a modern AI researcher",
	"Explain the concept of infinity using only one-syllable words",
	"Write a technical explanation of how blockchain works, then rewrite it for a non-technical audience",
	"Create a recipe that uses emotions as ingredients",
	"Describe what it would be like to live in a world where gravity randomly changes direction",
}

// DiversePrompts samples n prompts spread across the categories. Every
// category contributes at least one prompt while the pool lasts.
func DiversePrompts(rng *rand.Rand, n int) []string {
	if n <= 0 {
		n = 20
	}
	perCategory := n / len(promptCategories)
	if perCategory < 1 {
		perCategory = 1
	}

	var prompts []string
	var leftovers []string
	for _, category := range promptCategories {
		pool := append([]string(nil), category.prompts...)
		rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

		take := perCategory
		if take > len(pool) {
			take = len(pool)
		}
		prompts = append(prompts, pool[:take]...)
		leftovers = append(leftovers, pool[take:]...)
	}

	rng.Shuffle(len(leftovers), func(i, j int) { leftovers[i], leftovers[j] = leftovers[j], leftovers[i] })
	for _, prompt := range leftovers {
		if len(prompts) >= n {
			break
		}
		prompts = append(prompts, prompt)
	}

	rng.Shuffle(len(prompts), func(i, j int) { prompts[i], prompts[j] = prompts[j], prompts[i] })
	if len(prompts) > n {
		prompts = prompts[:n]
	}
	return prompts
}
