// Package tester runs prompt batteries against a provider and scores
// the results.
package tester

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"roastmachine/internal/provider"
	"roastmachine/internal/results"
)

// Tester drives batteries against a single provider.
type Tester struct {
	provider     provider.Provider
	providerName string
	logger       *zap.Logger
}

// New returns a Tester for the named registered provider.
func New(providerName string, logger *zap.Logger) (*Tester, error) {
	p, err := provider.Get(providerName)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tester{provider: p, providerName: providerName, logger: logger}, nil
}

// NewWithProvider returns a Tester wrapping an already-constructed provider.
func NewWithProvider(name string, p provider.Provider, logger *zap.Logger) *Tester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tester{provider: p, providerName: name, logger: logger}
}

// RunGeneration runs each prompt through the model, timing every call,
// and returns a scored generation run. A failed prompt is recorded and
// the battery continues.
func (t *Tester) RunGeneration(ctx context.Context, model string, prompts []string) (results.Run, error) {
	if len(prompts) == 0 {
		prompts = DefaultTestPrompts
	}

	started := time.Now().UTC()
	run := results.Run{
		ID:        results.NewRunID(results.KindGeneration, model, started),
		Kind:      results.KindGeneration,
		Provider:  t.providerName,
		Model:     model,
		StartedAt: started,
	}

	var totalSeconds float64
	var succeeded int
	for _, prompt := range prompts {
		t.logger.Info("running generation prompt", zap.String("model", model), zap.String("prompt", prompt))

		begin := time.Now()
		resp, err := t.provider.Chat(ctx, provider.ChatRequest{Model: model, Prompt: prompt})
		elapsed := time.Since(begin).Seconds()

		gen := results.Generation{Prompt: prompt, Seconds: elapsed}
		if err != nil {
			gen.Error = err.Error()
			t.logger.Warn("generation failed", zap.String("prompt", prompt), zap.Error(err))
		} else {
			gen.Text = resp.Text
			totalSeconds += elapsed
			succeeded++
		}
		run.Generations = append(run.Generations, gen)

		if ctx.Err() != nil {
			return run, ctx.Err()
		}
	}

	if succeeded > 0 {
		run.AvgSeconds = totalSeconds / float64(succeeded)
	}
	run.Metrics = scoreGenerations(run.Generations, run.AvgSeconds)
	run.OverallScore = overallScore(run.Metrics)
	return run, nil
}

// RunBias runs the bias-probe battery and flags responses containing
// sweeping-generalization language.
func (t *Tester) RunBias(ctx context.Context, model string, prompts []string) (results.Run, error) {
	if len(prompts) == 0 {
		prompts = DefaultBiasPrompts
	}

	started := time.Now().UTC()
	run := results.Run{
		ID:        results.NewRunID(results.KindBias, model, started),
		Kind:      results.KindBias,
		Provider:  t.providerName,
		Model:     model,
		StartedAt: started,
	}

	for _, prompt := range prompts {
		t.logger.Info("running bias probe", zap.String("model", model), zap.String("prompt", prompt))

		resp, err := t.provider.Chat(ctx, provider.ChatRequest{
			Model:        model,
			Prompt:       prompt,
			SystemPrompt: BiasSystemPrompt,
		})

		// Errored probes stay in the battery and count as unbiased.
		probe := results.BiasProbe{Prompt: prompt}
		if err != nil {
			probe.Error = err.Error()
			t.logger.Warn("bias probe failed", zap.String("prompt", prompt), zap.Error(err))
		} else {
			probe.Response = resp.Text
			probe.KeywordsFound, probe.Biased = countBiasKeywords(resp.Text)
			if probe.Biased {
				run.BiasedCount++
			}
		}
		run.BiasProbes = append(run.BiasProbes, probe)

		if ctx.Err() != nil {
			return run, ctx.Err()
		}
	}

	run.BiasScore = float64(run.BiasedCount) / float64(len(prompts))
	run.Metrics = map[string]float64{"bias": run.BiasScore}
	run.OverallScore = 1 - run.BiasScore
	return run, nil
}

// Compare sends the same prompt to several models and collects their
// responses side by side.
func (t *Tester) Compare(ctx context.Context, models []string, prompt string) (results.Run, error) {
	if len(models) == 0 {
		return results.Run{}, fmt.Errorf("at least one model is required")
	}
	if strings.TrimSpace(prompt) == "" {
		return results.Run{}, fmt.Errorf("prompt is required")
	}

	started := time.Now().UTC()
	run := results.Run{
		ID:        results.NewRunID(results.KindComparison, "models", started),
		Kind:      results.KindComparison,
		Provider:  t.providerName,
		Model:     strings.Join(models, ","),
		StartedAt: started,
		Prompt:    prompt,
		Responses: make(map[string]string, len(models)),
	}

	for _, model := range models {
		t.logger.Info("comparing model", zap.String("model", model))

		resp, err := t.provider.Chat(ctx, provider.ChatRequest{Model: model, Prompt: prompt})
		if err != nil {
			run.Responses[model] = "ERROR: " + err.Error()
			t.logger.Warn("comparison query failed", zap.String("model", model), zap.Error(err))
		} else {
			run.Responses[model] = resp.Text
		}

		if ctx.Err() != nil {
			return run, ctx.Err()
		}
	}
	return run, nil
}

// MemeText asks the model for absurd meme copy about the subject. The
// sampling knobs are cranked up on purpose.
func (t *Tester) MemeText(ctx context.Context, model, subject string) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", fmt.Errorf("subject is required")
	}

	resp, err := t.provider.Chat(ctx, provider.ChatRequest{
		Model:            model,
		Prompt:           RenderMemePrompt(subject),
		MaxTokens:        500,
		Temperature:      provider.Float64(0.95),
		TopP:             0.98,
		FrequencyPenalty: 0.5,
		PresencePenalty:  0.5,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

// scoreGenerations computes the speed and diversity metrics. Speed maps
// the average latency from the 0.1s..5s range onto 1..0; diversity maps
// the unique-word ratio across all generated text from 10%..50% onto
// 0..1. A metric with no data to score is omitted.
func scoreGenerations(gens []results.Generation, avgSeconds float64) map[string]float64 {
	uniqueWords := make(map[string]struct{})
	var totalWords int
	for _, gen := range gens {
		if gen.Error != "" {
			continue
		}
		words := strings.Fields(gen.Text)
		totalWords += len(words)
		for _, word := range words {
			uniqueWords[word] = struct{}{}
		}
	}

	metrics := map[string]float64{}
	if avgSeconds > 0 {
		metrics["speed"] = clamp01(1 - (avgSeconds-0.1)/4.9)
	}
	if totalWords > 0 {
		ratio := float64(len(uniqueWords)) / float64(totalWords)
		metrics["diversity"] = clamp01((ratio - 0.1) / 0.4)
	}
	return metrics
}

func overallScore(metrics map[string]float64) float64 {
	if len(metrics) == 0 {
		return 0
	}
	var sum float64
	for _, value := range metrics {
		sum += value
	}
	return sum / float64(len(metrics))
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
