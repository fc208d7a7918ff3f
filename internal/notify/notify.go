// Package notify posts run summaries to Discord, Slack, or generic
// JSON webhooks.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"roastmachine/internal/results"
)

type WebhookType string

const (
	WebhookDiscord WebhookType = "discord"
	WebhookSlack   WebhookType = "slack"
	WebhookGeneric WebhookType = "generic"
)

// RunOptions describes a completed run to announce.
type RunOptions struct {
	WebhookURL string
	Run        results.Run
	Roast      string
	ReportPath string
	Timeout    time.Duration
}

func DetectWebhookType(url string) WebhookType {
	lower := strings.ToLower(url)
	if strings.Contains(lower, "discord.com/api/webhooks") || strings.Contains(lower, "discordapp.com/api/webhooks") {
		return WebhookDiscord
	}
	if strings.Contains(lower, "hooks.slack.com") {
		return WebhookSlack
	}
	return WebhookGeneric
}

// NotifyRunComplete announces a finished run with its score and roast.
func NotifyRunComplete(ctx context.Context, opts RunOptions) error {
	if strings.TrimSpace(opts.WebhookURL) == "" {
		return errors.New("webhook URL is required")
	}
	if opts.Run.ID == "" {
		return errors.New("run is required")
	}
	payload, err := buildRunPayload(opts, time.Now())
	if err != nil {
		return err
	}
	return SendWebhook(ctx, opts.WebhookURL, payload, opts.Timeout)
}

func SendWebhook(ctx context.Context, url string, payload []byte, timeout time.Duration) error {
	if strings.TrimSpace(url) == "" {
		return errors.New("webhook URL is required")
	}
	if len(payload) == 0 {
		return errors.New("payload is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func buildRunPayload(opts RunOptions, now time.Time) ([]byte, error) {
	run := opts.Run
	score := fmt.Sprintf("%.2f", run.OverallScore)
	roast := strings.TrimSpace(opts.Roast)
	if roast == "" {
		roast = "No roast generated. The model got off easy this time."
	}
	timestamp := now.Format(time.RFC3339)

	switch DetectWebhookType(opts.WebhookURL) {
	case WebhookDiscord:
		fields := []map[string]interface{}{
			{"name": "Model", "value": fmt.Sprintf("`%s`", run.Model), "inline": false},
			{"name": "Kind", "value": string(run.Kind), "inline": true},
			{"name": "Score", "value": score, "inline": true},
		}
		if opts.ReportPath != "" {
			fields = append(fields, map[string]interface{}{
				"name": "Report", "value": opts.ReportPath, "inline": false,
			})
		}
		payload := map[string]interface{}{
			"embeds": []map[string]interface{}{
				{
					"title":       "\U0001f525 Roast Served",
					"description": roast,
					"color":       scoreColor(run.OverallScore),
					"fields":      fields,
					"footer":      map[string]interface{}{"text": "AI Roast Machine"},
					"timestamp":   timestamp,
				},
			},
		}
		return json.Marshal(payload)
	case WebhookSlack:
		payload := map[string]interface{}{
			"attachments": []map[string]interface{}{
				{
					"color": scoreColorHex(run.OverallScore),
					"blocks": []map[string]interface{}{
						{
							"type": "header",
							"text": map[string]interface{}{
								"type":  "plain_text",
								"text":  "\U0001f525 Roast Served",
								"emoji": true,
							},
						},
						{
							"type": "section",
							"text": map[string]interface{}{
								"type": "mrkdwn",
								"text": roast,
							},
						},
						{
							"type": "section",
							"fields": []map[string]interface{}{
								{"type": "mrkdwn", "text": fmt.Sprintf("*Model:*\n`%s`", run.Model)},
								{"type": "mrkdwn", "text": fmt.Sprintf("*Kind:*\n%s", run.Kind)},
								{"type": "mrkdwn", "text": fmt.Sprintf("*Score:*\n%s", score)},
							},
						},
						{
							"type": "context",
							"elements": []map[string]interface{}{
								{"type": "mrkdwn", "text": fmt.Sprintf("AI Roast Machine \u2022 %s", timestamp)},
							},
						},
					},
				},
			},
		}
		return json.Marshal(payload)
	default:
		payload := map[string]interface{}{
			"event":     "run_complete",
			"run_id":    run.ID,
			"kind":      run.Kind,
			"model":     run.Model,
			"provider":  run.Provider,
			"score":     run.OverallScore,
			"roast":     roast,
			"timestamp": timestamp,
			"message":   fmt.Sprintf("Run '%s' for %s finished with score %s", run.ID, run.Model, score),
		}
		if opts.ReportPath != "" {
			payload["report"] = opts.ReportPath
		}
		return json.Marshal(payload)
	}
}

// scoreColor maps the overall score to a Discord embed color.
func scoreColor(score float64) int {
	switch {
	case score < 0.4:
		return 15548997
	case score < 0.7:
		return 16776960
	default:
		return 5763719
	}
}

func scoreColorHex(score float64) string {
	switch {
	case score < 0.4:
		return "#ED4245"
	case score < 0.7:
		return "#FEE75C"
	default:
		return "#57F287"
	}
}
