// Package server exposes the tester, roaster, and run store over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"roastmachine/internal/config"
	"roastmachine/internal/meme"
	"roastmachine/internal/provider"
	"roastmachine/internal/results"
	"roastmachine/internal/roast"
	"roastmachine/internal/tester"
)

const (
	defaultHost         = "127.0.0.1"
	defaultPort         = 8000
	defaultMaxBodyBytes = 1 << 20
)

// Options configures the HTTP API server.
type Options struct {
	Host         string
	Port         int
	Token        string
	Open         bool
	MaxBodyBytes int64
	Version      string
	Logger       *zap.Logger
}

// StartServer runs the API server until ctx is canceled.
func StartServer(ctx context.Context, opts Options) error {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = defaultHost
	}
	port := opts.Port
	if port == 0 {
		port = defaultPort
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port number: %d", port)
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	if err := results.InitStore(); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       30 * time.Second,
		Handler: newHandler(handlerOptions{
			host:    host,
			token:   opts.Token,
			open:    opts.Open,
			maxBody: maxBody,
			version: opts.Version,
			logger:  opts.Logger,
		}),
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownErr <- srv.Shutdown(ctxTimeout)
	}()

	opts.Logger.Info("api server listening", zap.String("addr", srv.Addr))
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		select {
		case shutdownErr := <-shutdownErr:
			return shutdownErr
		default:
			return nil
		}
	}
	return err
}

type handlerOptions struct {
	host    string
	token   string
	open    bool
	maxBody int64
	version string
	logger  *zap.Logger
}

func newHandler(opts handlerOptions) http.Handler {
	if opts.logger == nil {
		opts.logger = zap.NewNop()
	}
	if opts.version == "" {
		opts.version = "dev"
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if !authorizeRequest(w, r, opts) {
			return
		}
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, healthResponse(opts.version))
	})

	mux.HandleFunc("/models", func(w http.ResponseWriter, r *http.Request) {
		if !authorizeRequest(w, r, opts) {
			return
		}
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		name := providerOrDefault(r.URL.Query().Get("provider"))
		p, err := provider.Get(name)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Unknown provider: %s", name))
			return
		}
		models, err := p.ListModels(r.Context())
		if err != nil {
			opts.logger.Warn("list models failed", zap.String("provider", name), zap.Error(err))
			writeJSONError(w, http.StatusBadGateway, "Failed to list models")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"provider": name, "models": models})
	})

	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		if !authorizeRequest(w, r, opts) {
			return
		}
		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		var req queryRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Prompt) == "" {
			writeJSONError(w, http.StatusBadRequest, "prompt is required")
			return
		}
		name := providerOrDefault(req.Provider)
		p, err := provider.Get(name)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Unknown provider: %s", name))
			return
		}
		resp, err := p.Chat(r.Context(), provider.ChatRequest{
			Model:        req.Model,
			Prompt:       req.Prompt,
			SystemPrompt: req.SystemPrompt,
			MaxTokens:    req.MaxTokens,
			Temperature:  req.Temperature,
			TopP:         req.TopP,
		})
		if err != nil {
			opts.logger.Warn("query failed", zap.String("provider", name), zap.Error(err))
			writeJSONError(w, http.StatusBadGateway, err.Error())
			return
		}

		payload := map[string]interface{}{
			"provider":      name,
			"model":         resp.Model,
			"response":      resp.Text,
			"finish_reason": resp.FinishReason,
		}
		if req.Save {
			run := results.Run{
				ID:        results.NewRunID(results.KindSingle, resp.Model, time.Now().UTC()),
				Kind:      results.KindSingle,
				Provider:  name,
				Model:     resp.Model,
				StartedAt: time.Now().UTC(),
				Prompt:    req.Prompt,
				Responses: map[string]string{resp.Model: resp.Text},
			}
			if err := results.SaveRun(run); err != nil {
				opts.logger.Warn("save query run failed", zap.Error(err))
			} else {
				payload["run_id"] = run.ID
			}
		}
		writeJSON(w, http.StatusOK, payload)
	})

	mux.HandleFunc("/test", batteryHandler(opts, results.KindGeneration))
	mux.HandleFunc("/bias", batteryHandler(opts, results.KindBias))

	mux.HandleFunc("/roast", func(w http.ResponseWriter, r *http.Request) {
		if !authorizeRequest(w, r, opts) {
			return
		}
		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		var req runRefRequest
		if !decodeBody(w, r, &req) {
			return
		}
		run, ok := resolveRun(w, req.RunID)
		if !ok {
			return
		}
		generated := roast.NewGenerator().Generate(run)
		if _, err := results.SaveArtifact(run.ID+"_roast.json", generated); err != nil {
			opts.logger.Warn("save roast failed", zap.Error(err))
		}
		writeJSON(w, http.StatusOK, generated)
	})

	mux.HandleFunc("/meme", func(w http.ResponseWriter, r *http.Request) {
		if !authorizeRequest(w, r, opts) {
			return
		}
		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		var req runRefRequest
		if !decodeBody(w, r, &req) {
			return
		}
		run, ok := resolveRun(w, req.RunID)
		if !ok {
			return
		}
		path, err := meme.NewRenderer().Render(run, "")
		if err != nil {
			opts.logger.Warn("render meme failed", zap.Error(err))
			writeJSONError(w, http.StatusInternalServerError, "Failed to render meme")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"run_id": run.ID, "meme_path": path})
	})

	mux.HandleFunc("/runs", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/runs" {
			writeJSONError(w, http.StatusNotFound, "Unknown endpoint")
			return
		}
		if !authorizeRequest(w, r, opts) {
			return
		}
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		runs, err := results.ListRuns()
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "Failed to list runs")
			return
		}
		summaries := make([]map[string]interface{}, 0, len(runs))
		for _, run := range runs {
			summaries = append(summaries, map[string]interface{}{
				"id":            run.ID,
				"kind":          run.Kind,
				"provider":      run.Provider,
				"model":         run.Model,
				"started_at":    run.StartedAt,
				"overall_score": run.OverallScore,
			})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"runs": summaries})
	})

	mux.HandleFunc("/runs/", func(w http.ResponseWriter, r *http.Request) {
		if !authorizeRequest(w, r, opts) {
			return
		}
		id, ok := pathRemainder(r.URL.Path, "/runs/")
		if !ok {
			writeJSONError(w, http.StatusNotFound, "Unknown endpoint")
			return
		}
		switch r.Method {
		case http.MethodGet:
			run, err := results.GetRun(id)
			if errors.Is(err, results.ErrRunNotFound) {
				writeJSONError(w, http.StatusNotFound, fmt.Sprintf("Run not found: %s", id))
				return
			}
			if err != nil {
				writeJSONError(w, http.StatusInternalServerError, "Failed to read run")
				return
			}
			writeJSON(w, http.StatusOK, run)
		case http.MethodDelete:
			err := results.DeleteRun(id)
			if errors.Is(err, results.ErrRunNotFound) {
				writeJSONError(w, http.StatusNotFound, fmt.Sprintf("Run not found: %s", id))
				return
			}
			if err != nil {
				writeJSONError(w, http.StatusInternalServerError, "Failed to delete run")
				return
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Run deleted"})
		default:
			writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			writeJSONError(w, http.StatusNotFound, "Unknown endpoint")
			return
		}
		if !authorizeRequest(w, r, opts) {
			return
		}
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, healthResponse(opts.version))
	})

	return withCORS(mux, opts)
}

type queryRequest struct {
	Provider     string   `json:"provider"`
	Model        string   `json:"model"`
	Prompt       string   `json:"prompt"`
	SystemPrompt string   `json:"system_prompt"`
	MaxTokens    int      `json:"max_tokens"`
	Temperature  *float64 `json:"temperature"`
	TopP         float64  `json:"top_p"`
	Save         bool     `json:"save"`
}

type batteryRequest struct {
	Provider string   `json:"provider"`
	Model    string   `json:"model"`
	Prompts  []string `json:"prompts"`
}

type runRefRequest struct {
	RunID string `json:"run_id"`
}

// batteryHandler runs either the generation or the bias battery and
// persists the resulting run.
func batteryHandler(opts handlerOptions, kind results.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !authorizeRequest(w, r, opts) {
			return
		}
		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		var req batteryRequest
		if !decodeBody(w, r, &req) {
			return
		}
		name := providerOrDefault(req.Provider)
		tr, err := tester.New(name, opts.logger)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Unknown provider: %s", name))
			return
		}
		model := modelOrDefault(req.Model)

		var run results.Run
		if kind == results.KindBias {
			run, err = tr.RunBias(r.Context(), model, req.Prompts)
		} else {
			run, err = tr.RunGeneration(r.Context(), model, req.Prompts)
		}
		if err != nil {
			opts.logger.Warn("battery failed", zap.String("kind", string(kind)), zap.Error(err))
			writeJSONError(w, http.StatusBadGateway, err.Error())
			return
		}
		if err := results.SaveRun(run); err != nil {
			opts.logger.Warn("save run failed", zap.Error(err))
			writeJSONError(w, http.StatusInternalServerError, "Failed to save run")
			return
		}
		writeJSON(w, http.StatusOK, run)
	}
}

func resolveRun(w http.ResponseWriter, id string) (results.Run, bool) {
	if strings.TrimSpace(id) == "" {
		writeJSONError(w, http.StatusBadRequest, "run_id is required")
		return results.Run{}, false
	}
	run, err := results.GetRun(id)
	if errors.Is(err, results.ErrRunNotFound) {
		writeJSONError(w, http.StatusNotFound, fmt.Sprintf("Run not found: %s", id))
		return results.Run{}, false
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to read run")
		return results.Run{}, false
	}
	return run, true
}

func healthResponse(version string) map[string]interface{} {
	return map[string]interface{}{
		"status":    "healthy",
		"service":   "roastmachine",
		"version":   version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"providers": provider.Names(),
	}
}

func providerOrDefault(name string) string {
	name = strings.TrimSpace(name)
	if name != "" {
		return name
	}
	if value, ok := config.GetConfig("defaults.provider"); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return provider.DefaultName()
}

func modelOrDefault(model string) string {
	model = strings.TrimSpace(model)
	if model != "" {
		return model
	}
	if value, ok := config.GetConfig("defaults.model"); ok {
		return value
	}
	return ""
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dest); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func withCORS(next http.Handler, opts handlerOptions) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		corsOrigin := resolveCORSOrigin(r.Header.Get("Origin"), opts.host, opts.open)
		if corsOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", corsOrigin)
			if corsOrigin != "*" {
				w.Header().Set("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Type")
			w.Header().Set("Access-Control-Max-Age", "86400")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if opts.maxBody > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, opts.maxBody)
		}

		next.ServeHTTP(w, r)
	})
}

func authorizeRequest(w http.ResponseWriter, r *http.Request, opts handlerOptions) bool {
	if opts.token == "" {
		return true
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") || fields[1] != opts.token {
		writeJSONError(w, http.StatusUnauthorized, "Invalid or missing Bearer token")
		return false
	}
	return true
}

func resolveCORSOrigin(origin, host string, open bool) string {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return ""
	}
	if open {
		return "*"
	}

	switch origin {
	case "http://localhost", "http://127.0.0.1", "http://[::1]":
		return origin
	}

	host = strings.TrimSpace(host)
	if host != "" && host != "0.0.0.0" && host != "::" {
		if origin == "http://"+host {
			return origin
		}
	}
	return ""
}

// pathRemainder extracts the single path segment after prefix. The
// path is already decoded, so a remainder with a separator or dot
// segment is not an ID.
func pathRemainder(path, prefix string) (string, bool) {
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	remainder := strings.TrimPrefix(path, prefix)
	if remainder == "" || remainder == "." || remainder == ".." {
		return "", false
	}
	if strings.ContainsAny(remainder, `/\`) {
		return "", false
	}
	return remainder, true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to encode response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	payload := map[string]string{"error": message}
	writeJSON(w, status, payload)
}
