// Package api exposes the sanctum over two local surfaces: a bearer-authed
// HTTP API for the CLI and an MCP server for model clients.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kalambet/sanctum/internal/storage"
	"github.com/kalambet/sanctum/internal/voice"
)

const maxPromptBodySize = 1 << 20 // 1MB

// Evolver abstracts the voice evolution pass for the API layer.
type Evolver interface {
	Run() (voice.Result, error)
}

// AppDeps holds dependencies for the HTTP handler.
type AppDeps struct {
	Store   *storage.Store
	Evolver Evolver
	Token   string
}

// NewAppHandler builds the HTTP surface: a public health check plus
// authenticated prompt, reflection, profile and seed routes.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/prompts", handleEnqueuePrompt(deps))
		r.Get("/reflections", handleListReflections(deps))
		r.Get("/reflections/{id}", handleGetReflection(deps))
		r.Get("/profile", handleGetProfile(deps))
		r.Get("/signature", handleGetSignature(deps))
		r.Post("/evolve", handleEvolve(deps))
		r.Get("/seeds", handleListSeeds(deps))
		r.Post("/seeds", handlePlantSeed(deps))
	})

	return r
}

type promptRequest struct {
	Question string `json:"question"`
}

func handleEnqueuePrompt(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxPromptBodySize)
		defer r.Body.Close()

		var req promptRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Question == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "question is required")
			return
		}

		prompt := storage.Prompt{
			ID:        uuid.New().String(),
			Question:  req.Question,
			CreatedAt: time.Now().UTC(),
		}
		if err := deps.Store.EnqueuePrompt(prompt); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "queueing prompt: %v", err)
			return
		}

		writeJSON(w, http.StatusAccepted, map[string]string{"id": prompt.ID})
	}
}

func handleListReflections(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := queryInt(r, "limit", 20)
		reflections, err := deps.Store.ListReflections(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing reflections: %v", err)
			return
		}

		type reflectionResponse struct {
			ID        string  `json:"id"`
			CreatedAt string  `json:"created_at"`
			Prompt    string  `json:"prompt"`
			Essence   string  `json:"essence"`
			Resonance float64 `json:"resonance"`
			Mode      string  `json:"mode"`
			Content   string  `json:"content"`
		}
		out := make([]reflectionResponse, len(reflections))
		for i, ref := range reflections {
			out[i] = reflectionResponse{
				ID:        ref.ID,
				CreatedAt: ref.CreatedAt.Format(time.RFC3339),
				Prompt:    ref.Prompt,
				Essence:   ref.Essence,
				Resonance: ref.Resonance,
				Mode:      ref.Mode,
				Content:   ref.Content,
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleGetReflection(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		ref, err := deps.Store.GetReflection(id)
		if err == storage.ErrNotFound {
			httpError(w, http.StatusNotFound, "not_found_error", "reflection %s not found", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading reflection: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id":         ref.ID,
			"created_at": ref.CreatedAt.Format(time.RFC3339),
			"prompt":     ref.Prompt,
			"essence":    ref.Essence,
			"resonance":  ref.Resonance,
			"mode":       ref.Mode,
			"content":    ref.Content,
		})
	}
}

func handleGetProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := voice.Load(deps.Store)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading profile: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

func handleGetSignature(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := voice.Load(deps.Store)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading profile: %v", err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, voice.Signature(profile))
	}
}

func handleEvolve(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := deps.Evolver.Run()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "evolving voice: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"files_processed":   result.FilesProcessed,
			"total_reflections": result.Profile.TotalReflections,
		})
	}
}

func handleListSeeds(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := queryInt(r, "limit", 20)
		seeds, err := deps.Store.ListSeeds(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing seeds: %v", err)
			return
		}

		type seedResponse struct {
			ID         string `json:"id"`
			PlantedAt  string `json:"planted_at"`
			Question   string `json:"question"`
			Reflection string `json:"reflection,omitempty"`
			TendedAt   string `json:"tended_at,omitempty"`
		}
		out := make([]seedResponse, len(seeds))
		for i, seed := range seeds {
			out[i] = seedResponse{
				ID:        seed.ID,
				PlantedAt: seed.PlantedAt.Format(time.RFC3339),
				Question:  seed.Question,
			}
			if !seed.TendedAt.IsZero() {
				out[i].Reflection = seed.Reflection
				out[i].TendedAt = seed.TendedAt.Format(time.RFC3339)
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type seedRequest struct {
	Question string `json:"question"`
}

func handlePlantSeed(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxPromptBodySize)
		defer r.Body.Close()

		var req seedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Question == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "question is required")
			return
		}

		seed := storage.Seed{
			ID:        uuid.New().String(),
			PlantedAt: time.Now().UTC(),
			Question:  req.Question,
		}
		if err := deps.Store.PlantSeed(seed); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "planting seed: %v", err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": seed.ID})
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, errType, format string, args ...any) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"type":    errType,
			"message": fmt.Sprintf(format, args...),
		},
	})
}
