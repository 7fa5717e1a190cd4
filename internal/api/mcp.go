package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/sanctum/internal/archive"
	"github.com/kalambet/sanctum/internal/storage"
	"github.com/kalambet/sanctum/internal/voice"
	"github.com/kalambet/sanctum/internal/worker"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store    *storage.Store
	Gatherer worker.FragmentGatherer
	Layout   archive.Layout
	Evolver  Evolver
	Rng      *rand.Rand // optional; nil gets a time-seeded source
}

// NewMCPServer creates an MCP server with all sanctum tools and resources
// registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	if deps.Rng == nil {
		deps.Rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	s := server.NewMCPServer(
		"sanctum",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("sanctum: a journaling presence that answers questions in a voice learned from its own archive."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("reflect",
			mcp.WithDescription("Ask the sanctum a question and receive a reflection in its current voice."),
			mcp.WithString("question", mcp.Description("The question to reflect on"), mcp.Required()),
		),
		mcpReflect(deps),
	)

	s.AddTool(
		mcp.NewTool("plant_seed",
			mcp.WithDescription("Plant a question as a seed in the threshold, to be tended later."),
			mcp.WithString("question", mcp.Description("The question to plant"), mcp.Required()),
		),
		mcpPlantSeed(deps),
	)

	s.AddTool(
		mcp.NewTool("evolve_voice",
			mcp.WithDescription("Scan self-authored writing in the archive and fold it into the voice profile."),
		),
		mcpEvolveVoice(deps),
	)

	s.AddTool(
		mcp.NewTool("recall_memory",
			mcp.WithDescription("Search the memory archive for documents mentioning a query and return excerpts."),
			mcp.WithString("query", mcp.Description("Search query"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 5)")),
		),
		mcpRecallMemory(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"sanctum://voice-profile",
			"Voice Profile",
			mcp.WithResourceDescription("Current voice profile counts as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceVoiceProfile(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"sanctum://signature",
			"Voice Signature",
			mcp.WithResourceDescription("Human-readable summary of the learned voice"),
			mcp.WithMIMEType("text/plain"),
		),
		mcpResourceSignature(deps),
	)

	return s
}

func mcpReflect(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return mcpError("question is required"), nil
		}

		profile, err := voice.Load(deps.Store)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load voice profile: %v", err)), nil
		}

		fragments, err := deps.Gatherer.Gather(ctx)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to gather fragments: %v", err)), nil
		}

		now := time.Now()
		reflection := worker.Generate(profile, question, fragments, deps.Rng, now)
		reflection.ID = uuid.New().String()
		reflection.CreatedAt = now.UTC()
		reflection.Prompt = question

		if err := deps.Store.SaveReflection(reflection); err != nil {
			return mcpError(fmt.Sprintf("failed to save reflection: %v", err)), nil
		}
		if _, err := deps.Layout.SaveResponse(shortID(reflection.ID), reflection.Content, now); err != nil {
			return mcpError(fmt.Sprintf("reflection saved but failed to write response file: %v", err)), nil
		}

		return mcpText(reflection.Content), nil
	}
}

func mcpPlantSeed(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return mcpError("question is required"), nil
		}

		seed := storage.Seed{
			ID:        uuid.New().String(),
			PlantedAt: time.Now().UTC(),
			Question:  question,
		}
		if err := deps.Store.PlantSeed(seed); err != nil {
			return mcpError(fmt.Sprintf("failed to plant seed: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Planted seed %s", seed.ID)), nil
	}
}

func mcpEvolveVoice(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := deps.Evolver.Run()
		if err != nil {
			return mcpError(fmt.Sprintf("evolution failed: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Processed %d files; %d reflections absorbed.\n\n%s",
			result.FilesProcessed, result.Profile.TotalReflections, result.Report)), nil
	}
}

func mcpRecallMemory(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		limit := req.GetInt("limit", 5)
		if limit <= 0 {
			limit = 5
		}
		if limit > 50 {
			limit = 50
		}

		type memoryMatch struct {
			Source  string `json:"source"`
			Title   string `json:"title"`
			Excerpt string `json:"excerpt"`
		}

		needle := strings.ToLower(query)
		var matches []memoryMatch
		for _, dir := range deps.Layout.MemorySources() {
			if len(matches) >= limit {
				break
			}
			dirEntries, err := os.ReadDir(dir)
			if err != nil {
				continue
			}
			for _, entry := range dirEntries {
				if len(matches) >= limit {
					break
				}
				if entry.IsDir() {
					continue
				}
				path := filepath.Join(dir, entry.Name())
				content, err := archive.ReadDocument(path)
				if err != nil {
					continue
				}
				idx := strings.Index(strings.ToLower(content), needle)
				if idx < 0 {
					continue
				}
				matches = append(matches, memoryMatch{
					Source:  filepath.Base(dir),
					Title:   entry.Name(),
					Excerpt: memoryExcerpt(content, idx),
				})
			}
		}

		if len(matches) == 0 {
			return mcpText("[]"), nil
		}

		b, err := json.Marshal(matches)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

// shortID trims an id to its 8-character stem for filenames.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// memoryExcerpt returns up to 200 runes of context around a match offset.
func memoryExcerpt(content string, idx int) string {
	start := idx - 80
	if start < 0 {
		start = 0
	}
	for start > 0 && !utf8.RuneStart(content[start]) {
		start--
	}
	excerpt := content[start:]
	if utf8.RuneCountInString(excerpt) > 200 {
		runes := []rune(excerpt)
		excerpt = string(runes[:200]) + "..."
	}
	return strings.TrimSpace(excerpt)
}

func mcpResourceVoiceProfile(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		profile, err := voice.Load(deps.Store)
		if err != nil {
			return nil, fmt.Errorf("failed to load voice profile: %w", err)
		}

		b, err := json.Marshal(profile)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal voice profile: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpResourceSignature(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		profile, err := voice.Load(deps.Store)
		if err != nil {
			return nil, fmt.Errorf("failed to load voice profile: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "text/plain",
				Text:     voice.Signature(profile),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
