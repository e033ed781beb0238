// Package enrich derives search metadata (tags, categories, a short
// summary) from stored content using an LLM. Enrichment is best-effort: a
// failed or unparsable response degrades to empty metadata so the canonical
// record is never lost.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"filedepot/internal/logging"
)

// maxTextPromptBytes bounds how much extracted text is sent to the model.
const maxTextPromptBytes = 4000

const systemPrompt = `You are a document analysis AI. You derive search metadata from file content.
You MUST respond with a specific JSON object containing 'tags' (up to 5 short lowercase keywords), 'categories' (up to 3 broad topics), and 'summary' (one or two sentences describing the content).
Do NOT include any other text, explanations, or conversational remarks in your response.`

// Enrichment is the derived metadata attached to a record.
type Enrichment struct {
	Tags       []string `json:"tags"`
	Categories []string `json:"categories"`
	Summary    string   `json:"summary"`
}

// Enricher generates metadata for processed files.
type Enricher struct {
	llm    llms.Model
	logger logging.Logger
}

func NewEnricher(llm llms.Model, logger logging.Logger) *Enricher {
	return &Enricher{
		llm:    llm,
		logger: logger.With("module", "enrich"),
	}
}

// Enrich analyzes the buffered file at path. Only textual content is sent to
// the model; for binary media the prompt falls back to the file name and
// declared type. The returned error never prevents persisting the record:
// callers log it and store the (possibly empty) Enrichment.
func (e *Enricher) Enrich(ctx context.Context, path, filename, fileType string) (Enrichment, error) {
	var prompt string
	switch fileType {
	case "text", "code":
		text, err := readTextPrefix(path)
		if err != nil {
			return Enrichment{}, fmt.Errorf("reading content for enrichment: %w", err)
		}
		prompt = fmt.Sprintf("Generate metadata for this %s file named %q.\n\nContent:\n%s", fileType, filename, text)
	default:
		prompt = fmt.Sprintf("Generate metadata for a %s file named %q. Base tags and categories on the name and type only.", fileType, filename)
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	response, err := e.llm.GenerateContent(ctx, content, llms.WithJSONMode())
	if err != nil {
		return Enrichment{}, fmt.Errorf("enrichment model call: %w", err)
	}
	if len(response.Choices) == 0 {
		return Enrichment{}, fmt.Errorf("enrichment model returned no choices")
	}

	return e.parseResponse(ctx, response.Choices[0].Content)
}

// readTextPrefix returns at most maxTextPromptBytes of the file.
func readTextPrefix(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	b, err := io.ReadAll(io.LimitReader(f, maxTextPromptBytes))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// parseResponse maps the model's raw output to an Enrichment. Markdown code
// fences around the JSON are tolerated.
func (e *Enricher) parseResponse(ctx context.Context, raw string) (Enrichment, error) {
	sanitized := strings.TrimSpace(raw)
	sanitized = strings.TrimPrefix(sanitized, "```json")
	sanitized = strings.TrimPrefix(sanitized, "```")
	sanitized = strings.TrimSuffix(sanitized, "```")
	sanitized = strings.TrimSpace(sanitized)

	var parsed Enrichment
	if err := json.Unmarshal([]byte(sanitized), &parsed); err != nil {
		e.logger.Error(ctx, "enrichment response is not valid JSON", "response", sanitized, "error", err)
		return Enrichment{}, fmt.Errorf("parsing enrichment response: %w", err)
	}

	return parsed, nil
}
