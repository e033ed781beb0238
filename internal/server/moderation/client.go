// Package moderation screens uploaded content through an LLM-backed
// classification oracle and maps its raw response to a safe/unsafe/error
// verdict.
package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/tmc/langchaingo/llms"

	"filedepot/internal/logging"
	"filedepot/internal/server/classify"
)

// maxTextPromptBytes bounds how much extracted text is sent to the oracle.
const maxTextPromptBytes = 3000

const systemPrompt = `You are a content moderation AI. Your sole purpose is to detect and flag any content that is sexually explicit, hateful, violent, illegal, or otherwise harmful.
You MUST respond with a specific JSON object containing a 'security_status' and a 'rejection_reason'.
If the content is safe, set 'security_status' to 'safe' and 'rejection_reason' to null.
If the content is unsafe, set 'security_status' to 'unsafe' and provide a clear, concise 'rejection_reason'.
Do NOT include any other text, explanations, or conversational remarks in your response.`

// Client evaluates file content against the moderation oracle.
type Client struct {
	llm    llms.Model
	logger logging.Logger
}

func NewClient(llm llms.Model, logger logging.Logger) *Client {
	return &Client{
		llm:    llm,
		logger: logger.With("module", "moderation"),
	}
}

// Evaluate screens the buffered file at path and returns a Verdict. LLM and
// parsing failures are reported as StatusError verdicts, not Go errors; the
// error return is reserved for local file access problems.
func (c *Client) Evaluate(ctx context.Context, path, filename string, kind classify.Kind) (Verdict, error) {
	// No moderation model exists for moving media yet, so these types pass
	// unconditionally. This is a named policy bypass, not a silent gap:
	// replace this branch once a video/audio analyzer is wired in.
	if kind == classify.KindVideo || kind == classify.KindAudio {
		c.logger.Info(ctx, "moderation bypass for unanalyzable media",
			"file", filename, "type", string(kind))
		return Verdict{Status: StatusSafe}, nil
	}

	c.logger.Info(ctx, "running security check", "file", filename, "type", string(kind))

	var content []llms.MessageContent
	if kind == classify.KindImage {
		imageBytes, err := os.ReadFile(path)
		if err != nil {
			return Verdict{}, fmt.Errorf("reading image for moderation: %w", err)
		}
		mime := mimetype.Detect(imageBytes).String()
		content = []llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
			llms.TextParts(llms.ChatMessageTypeHuman, "Analyze the provided image for explicit or harmful content."),
			{
				Role:  llms.ChatMessageTypeHuman,
				Parts: []llms.ContentPart{llms.BinaryPart(mime, imageBytes)},
			},
		}
	} else {
		text, err := readTextPrefix(path)
		if err != nil {
			return Verdict{}, fmt.Errorf("reading content for moderation: %w", err)
		}
		prompt := fmt.Sprintf("Analyze this %s document for explicit or harmful content.\n\nContent:\n%s", kind, text)
		content = []llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
			llms.TextParts(llms.ChatMessageTypeHuman, prompt),
		}
	}

	response, err := c.llm.GenerateContent(ctx, content, llms.WithJSONMode())
	if err != nil {
		c.logger.Error(ctx, "moderation oracle call failed", "file", filename, "error", err)
		return Verdict{Status: StatusError, Reason: "An internal error occurred during the security check."}, nil
	}
	if len(response.Choices) == 0 {
		c.logger.Error(ctx, "moderation oracle returned no choices", "file", filename)
		return Verdict{Status: StatusError, Reason: "An internal error occurred during the security check."}, nil
	}

	return c.parseResponse(ctx, response.Choices[0].Content), nil
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

type oracleResponse struct {
	SecurityStatus  string `json:"security_status"`
	RejectionReason string `json:"rejection_reason"`
}

// parseResponse maps the oracle's raw output to a Verdict. Anything that is
// not clean JSON with a safe/unsafe status becomes StatusError.
func (c *Client) parseResponse(ctx context.Context, raw string) Verdict {
	sanitized := strings.TrimSpace(raw)
	sanitized = strings.TrimPrefix(sanitized, "```json")
	sanitized = strings.TrimPrefix(sanitized, "```")
	sanitized = strings.TrimSuffix(sanitized, "```")
	sanitized = strings.TrimSpace(sanitized)

	var parsed oracleResponse
	if err := json.Unmarshal([]byte(sanitized), &parsed); err != nil {
		c.logger.Error(ctx, "moderation response is not valid JSON", "response", sanitized, "error", err)
		return Verdict{Status: StatusError, Reason: "Moderation response is not valid JSON."}
	}

	switch Status(parsed.SecurityStatus) {
	case StatusSafe:
		return Verdict{Status: StatusSafe}
	case StatusUnsafe:
		return Verdict{Status: StatusUnsafe, Reason: parsed.RejectionReason}
	default:
		c.logger.Warn(ctx, "moderation oracle returned unexpected status", "status", parsed.SecurityStatus)
		return Verdict{Status: StatusError, Reason: "Moderation oracle returned an unexpected status."}
	}
}
