package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/replyloop-backend/internal/pkg/httpx"
	"github.com/yungbote/replyloop-backend/internal/pkg/logger"
)

// ScoreRequest is the judgment context for one candidate post.
type ScoreRequest struct {
	Text           string
	AuthorHandle   string
	PostedAt       time.Time
	LikeCount      int
	RepostCount    int
	ReplyCount     int
	IsReply        bool
	TopicKeywords  []string
	HeuristicScore float64
}

// DraftRequest is the generation context for one reply draft.
type DraftRequest struct {
	OriginalText    string
	AuthorHandle    string
	LikeCount       int
	RepostCount     int
	ReplyCount      int
	Tone            string
	StyleSamples    []string
	SignatureTopics string
	MaxLength       int
}

type ReplyDraft struct {
	Text       string
	Confidence float64
}

// Client is the judgment/generation service consumed by the filter and the
// reply generator. Both methods fail with *ServiceError; callers substitute
// a neutral fallback or skip the item instead of propagating.
type Client interface {
	ScoreCandidate(ctx context.Context, req ScoreRequest) (float64, error)
	DraftReply(ctx context.Context, req DraftRequest) (ReplyDraft, error)
}

// ServiceError wraps any judgment/generation failure.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string { return fmt.Sprintf("openai %s: %v", e.Op, e.Err) }
func (e *ServiceError) Unwrap() error { return e.Err }

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client

	maxRetries int
}

func NewClient(log *logger.Logger) (Client, error) {
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}

	baseURL := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	model := strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if model == "" {
		model = "gpt-5.2"
	}

	timeoutSec := 60
	if v := os.Getenv("OPENAI_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	maxRetries := 2
	if v := os.Getenv("OPENAI_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	return &client{
		log:        log.With("service", "OpenAIClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: maxRetries,
	}, nil
}

type openAIHTTPError struct {
	StatusCode int
	Body       string
}

func (e *openAIHTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func (e *openAIHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &openAIHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("openai decode error: %w; raw=%s", uErr, string(raw))
			}
			return nil
		}

		if !httpx.IsRetryableError(err) {
			return err
		}
		if attempt == c.maxRetries {
			return err
		}

		sleepFor := httpx.RetryAfterDuration(resp, backoff, 10*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)

		c.log.Warn("OpenAI request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
		backoff *= 2
	}

	return fmt.Errorf("unreachable retry loop")
}

// -------------------- Responses API --------------------

type responsesRequest struct {
	Model string `json:"model"`

	Input []struct {
		Role    string `json:"role"`
		Content any    `json:"content"`
	} `json:"input"`

	Text struct {
		Format map[string]any `json:"format,omitempty"`
	} `json:"text,omitempty"`

	Temperature float64 `json:"temperature,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Refusal string `json:"refusal,omitempty"`
}

func extractOutputText(resp responsesResponse) string {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type == "message" && item.Role == "assistant" {
			for _, c := range item.Content {
				if c.Type == "output_text" && c.Text != "" {
					out.WriteString(c.Text)
				}
			}
		}
	}
	return out.String()
}

func (c *client) generateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error) {
	req := responsesRequest{
		Model: c.model,
		Input: []struct {
			Role    string `json:"role"`
			Content any    `json:"content"`
		}{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.2,
	}
	req.Text.Format = map[string]any{
		"type":   "json_schema",
		"name":   schemaName,
		"schema": schema,
		"strict": true,
	}

	var resp responsesResponse
	if err := c.do(ctx, "POST", "/v1/responses", req, &resp); err != nil {
		return nil, err
	}
	if resp.Refusal != "" {
		return nil, fmt.Errorf("model refused: %s", resp.Refusal)
	}

	jsonText := extractOutputText(resp)
	if strings.TrimSpace(jsonText) == "" {
		return nil, fmt.Errorf("no output_text found in response")
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(jsonText), &obj); err != nil {
		return nil, fmt.Errorf("failed to parse model JSON: %w; text=%s", err, jsonText)
	}
	return obj, nil
}

// -------------------- Scoring --------------------

var scoreSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"score": map[string]any{
			"type":    "number",
			"minimum": 0,
			"maximum": 1,
		},
	},
	"required":             []string{"score"},
	"additionalProperties": false,
}

func (c *client) ScoreCandidate(ctx context.Context, req ScoreRequest) (float64, error) {
	system := strings.Join([]string{
		"ROLE: Reply-worthiness judge for a social monitoring tool.",
		"TASK: Score how promising it is to reply to the given post, 0.0 to 1.0.",
		"Favor fresh original posts with moderate engagement that invite conversation.",
		"Penalize spam, promotion, and posts so popular a reply would be buried.",
		"OUTPUT: JSON matching the schema, nothing else.",
	}, "\n")

	kind := "original post"
	if req.IsReply {
		kind = "reply"
	}
	user := fmt.Sprintf(
		"Post (%s) by @%s at %s:\n%s\n\nEngagement: %d likes, %d reposts, %d replies.\nMonitored keywords: %s\nHeuristic prior: %.2f",
		kind,
		req.AuthorHandle,
		req.PostedAt.Format(time.RFC3339),
		req.Text,
		req.LikeCount,
		req.RepostCount,
		req.ReplyCount,
		strings.Join(req.TopicKeywords, ", "),
		req.HeuristicScore,
	)

	obj, err := c.generateJSON(ctx, system, user, "reply_worthiness", scoreSchema)
	if err != nil {
		return 0, &ServiceError{Op: "score", Err: err}
	}
	score, ok := obj["score"].(float64)
	if !ok {
		return 0, &ServiceError{Op: "score", Err: errors.New("response missing numeric score")}
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, nil
}

// -------------------- Drafting --------------------

var draftSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"reply": map[string]any{
			"type": "string",
		},
		"confidence": map[string]any{
			"type":    "number",
			"minimum": 0,
			"maximum": 1,
		},
	},
	"required":             []string{"reply", "confidence"},
	"additionalProperties": false,
}

func (c *client) DraftReply(ctx context.Context, req DraftRequest) (ReplyDraft, error) {
	maxLen := req.MaxLength
	if maxLen <= 0 {
		maxLen = 280
	}

	system := strings.Join([]string{
		"ROLE: Ghostwriter drafting a reply on behalf of a social media user.",
		fmt.Sprintf("TONE: %s.", strings.TrimSpace(req.Tone)),
		fmt.Sprintf("HARD LIMIT: at most %d characters. No hashtags unless the user's samples use them.", maxLen),
		"Match the voice of the style samples. Add something substantive; never just agree.",
		"Also report your confidence that this reply fits the user's voice, 0.0 to 1.0.",
		"OUTPUT: JSON matching the schema, nothing else.",
	}, "\n")

	var sb strings.Builder
	fmt.Fprintf(&sb, "Original post by @%s (%d likes, %d reposts, %d replies):\n%s\n",
		req.AuthorHandle, req.LikeCount, req.RepostCount, req.ReplyCount, req.OriginalText)
	if strings.TrimSpace(req.SignatureTopics) != "" {
		fmt.Fprintf(&sb, "\nThe user usually talks about: %s\n", req.SignatureTopics)
	}
	if len(req.StyleSamples) > 0 {
		sb.WriteString("\nStyle samples written by the user:\n")
		for i, s := range req.StyleSamples {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, s)
		}
	}

	obj, err := c.generateJSON(ctx, system, sb.String(), "reply_draft", draftSchema)
	if err != nil {
		return ReplyDraft{}, &ServiceError{Op: "draft", Err: err}
	}

	text, _ := obj["reply"].(string)
	confidence, _ := obj["confidence"].(float64)
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return ReplyDraft{Text: strings.TrimSpace(text), Confidence: confidence}, nil
}
