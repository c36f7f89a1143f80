package genai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/planhub-io/planhub/internal/config"
	"github.com/planhub-io/planhub/internal/pkg/apperr"
)

// Client is the HTTP client for the Gemini generateContent API. One request
// per chat turn; the full session history is replayed on every call.
type Client struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *zap.Logger

	apiKey string
}

func NewClient(cfg *config.Config, log *zap.Logger) *Client {
	timeout := time.Duration(cfg.GenAI.TimeoutS) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL:    strings.TrimRight(cfg.GenAI.BaseURL, "/"),
		Model:      cfg.GenAI.Model,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     log,
		apiKey:     cfg.GenAI.APIKey,
	}
}

// Turn is one prior message in the conversation, oldest first.
type Turn struct {
	Role string // "user" or "model"
	Text string
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMIMEType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate replays history into one generateContent call and returns the
// assistant text. Any non-200 or empty candidate is an upstream failure.
func (c *Client) Generate(ctx context.Context, system string, history []Turn) (string, error) {
	req := generateRequest{
		Contents: make([]content, 0, len(history)),
	}
	if system != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}
	for _, t := range history {
		req.Contents = append(req.Contents, content{
			Role:  t.Role,
			Parts: []part{{Text: t.Text}},
		})
	}
	return c.send(ctx, req)
}

// GenerateJSON sends a single prompt in structured-output mode and returns
// the raw JSON candidate text, constrained to the given response schema.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, schema map[string]any) (string, error) {
	req := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   schema,
		},
	}
	return c.send(ctx, req)
}

func (c *Client) send(ctx context.Context, req generateRequest) (string, error) {
	raw, err := sonic.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.BaseURL, c.Model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(raw)))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("do request: %w: %w", apperr.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.Logger.Error("generateContent request failed",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return "", fmt.Errorf("generation failed with status %d: %w", resp.StatusCode, apperr.ErrUpstream)
	}

	var out generateResponse
	if err := sonic.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty generation response: %w", apperr.ErrUpstream)
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
