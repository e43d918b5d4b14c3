package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/weststar/helimx/internal/config"
	"github.com/weststar/helimx/pkg/logger"
)

// Client sends prompts to the configured text backend.
//
// Two source types are supported: "prediction" posts the prompt to an opaque
// prediction endpoint ({"question": ...} in, {"text": ...} out), and "openai"
// uses the chat completions API directly.
type Client struct {
	sourceType  string
	workCardURL string
	advisorURL  string
	model       string
	httpClient  *http.Client
	openai      openai.Client
	logger      *logger.Logger
}

// predictionRequest is the wire format of the prediction endpoint
type predictionRequest struct {
	Question string `json:"question"`
}

// predictionResponse is the expected response shape. Some deployments return
// the payload as the whole body instead of a text field.
type predictionResponse struct {
	Text string `json:"text"`
}

// NewClient creates a text backend client from the generation configuration
func NewClient(cfg config.GenerationConfig, log *logger.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	c := &Client{
		sourceType:  cfg.SourceType,
		workCardURL: cfg.WorkCardURL,
		advisorURL:  cfg.AdvisorURL,
		model:       cfg.Model,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      log.Named("generation-client"),
	}

	if cfg.SourceType == "openai" {
		if cfg.OpenAIAPIKey == "" {
			c.logger.Warn("OpenAI API key is empty - generation requests will fail")
		}
		c.openai = openai.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey))
	}

	return c
}

// GenerateText sends a work card prompt to the backend and returns the raw
// generated text
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.query(ctx, c.workCardURL, prompt)
}

// Advise sends a free-text question to the advisor backend
func (c *Client) Advise(ctx context.Context, question string) (string, error) {
	return c.query(ctx, c.advisorURL, question)
}

func (c *Client) query(ctx context.Context, url, prompt string) (string, error) {
	switch c.sourceType {
	case "prediction":
		return c.predict(ctx, url, prompt)
	case "openai":
		return c.chatCompletion(ctx, prompt)
	}
	return "", fmt.Errorf("unknown generation source type: %s", c.sourceType)
}

// predict posts the prompt to the prediction endpoint
func (c *Client) predict(ctx context.Context, url, prompt string) (string, error) {
	payload, err := json.Marshal(predictionRequest{Question: prompt})
	if err != nil {
		return "", fmt.Errorf("failed to marshal prediction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Sending prediction request",
		logger.String("url", url),
		logger.Int("prompt_bytes", len(prompt)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	var result predictionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse prediction response: %w", err)
	}
	if result.Text != "" {
		return result.Text, nil
	}

	// Some flows return the payload as the whole body
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "", fmt.Errorf("prediction response contained no text")
	}
	return text, nil
}

// chatCompletion sends the prompt through the OpenAI chat completions API
func (c *Client) chatCompletion(ctx context.Context, prompt string) (string, error) {
	resp, err := c.openai.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are an experienced helicopter maintenance engineer preparing maintenance documentation."),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
