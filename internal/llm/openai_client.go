// ABOUTME: OpenAI chat completion client for persona replies, greetings and summaries
// ABOUTME: One round trip per request; failures are classified, never retried
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/confidant/internal/models"
)

// DefaultChatModel matches the model the mobile client shipped with
const DefaultChatModel = openai.GPT3Dot5Turbo

var (
	// ErrMissingAPIKey is returned when no API key is configured
	ErrMissingAPIKey = errors.New("OpenAI API key is required")
	// ErrNetworkFailure covers transport errors and non-2xx responses
	ErrNetworkFailure = errors.New("completion request failed")
	// ErrMalformedResponse covers 2xx responses without usable text
	ErrMalformedResponse = errors.New("malformed completion response")
)

// Completer generates a completion for a request
type Completer interface {
	Complete(ctx context.Context, req models.CompletionRequest) (models.CompletionResponse, error)
}

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey     string
	BaseURL    string
	ChatModel  string
	HTTPClient *http.Client
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	chatModel := os.Getenv("CONFIDANT_OPENAI_MODEL")
	if chatModel == "" {
		chatModel = DefaultChatModel
	}

	return &ClientConfig{
		APIKey:    apiKey,
		ChatModel: chatModel,
	}
}

// OpenAIClient wraps the OpenAI API client
type OpenAIClient struct {
	client    *openai.Client
	chatModel string
}

// NewOpenAIClient creates a new OpenAI client with the given API key using default configuration
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	return NewOpenAIClientWithConfig(DefaultConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom configuration
func NewOpenAIClientWithConfig(config *ClientConfig) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	oaiConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		oaiConfig.BaseURL = strings.TrimRight(config.BaseURL, "/")
	}
	if config.HTTPClient != nil {
		oaiConfig.HTTPClient = config.HTTPClient
	}

	chatModel := config.ChatModel
	if chatModel == "" {
		chatModel = DefaultChatModel
	}

	return &OpenAIClient{
		client:    openai.NewClientWithConfig(oaiConfig),
		chatModel: chatModel,
	}, nil
}

// Model returns the chat model used for completions
func (c *OpenAIClient) Model() string {
	return c.chatModel
}

// Complete performs a single chat completion round trip
func (c *OpenAIClient) Complete(ctx context.Context, req models.CompletionRequest) (models.CompletionResponse, error) {
	if err := req.Validate(); err != nil {
		return models.CompletionResponse{}, fmt.Errorf("invalid completion request: %w", err)
	}

	resp, err := c.client.CreateChatCompletion(ctx, c.buildRequest(req))
	if err != nil {
		return models.CompletionResponse{}, classify(err)
	}

	if len(resp.Choices) == 0 {
		return models.CompletionResponse{}, fmt.Errorf("%w: no completion choices returned", ErrMalformedResponse)
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return models.CompletionResponse{}, fmt.Errorf("%w: empty message content", ErrMalformedResponse)
	}

	return models.CompletionResponse{Text: content}, nil
}

func (c *OpenAIClient) buildRequest(req models.CompletionRequest) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.SystemContext)+1)
	for _, instruction := range req.SystemContext {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: instruction,
		})
	}
	if strings.TrimSpace(req.UserText) != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: req.UserText,
		})
	}

	// temperature is omitempty in go-openai; a zero value would fall back to the API default of 1
	temperature := req.Temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	return openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Messages:    messages,
		MaxTokens:   req.MaxOutputTokens,
		Temperature: temperature,
	}
}

// classify maps go-openai errors onto the completion failure taxonomy
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: status %d: %s", ErrNetworkFailure, apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%w: status %d: %v", ErrNetworkFailure, reqErr.HTTPStatusCode, reqErr.Err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return fmt.Errorf("%w: %v", ErrNetworkFailure, err)
}

// IsNetworkFailure reports whether err is a transport-level failure
func IsNetworkFailure(err error) bool {
	return errors.Is(err, ErrNetworkFailure)
}

// IsMalformedResponse reports whether err is a 2xx response without usable text
func IsMalformedResponse(err error) bool {
	return errors.Is(err, ErrMalformedResponse)
}
