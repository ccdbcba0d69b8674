// ABOUTME: Generative text client contract and its OpenAI implementation
// ABOUTME: Single call shape: prompt in, raw (expected JSON) text out, with retry and timeout
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/invopop/jsonschema"
	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/lifeline/internal/util"
)

// DefaultChatModel is the default model for chat completions
const DefaultChatModel = "gpt-4o-mini"

// DefaultTimeout bounds each individual generation attempt.
const DefaultTimeout = 25 * time.Second

// Options carries per-call generation parameters. When Schema is non-nil
// the request asks for strict JSON shaped like that value; when JSONOnly is
// set without a schema, plain JSON-object mode is requested instead.
type Options struct {
	Temperature float32
	MaxTokens   int
	JSONOnly    bool
	Schema      any
	SchemaName  string
}

// Generator is the single external call contract every pipeline stage
// depends on: given a prompt, return free text expected to look like JSON.
// Timeouts, non-2xx responses, and empty bodies all surface as one
// "generation failed" error.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// ClientConfig holds configuration for the OpenAI-backed generator
type ClientConfig struct {
	APIKey     string
	ChatModel  string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	chatModel := os.Getenv("LIFELINE_OPENAI_MODEL")
	if chatModel == "" {
		chatModel = DefaultChatModel
	}

	return &ClientConfig{
		APIKey:     apiKey,
		ChatModel:  chatModel,
		Timeout:    DefaultTimeout,
		MaxRetries: 3,
		RetryDelay: time.Second * 2,
	}
}

// OpenAIGenerator implements Generator on the OpenAI chat completion API
// with retry logic and per-attempt timeouts.
type OpenAIGenerator struct {
	client     *openai.Client
	chatModel  string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
}

// NewOpenAIGenerator creates a generator with default configuration
func NewOpenAIGenerator(apiKey string) (*OpenAIGenerator, error) {
	return NewOpenAIGeneratorWithConfig(DefaultConfig(apiKey))
}

// NewOpenAIGeneratorWithConfig creates a generator with custom configuration
func NewOpenAIGeneratorWithConfig(config *ClientConfig) (*OpenAIGenerator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &OpenAIGenerator{
		client:     openai.NewClient(config.APIKey),
		chatModel:  config.ChatModel,
		timeout:    timeout,
		maxRetries: config.MaxRetries,
		retryDelay: config.RetryDelay,
	}, nil
}

// Generate runs one chat completion for the prompt and returns the raw
// response text.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}

	if opts.Schema != nil {
		name := opts.SchemaName
		if name == "" {
			name = "response"
		}
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   name,
				Schema: reflectSchema(opts.Schema),
				Strict: true,
			},
		}
	} else if opts.JSONOnly {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(util.CalculateBackoff(g.retryDelay, attempt))
		}

		attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
		resp, err := g.client.CreateChatCompletion(attemptCtx, req)
		cancel()

		if err != nil {
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			lastErr = fmt.Errorf("attempt %d: empty completion", attempt+1)
			continue
		}

		return resp.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("generation failed after %d attempts: %w", g.maxRetries+1, lastErr)
}

// reflectSchema builds a strict JSON schema for the given value. Inlined
// definitions and closed objects keep the schema acceptable to the OpenAI
// structured-output validator.
func reflectSchema(v any) json.Marshaler {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: false,
	}
	return reflector.Reflect(v)
}
