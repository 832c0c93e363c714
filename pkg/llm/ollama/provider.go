package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"context-retriever-be/pkg/llm"

	"github.com/ollama/ollama/api"
)

const DefaultBaseURL = "http://localhost:11434"

type OllamaProvider struct {
	ModelName string
	client    *api.Client
}

// Ensure OllamaProvider implements LLMProvider
var _ llm.LLMProvider = &OllamaProvider{}

func NewOllamaProvider(baseURL, modelName string) (*OllamaProvider, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", baseURL, err)
	}

	httpClient := &http.Client{
		Timeout: 120 * time.Second,
	}

	return &OllamaProvider{
		ModelName: modelName,
		client:    api.NewClient(u, httpClient),
	}, nil
}

func (o *OllamaProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := llm.ApplyOptions(llm.Options{
		Temperature: 0.7,
		Model:       o.ModelName,
	}, opts...)

	messages := make([]api.Message, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = "assistant"
		}
		messages[i] = api.Message{Role: role, Content: msg.Content}
	}

	modelOptions := map[string]interface{}{
		"temperature": options.Temperature,
	}
	if options.MaxTokens > 0 {
		modelOptions["num_predict"] = options.MaxTokens
	}

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: messages,
		Stream:   &stream,
		Options:  modelOptions,
	}
	if options.JSONMode {
		req.Format = json.RawMessage(`"json"`)
	}

	var out strings.Builder
	err := o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		out.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}

	return out.String(), nil
}

func (o *OllamaProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return o.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}
