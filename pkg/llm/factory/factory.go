package factory

import (
	"fmt"

	"context-retriever-be/pkg/llm"
	"context-retriever-be/pkg/llm/ollama"
)

func NewLLMProvider(providerType, modelName, baseURL string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama", "":
		if modelName == "" {
			modelName = "llama3.2"
		}
		return ollama.NewOllamaProvider(baseURL, modelName)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
