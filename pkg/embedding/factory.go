package embedding

import "fmt"

// NewProvider picks an implementation by name: "ollama" (default) or "gemini".
func NewProvider(name, ollamaURL, ollamaModel, geminiKey string) (EmbeddingProvider, error) {
	switch name {
	case "ollama", "":
		return NewOllamaProvider(ollamaURL, ollamaModel)
	case "gemini":
		if geminiKey == "" {
			return nil, fmt.Errorf("gemini embedding provider requires an api key")
		}
		return NewGeminiProvider(geminiKey), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", name)
	}
}
