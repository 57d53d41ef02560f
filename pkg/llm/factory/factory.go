package factory

import (
	"fmt"

	"doc-chat-be/pkg/llm"
	"doc-chat-be/pkg/llm/ollama"
	"doc-chat-be/pkg/llm/openai"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "openai":
		return openai.NewOpenAIProvider(apiKey, baseURL, modelName), nil
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
