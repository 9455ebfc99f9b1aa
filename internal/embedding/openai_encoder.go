package embedding

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEncoder calls a remote embeddings API compatible with the OpenAI
// protocol. It is used when knowledge.use_remote_embedding is enabled.
type OpenAIEncoder struct {
	client *openai.Client
	model  string
	dim    int
}

// NewOpenAIEncoder creates a remote encoder against the given endpoint.
func NewOpenAIEncoder(endpoint, apiKey, model string, dim int) *OpenAIEncoder {
	cfg := openai.DefaultConfig(apiKey)
	if endpoint != "" {
		cfg.BaseURL = endpoint
	}
	if dim <= 0 {
		dim = DefaultDim
	}
	return &OpenAIEncoder{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		dim:    dim,
	}
}

func (e *OpenAIEncoder) Dim() int {
	return e.dim
}

func (e *OpenAIEncoder) Embed(ctx context.Context, texts []string, isQuery bool) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	input := texts
	if isQuery {
		input = make([]string, len(texts))
		for i, t := range texts {
			input[i] = queryInstruction + t
		}
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      input,
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: e.dim,
	})
	if err != nil {
		return nil, fmt.Errorf("调用向量化服务失败: %w", err)
	}
	if len(resp.Data) != len(input) {
		return nil, fmt.Errorf("向量化结果数量不匹配: 期望 %d, 实际 %d", len(input), len(resp.Data))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, item := range resp.Data {
		vectors[i] = item.Embedding
	}
	return vectors, nil
}
