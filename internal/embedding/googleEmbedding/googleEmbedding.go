package googleEmbedding

import (
	"context"
	"time"

	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/docharvest/gateway/internal/config"
	"github.com/docharvest/gateway/internal/embedding"
	"github.com/docharvest/gateway/pkg/logger_i"
)

var dimension int32 = config.EmbeddingOutputDimensionality

type client struct {
	genAi  *genai.Client
	model  string
	logger *logger_i.Logger
}

// NewGoogleEmbedder builds a Google embedding client. Callers own the
// lifetime; the client stops working once ctx is cancelled.
func NewGoogleEmbedder(ctx context.Context, modelName string, apikey string) (embedding.Embedder, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey})
	if err != nil {
		return nil, err
	}
	logger := logger_i.NewLogger("google_embedding")
	logger.Info("Google Embedding client created", "model", modelName)
	return &client{genAi: c, model: modelName, logger: logger}, nil
}

func (c *client) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	result, err := c.doCall(ctx, genai.Text(text))
	if err != nil {
		c.logger.Error("Error getting embedding from Google", "error", err.Error())
		return nil, err
	}
	return result.Embeddings[0].Values, nil
}

func (c *client) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	res, err := c.doCall(ctx, getContent(texts))
	if err != nil {
		if doRetry(err, c.logger) {
			time.Sleep(5 * time.Second)
			res, err = c.doCall(ctx, getContent(texts))
		}
		if err != nil {
			c.logger.Error("Error getting batch embeddings from Google", "error", err.Error())
			return nil, err
		}
	}

	embeddingResults := make([][]float32, 0, len(res.Embeddings))
	for _, r := range res.Embeddings {
		embeddingResults = append(embeddingResults, r.Values)
	}
	return embeddingResults, nil
}

func (c *client) doCall(ctx context.Context, content []*genai.Content) (*genai.EmbedContentResponse, error) {
	return c.genAi.Models.EmbedContent(ctx, c.model, content,
		&genai.EmbedContentConfig{OutputDimensionality: &dimension, TaskType: "RETRIEVAL_DOCUMENT"})
}

func getContent(texts []string) []*genai.Content {
	contentsToSend := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contentsToSend = append(contentsToSend, &genai.Content{
			Parts: []*genai.Part{{Text: text}},
		})
	}
	return contentsToSend
}

func doRetry(err error, log *logger_i.Logger) bool {
	if s, ok := status.FromError(err); ok {
		if s.Code() == codes.ResourceExhausted {
			log.Warn("Embedding rate limit hit, retrying once", "error", err)
			return true
		}
	}
	return false
}
