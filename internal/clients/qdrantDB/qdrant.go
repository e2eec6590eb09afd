package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"github.com/docharvest/gateway/internal/config"
	"github.com/docharvest/gateway/internal/domain/docModel"
	"github.com/docharvest/gateway/internal/embedding"
	"github.com/docharvest/gateway/pkg/logger_i"
)

var dimension = uint64(config.EmbeddingOutputDimensionality)

// Store is the development vector backend. Chunks are embedded and upserted
// into one Qdrant collection created on startup.
type Store struct {
	client     *qdrant.Client
	embedder   embedding.Embedder
	collection string
	logger     *logger_i.Logger
}

// NewStore connects to Qdrant and ensures the collection exists. The client
// is closed when ctx is cancelled.
func NewStore(ctx context.Context, embedder embedding.Embedder) (*Store, error) {
	logger := logger_i.NewLogger("Qdrant")

	host := os.Getenv("QDRANT_HOST")
	port, er := strconv.Atoi(os.Getenv("QDRANT_PORT"))
	if host == "" || er != nil {
		host = config.QdrantHost
		port = config.QdrantGrpcPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		return nil, fmt.Errorf("could not instantiate qdrant client: %w", err)
	}

	if err := createCollection(ctx, client, config.QdrantCollectionName); err != nil {
		return nil, fmt.Errorf("could not create collection %q: %w", config.QdrantCollectionName, err)
	}

	store := &Store{
		client:     client,
		embedder:   embedder,
		collection: config.QdrantCollectionName,
		logger:     logger,
	}
	go store.closeOnDone(ctx)
	return store, nil
}

func (db *Store) closeOnDone(ctx context.Context) {
	<-ctx.Done()
	db.logger.Info("Shutting down Qdrant client")
	if err := db.client.Close(); err != nil {
		db.logger.Error("could not close Qdrant client", "error", err)
	}
}

// IndexChunks embeds the chunk texts and upserts one point per chunk.
func (db *Store) IndexChunks(ctx context.Context, chunks []docModel.Chunk) (map[string]any, error) {
	if len(chunks) == 0 {
		return map[string]any{"status": "success", "indexed": 0}, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := db.embedder.BatchEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}

	qdrantPoints := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(chunk.Id),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"content":       chunk.Text,
				"source_doc_id": chunk.DocId,
				"chunk_order":   chunk.Index,
				"chunk_id":      chunk.Id,
			}),
		}
	}

	_, err = db.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: db.collection,
		Points:         qdrantPoints,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant upsert failed: %w", err)
	}

	return map[string]any{"status": "success", "indexed": len(chunks)}, nil
}

// Search embeds the query and returns the closest chunk payloads.
func (db *Store) Search(ctx context.Context, query string, limit int) ([]map[string]any, error) {
	vector, err := db.embedder.GetEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}

	result, err := db.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: db.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query failed: %w", err)
	}

	hits := make([]map[string]any, 0, len(result))
	for _, hit := range result {
		hits = append(hits, map[string]any{
			"content":       hit.Payload["content"].GetStringValue(),
			"source_doc_id": hit.Payload["source_doc_id"].GetStringValue(),
			"chunk_id":      hit.Payload["chunk_id"].GetStringValue(),
			"score":         hit.Score,
		})
	}
	return hits, nil
}

func createCollection(ctx context.Context, client *qdrant.Client, collectionName string) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}

	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}
