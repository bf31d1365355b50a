package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"docchat/internal/contextutil"
)

// QdrantStore implements VectorStore using Qdrant.
type QdrantStore struct {
	client *qdrant.Client
}

// grpcAddress derives the Qdrant gRPC host and port from its HTTP URL.
// The gRPC port is the HTTP port + 1 (6334 when no port is given).
func grpcAddress(urlStr string) (string, int, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := 6334
	if parsedURL.Port() != "" {
		httpPort, err := strconv.Atoi(parsedURL.Port())
		if err != nil {
			return "", 0, fmt.Errorf("invalid Qdrant port %q: %w", parsedURL.Port(), err)
		}
		port = httpPort + 1
	}

	return host, port, nil
}

// NewQdrantStore creates a new Qdrant vector store client.
// urlStr should be in the format "http://host:port" (e.g., "http://localhost:6333").
func NewQdrantStore(urlStr string) (*QdrantStore, error) {
	host, port, err := grpcAddress(urlStr)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantStore{
		client: client,
	}, nil
}

// Close closes the underlying gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// Ping checks that the Qdrant server answers health checks.
func (s *QdrantStore) Ping(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant health check failed: %w", err)
	}
	return nil
}

// Upsert writes points to the collection and waits for the write to be applied.
func (s *QdrantStore) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	logger := contextutil.LoggerFromContext(ctx)

	wait := true
	req := &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         make([]*qdrant.PointStruct, len(points)),
		Wait:           &wait,
	}
	for i, p := range points {
		req.Points[i] = toQdrantPoint(p)
	}

	if _, err := s.client.Upsert(ctx, req); err != nil {
		logger.ErrorContext(ctx, "qdrant upsert failed", "collection", collection, "points", len(points), "error", err)
		return fmt.Errorf("upsert %d points into %s: %w", len(points), collection, err)
	}
	logger.DebugContext(ctx, "upserted points", "collection", collection, "count", len(points))
	return nil
}

func toQdrantPoint(p Point) *qdrant.PointStruct {
	ps := &qdrant.PointStruct{
		Id:      qdrant.NewID(p.ID),
		Vectors: qdrant.NewVectors(p.Vec...),
	}
	if len(p.Meta) > 0 {
		ps.Payload = qdrant.NewValueMap(p.Meta)
	}
	return ps
}

// buildFilter turns exact-match filters into Qdrant must conditions.
// Strings match keywords, integers match integer payloads; other types are skipped.
func buildFilter(filters map[string]any) (*qdrant.Filter, []string) {
	if len(filters) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var must []*qdrant.Condition
	var skipped []string
	for _, key := range keys {
		switch v := filters[key].(type) {
		case string:
			must = append(must, qdrant.NewMatch(key, v))
		case int:
			must = append(must, qdrant.NewMatchInt(key, int64(v)))
		case int64:
			must = append(must, qdrant.NewMatchInt(key, v))
		default:
			skipped = append(skipped, key)
		}
	}

	if len(must) == 0 {
		return nil, skipped
	}
	return &qdrant.Filter{Must: must}, skipped
}

// Search returns the k points closest to query, optionally restricted by exact-match filters.
func (s *QdrantStore) Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}
	logger := contextutil.LoggerFromContext(ctx)

	filter, skipped := buildFilter(filters)
	if len(skipped) > 0 {
		logger.WarnContext(ctx, "unsupported filter types ignored", "keys", skipped)
	}

	limit := uint64(k)
	hits, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit,
		Filter:         filter,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		logger.ErrorContext(ctx, "qdrant query failed", "collection", collection, "k", k, "error", err)
		return nil, fmt.Errorf("search %s: %w", collection, err)
	}

	results := make([]SearchResult, len(hits))
	for i, hit := range hits {
		results[i] = SearchResult{
			PointID: hit.GetId().GetUuid(),
			Score:   hit.GetScore(),
			Meta:    payloadToMap(hit.GetPayload()),
		}
	}

	logger.DebugContext(ctx, "search completed", "collection", collection, "k", k, "results", len(results))
	return results, nil
}

// Delete removes points by ID. Missing IDs are ignored by Qdrant.
func (s *QdrantStore) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	logger := contextutil.LoggerFromContext(ctx)

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewID(id)
	}

	wait := true
	if _, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points:         qdrant.NewPointsSelector(pointIDs...),
		Wait:           &wait,
	}); err != nil {
		logger.ErrorContext(ctx, "qdrant delete failed", "collection", collection, "points", len(ids), "error", err)
		return fmt.Errorf("delete %d points from %s: %w", len(ids), collection, err)
	}

	logger.DebugContext(ctx, "deleted points", "collection", collection, "count", len(ids))
	return nil
}

// Count returns the exact number of points in the collection, 0 if it does not exist.
func (s *QdrantStore) Count(ctx context.Context, collection string) (int, error) {
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return 0, fmt.Errorf("check collection %s: %w", collection, err)
	}
	if !exists {
		return 0, nil
	}

	exact := true
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("count points in %s: %w", collection, err)
	}
	return int(n), nil
}

// DropCollection deletes the collection. Dropping a missing collection is a no-op.
func (s *QdrantStore) DropCollection(ctx context.Context, collection string) error {
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", collection, err)
	}
	if !exists {
		return nil
	}

	if err := s.client.DeleteCollection(ctx, collection); err != nil {
		return fmt.Errorf("drop collection %s: %w", collection, err)
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "collection dropped", "collection", collection)
	return nil
}

// EnsureCollection creates the collection with cosine distance, or checks that
// an existing one was built for vectors of the same size.
func (s *QdrantStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", collection, err)
	}
	if !exists {
		logger.InfoContext(ctx, "creating collection", "collection", collection, "vector_size", vectorSize)
		return s.createCollection(ctx, collection, vectorSize)
	}

	got, err := s.vectorSize(ctx, collection)
	if err != nil {
		return err
	}
	if got != vectorSize {
		return fmt.Errorf("collection vector size mismatch: expected %d, got %d", vectorSize, got)
	}

	logger.DebugContext(ctx, "collection validated", "collection", collection, "vector_size", vectorSize)
	return nil
}

func (s *QdrantStore) createCollection(ctx context.Context, collection string, vectorSize int) error {
	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(vectorSize),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", collection, err)
	}
	return nil
}

// vectorSize reads the configured size of the collection's unnamed vector.
func (s *QdrantStore) vectorSize(ctx context.Context, collection string) (int, error) {
	info, err := s.client.GetCollectionInfo(ctx, collection)
	if err != nil {
		return 0, fmt.Errorf("get collection info %s: %w", collection, err)
	}
	size := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
	if size == 0 {
		return 0, fmt.Errorf("could not determine vector size of collection %s", collection)
	}
	return int(size), nil
}

// payloadToMap decodes a point payload into plain Go values.
func payloadToMap(payload map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for key, v := range payload {
		if v != nil {
			out[key] = payloadValue(v)
		}
	}
	return out
}

func payloadValue(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_ListValue:
		items := kind.ListValue.GetValues()
		list := make([]any, 0, len(items))
		for _, item := range items {
			list = append(list, payloadValue(item))
		}
		return list
	case *qdrant.Value_StructValue:
		return payloadToMap(kind.StructValue.GetFields())
	}
	return nil
}
