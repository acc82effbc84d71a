package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Tracer for OpenTelemetry instrumentation.
var tracer = otel.Tracer("profilerag.vectorstore.qdrant")

// collectionNamePattern validates collection names.
// Pattern: lowercase letters, numbers, underscores, 1-64 characters.
var collectionNamePattern = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

// Config holds configuration for the Qdrant gRPC client.
type Config struct {
	// Host is the Qdrant server hostname or IP address.
	// Default: "localhost"
	Host string

	// Port is the Qdrant gRPC port (NOT the HTTP REST port).
	// Default: 6334 (gRPC), not 6333 (HTTP)
	Port int

	// APIKey authenticates against managed Qdrant deployments. Optional.
	APIKey string

	// Distance is the similarity metric used when creating collections.
	// Default: Cosine.
	Distance qdrant.Distance

	// UseTLS enables TLS encryption for the gRPC connection.
	UseTLS bool

	// MaxRetries is the maximum number of retry attempts for transient
	// failures. Default: 3.
	MaxRetries int

	// RetryBackoff is the initial backoff duration for retries. Doubles on
	// each retry. Default: 1 second.
	RetryBackoff time.Duration

	// MaxMessageSize is the maximum gRPC message size in bytes.
	// Default: 50MB, large enough for a full ingestion batch.
	MaxMessageSize int
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6334
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = time.Second
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = 50 * 1024 * 1024 // 50MB
	}
	if c.Distance == 0 {
		c.Distance = qdrant.Distance_Cosine
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: host required", ErrInvalidConfig)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: invalid port: %d", ErrInvalidConfig, c.Port)
	}
	return nil
}

// ValidateCollectionName validates a collection name against the naming
// rules. Rejects uppercase, special characters, path traversal, spaces.
func ValidateCollectionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: collection name cannot be empty", ErrInvalidCollectionName)
	}
	if !collectionNamePattern.MatchString(name) {
		return fmt.Errorf("%w: collection name must match pattern ^[a-z0-9_]{1,64}$, got %q", ErrInvalidCollectionName, name)
	}
	return nil
}

// IsTransientError checks if an error is transient (should retry).
// Returns true for network timeouts and temporary unavailability, false for
// invalid arguments, not found, permission denied.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}

	st, ok := status.FromError(err)
	if !ok {
		return false
	}

	switch st.Code() {
	case grpccodes.Unavailable, grpccodes.DeadlineExceeded, grpccodes.Aborted, grpccodes.ResourceExhausted:
		return true
	default:
		return false
	}
}

// Store manages collections and points in Qdrant over the native gRPC
// transport. The gRPC port avoids the REST layer's payload size limit,
// which matters when a whole ingestion batch is upserted in one call.
type Store struct {
	client *qdrant.Client
	config Config
	logger *zap.Logger
}

// New creates a Store, connects to Qdrant, and verifies the connection with
// a health check.
func New(cfg Config, logger *zap.Logger) (*Store, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(cfg.MaxMessageSize),
				grpc.MaxCallSendMsgSize(cfg.MaxMessageSize),
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	store := &Store{
		client: client,
		config: cfg,
		logger: logger.Named("vectorstore"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.healthCheck(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("health check failed: %w", err)
	}

	return store, nil
}

// Close closes the Qdrant gRPC connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *Store) healthCheck(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Store.HealthCheck")
	defer span.End()

	if _, err := s.client.HealthCheck(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "healthy")
	return nil
}

// retryOperation retries an operation with exponential backoff on transient
// gRPC failures. The store is the single retry layer for remote calls:
// callers above it treat a returned error as final for the run, and
// permanent errors are returned on the first attempt without retrying.
func (s *Store) retryOperation(ctx context.Context, operationName string, operation func() error) error {
	backoff := s.config.RetryBackoff

	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		if !IsTransientError(err) {
			return fmt.Errorf("%s failed (permanent): %w", operationName, err)
		}

		if attempt == s.config.MaxRetries {
			return fmt.Errorf("%s failed after %d retries: %w", operationName, s.config.MaxRetries, err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s canceled: %w", operationName, ctx.Err())
		case <-time.After(backoff):
			backoff *= 2
		}
	}
	return nil
}

// GetCollectionInfo returns the live descriptor of a collection, or
// ErrCollectionNotFound.
func (s *Store) GetCollectionInfo(ctx context.Context, collectionName string) (*CollectionInfo, error) {
	ctx, span := tracer.Start(ctx, "Store.GetCollectionInfo")
	defer span.End()
	span.SetAttributes(attribute.String("collection", collectionName))

	if err := ValidateCollectionName(collectionName); err != nil {
		return nil, err
	}

	var info *CollectionInfo
	err := s.retryOperation(ctx, "get_collection_info", func() error {
		collInfo, err := s.client.GetCollectionInfo(ctx, collectionName)
		if err != nil {
			st, ok := status.FromError(err)
			if ok && st.Code() == grpccodes.NotFound {
				return ErrCollectionNotFound
			}
			return err
		}

		info = &CollectionInfo{Name: collectionName}
		if collInfo.PointsCount != nil {
			info.PointCount = *collInfo.PointsCount
		}
		if params := collInfo.GetConfig().GetParams().GetVectorsConfig().GetParams(); params != nil {
			info.VectorSize = params.Size
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrCollectionNotFound) {
			span.SetStatus(codes.Error, "collection not found")
			return nil, ErrCollectionNotFound
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "success")
	return info, nil
}

// CreateCollection creates a collection with the given vector size and the
// configured distance metric.
func (s *Store) CreateCollection(ctx context.Context, collectionName string, vectorSize uint64) error {
	ctx, span := tracer.Start(ctx, "Store.CreateCollection")
	defer span.End()
	span.SetAttributes(
		attribute.String("collection", collectionName),
		attribute.Int64("vector_size", int64(vectorSize)),
	)

	if err := ValidateCollectionName(collectionName); err != nil {
		return err
	}

	err := s.retryOperation(ctx, "create_collection", func() error {
		return s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collectionName,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     vectorSize,
				Distance: s.config.Distance,
			}),
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("creating collection %s: %w", collectionName, err)
	}

	s.logger.Info("collection created",
		zap.String("collection", collectionName),
		zap.Uint64("vector_size", vectorSize))

	span.SetStatus(codes.Ok, "success")
	return nil
}

// EnsureCollection makes sure the collection exists before any upsert.
//
// An existing collection is trusted as-is: re-ingesting with a different
// embedding model into the same collection is a caller error. A dimension
// mismatch is still logged so drift does not go unnoticed. Returns true
// when the collection was created by this call.
func (s *Store) EnsureCollection(ctx context.Context, collectionName string, vectorSize uint64) (bool, error) {
	info, err := s.GetCollectionInfo(ctx, collectionName)
	if err == nil {
		if info.VectorSize != 0 && info.VectorSize != vectorSize {
			s.logger.Warn("existing collection has a different vector size; trusting it as-is",
				zap.String("collection", collectionName),
				zap.Uint64("collection_size", info.VectorSize),
				zap.Uint64("run_size", vectorSize))
		}
		return false, nil
	}
	if !errors.Is(err, ErrCollectionNotFound) {
		return false, err
	}

	if err := s.CreateCollection(ctx, collectionName, vectorSize); err != nil {
		return false, err
	}
	return true, nil
}

// UpsertPoints writes the points in a single batched call and blocks until
// the store confirms durability. Partial-batch failure is fail-fast: the
// whole batch is rejected, nothing is committed.
func (s *Store) UpsertPoints(ctx context.Context, collectionName string, points []Point) error {
	ctx, span := tracer.Start(ctx, "Store.UpsertPoints")
	defer span.End()
	span.SetAttributes(
		attribute.String("collection", collectionName),
		attribute.Int("point_count", len(points)),
	)

	if err := ValidateCollectionName(collectionName); err != nil {
		return err
	}
	if len(points) == 0 {
		return ErrEmptyPoints
	}

	qdrantPoints := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrantPayload(p.Payload),
		}
	}

	err := s.retryOperation(ctx, "upsert", func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collectionName,
			Wait:           qdrant.PtrOf(true),
			Points:         qdrantPoints,
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("upserting %d points to collection %s: %w", len(points), collectionName, err)
	}

	s.logger.Info("points upserted",
		zap.String("collection", collectionName),
		zap.Int("points", len(points)))

	span.SetStatus(codes.Ok, "success")
	return nil
}

// Search returns the top-k payloads nearest to the given vector.
func (s *Store) Search(ctx context.Context, collectionName string, vector []float32, k uint64) ([]SearchResult, error) {
	ctx, span := tracer.Start(ctx, "Store.Search")
	defer span.End()
	span.SetAttributes(
		attribute.String("collection", collectionName),
		attribute.Int64("k", int64(k)),
	)

	if err := ValidateCollectionName(collectionName); err != nil {
		return nil, err
	}
	if k == 0 {
		return nil, fmt.Errorf("%w: k must be positive", ErrInvalidConfig)
	}

	var scored []*qdrant.ScoredPoint
	err := s.retryOperation(ctx, "search", func() error {
		res, err := s.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: collectionName,
			Query:          qdrant.NewQuery(vector...),
			Limit:          qdrant.PtrOf(k),
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return err
		}
		scored = res
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("searching collection %s: %w", collectionName, err)
	}

	results := make([]SearchResult, len(scored))
	for i, point := range scored {
		payload := parsePayload(point.Payload)
		results[i] = SearchResult{
			Score:       point.Score,
			PageContent: payload.PageContent,
			Metadata:    payload.Metadata,
		}
	}

	span.SetAttributes(attribute.Int("results_count", len(results)))
	span.SetStatus(codes.Ok, "success")
	return results, nil
}
