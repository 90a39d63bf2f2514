package cli

import (
	"context"

	"github.com/turtacn/proteingraph/internal/application/pingraph"
	"github.com/turtacn/proteingraph/internal/config"
	"github.com/turtacn/proteingraph/internal/domain/graph"
	infraNeo4j "github.com/turtacn/proteingraph/internal/infrastructure/database/neo4j"
	"github.com/turtacn/proteingraph/internal/infrastructure/database/neo4j/repositories"
	"github.com/turtacn/proteingraph/internal/infrastructure/database/redis"
	"github.com/turtacn/proteingraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/proteingraph/internal/infrastructure/storage/minio"
)

// GraphStore is the graph repository plus the read queries used by inspect.
type GraphStore interface {
	graph.Repository
	KindCounts(ctx context.Context, runID string) ([]repositories.KindCount, error)
}

// ArtifactStore is the document store plus the delete used by fetch.
type ArtifactStore interface {
	graph.ArtifactStore
	DeleteDocument(ctx context.Context, key string) error
}

// closeFunc releases a backend connection.
type closeFunc func(context.Context) error

// Backend constructors. Tests swap them for in-memory fakes.
var (
	openCache = func(ctx context.Context, cfg config.RedisConfig, log logging.Logger) (pingraph.Cache, closeFunc, error) {
		client, err := redis.NewClient(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		cache := redis.NewGraphCache(client, log)
		return cache, func(context.Context) error { return client.Close() }, nil
	}

	openGraphStore = func(ctx context.Context, cfg config.Neo4jConfig, log logging.Logger) (GraphStore, closeFunc, error) {
		driver, err := infraNeo4j.NewDriver(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return repositories.NewResidueGraphRepo(driver, log), driver.Close, nil
	}

	openArtifactStore = func(ctx context.Context, cfg config.MinIOConfig, log logging.Logger) (ArtifactStore, closeFunc, error) {
		client, err := minio.NewClient(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return minio.NewDocumentStore(client, log), func(context.Context) error { return client.Close() }, nil
	}
)

// backends tracks the connections opened for one command.
type backends struct {
	closers []closeFunc
	logger  logging.Logger
}

func (b *backends) track(c closeFunc) {
	if c != nil {
		b.closers = append(b.closers, c)
	}
}

// Close releases connections in reverse order of opening.
func (b *backends) Close(ctx context.Context) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](ctx); err != nil {
			b.logger.Warn("backend close failed", logging.Err(err))
		}
	}
	b.closers = nil
}
