package cli

import (
	"fmt"

	backend "github.com/redis/go-redis/v9"

	filestore "github.com/statelyhq/stately/internal/adapters/file"
	redisstore "github.com/statelyhq/stately/internal/adapters/redis"
	"github.com/statelyhq/stately/pkg/ports"
)

func newFileStore(path string) ports.ExecutionStore {
	return filestore.New(path)
}

func newRedisStore(url string) (ports.ExecutionStore, error) {
	if url == "" {
		url = "redis://localhost:6379/0"
	}
	opts, err := backend.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return redisstore.NewFromClient(backend.NewClient(opts)), nil
}
