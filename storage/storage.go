package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/datazip-inc/icemirror/types"
)

// ErrAlreadyExists is returned by Put when the key is taken. Data files and
// metadata documents are immutable, so an existing key is never overwritten.
var ErrAlreadyExists = errors.New("object already exists")

// Store is the durable blob substrate: create-new writes, reads and
// existence checks addressed by opaque keys.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// New builds a store from config.
func New(ctx context.Context, config *types.StoreConfig) (Store, error) {
	switch config.Type {
	case "local":
		return NewLocal(config.Path)
	case "s3":
		return NewS3(ctx, config)
	default:
		return nil, fmt.Errorf("invalid store type has been passed [%s]", config.Type)
	}
}
