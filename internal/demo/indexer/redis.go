package indexer

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/basejump-ai/basejump-demo/pkg/types"
)

// RedisIndexer keeps one hash per client index; each field is a compressed data source
// manifest keyed by the database uuid.
type RedisIndexer struct {
	client redis.UniversalClient
}

func NewRedisIndexer(client redis.UniversalClient) *RedisIndexer {
	return &RedisIndexer{client: client}
}

// Dial connects to redis and verifies the server answers.
func Dial(ctx context.Context, addr, password string, db int) (*RedisIndexer, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		log.Ctx(ctx).Error().Err(err).Str("addr", addr).Msg("unable to reach redis")
		return nil, ErrIndexStore.Err(err)
	}
	return NewRedisIndexer(client), nil
}

func (x *RedisIndexer) Close() error {
	return x.client.Close()
}

func (x *RedisIndexer) Index(ctx context.Context, req IndexRequest) (*IndexHandle, error) {
	m, err := BuildManifest(ctx, req)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("index", req.IndexName).Msg("unable to read tables")
		return nil, err
	}
	data, err := encodeManifest(m)
	if err != nil {
		return nil, ErrIndex.Err(err)
	}
	if err := x.client.HSet(ctx, req.IndexName, req.DatabaseUUID.String(), data).Err(); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("index", req.IndexName).Msg("unable to store index entry")
		return nil, ErrIndexStore.Err(err)
	}
	log.Ctx(ctx).Info().Str("index", req.IndexName).Int("tables", len(m.Tables)).Msg("data source indexed")
	return &IndexHandle{
		Vendor:       types.VectorVendorRedis,
		IndexName:    req.IndexName,
		DatabaseUUID: req.DatabaseUUID,
		Tables:       len(m.Tables),
	}, nil
}

// Lookup returns the manifest stored for a data source.
func (x *RedisIndexer) Lookup(ctx context.Context, indexName string, dbUUID uuid.UUID) (*Manifest, error) {
	data, err := x.client.HGet(ctx, indexName, dbUUID.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrIndexNotFound
	}
	if err != nil {
		return nil, ErrIndexStore.Err(err)
	}
	return decodeManifest(data)
}

// Drop removes a data source from the index.
func (x *RedisIndexer) Drop(ctx context.Context, indexName string, dbUUID uuid.UUID) error {
	if err := x.client.HDel(ctx, indexName, dbUUID.String()).Err(); err != nil {
		return ErrIndexStore.Err(err)
	}
	return nil
}
