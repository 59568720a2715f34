package sqlstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/basejump-ai/basejump-demo/internal/common/apperrors"
	"github.com/basejump-ai/basejump-demo/internal/demo/db/models"
)

// CreateVector inserts a vector index record. A preset VectorID is kept, so callers that
// allocated the id with NextVal can insert it inside the same transaction.
func (s *Store) CreateVector(ctx context.Context, v *models.Vector) apperrors.Error {
	if err := validate(ctx, v); err != nil {
		return err
	}
	if err := s.checkClient(ctx, v.ClientID); err != nil {
		return err
	}
	if v.VectorUUID == uuid.Nil {
		v.VectorUUID = uuid.New()
	}
	return s.withTx(ctx, func(q querier) apperrors.Error {
		id := v.VectorID
		if id == 0 {
			var err apperrors.Error
			if id, err = s.NextVal(ctx, "vectors", "vector_id"); err != nil {
				return err
			}
		}
		query := `
			INSERT INTO vectors (vector_id, vector_uuid, client_id, vector_database_vendor, vector_datasource_type, index_name)
			VALUES ($1, $2, $3, $4, $5, $6);
		`
		if err := s.insert(ctx, q, "vector", query, id, v.VectorUUID, v.ClientID, string(v.Vendor), string(v.SourceType), v.IndexName); err != nil {
			return err
		}
		v.VectorID = id
		return nil
	})
}

func (s *Store) GetVector(ctx context.Context, vectorID int64) (*models.Vector, apperrors.Error) {
	query, args := s.scoped(`
		SELECT vector_id, vector_uuid, client_id, vector_database_vendor, vector_datasource_type, index_name
		FROM vectors
		WHERE vector_id = $1`, "client_id", []any{vectorID})
	var v models.Vector
	errdb := s.q().QueryRowContext(ctx, s.rebind(query), args...).Scan(&v.VectorID, &v.VectorUUID, &v.ClientID, &v.Vendor, &v.SourceType, &v.IndexName)
	if errdb != nil {
		return nil, notFound(ctx, errdb, "vector")
	}
	return &v, nil
}
