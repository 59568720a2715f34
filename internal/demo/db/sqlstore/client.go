package sqlstore

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/basejump-ai/basejump-demo/internal/common/apperrors"
	"github.com/basejump-ai/basejump-demo/internal/demo/db/dberror"
	"github.com/basejump-ai/basejump-demo/internal/demo/db/models"
)

// CreateClient inserts a client. Only the hashed secret is stored.
func (s *Store) CreateClient(ctx context.Context, client *models.Client) apperrors.Error {
	if err := validate(ctx, client); err != nil {
		return err
	}
	if client.ClientUUID == uuid.Nil {
		client.ClientUUID = uuid.New()
	}
	if client.ClientSecretUUID == uuid.Nil {
		client.ClientSecretUUID = uuid.New()
	}
	return s.withTx(ctx, func(q querier) apperrors.Error {
		id, err := s.NextVal(ctx, "clients", "client_id")
		if err != nil {
			return err
		}
		query := `
			INSERT INTO clients (client_id, client_uuid, client_name, client_type, hashed_client_secret, client_secret_uuid, description)
			VALUES ($1, $2, $3, $4, $5, $6, $7);
		`
		if err := s.insert(ctx, q, "client", query, id, client.ClientUUID, client.ClientName, string(client.ClientType),
			client.HashedClientSecret, client.ClientSecretUUID, client.Description); err != nil {
			return err
		}
		client.ClientID = id
		log.Ctx(ctx).Info().Int64("client_id", id).Str("client_uuid", client.ClientUUID.String()).Msg("client created")
		return nil
	})
}

func (s *Store) GetClient(ctx context.Context, clientID int64) (*models.Client, apperrors.Error) {
	query := `
		SELECT client_id, client_uuid, client_name, client_type, hashed_client_secret, client_secret_uuid, description
		FROM clients
		WHERE client_id = $1;
	`
	var c models.Client
	errdb := s.q().QueryRowContext(ctx, s.rebind(query), clientID).Scan(&c.ClientID, &c.ClientUUID, &c.ClientName,
		&c.ClientType, &c.HashedClientSecret, &c.ClientSecretUUID, &c.Description)
	if errdb != nil {
		return nil, notFound(ctx, errdb, "client")
	}
	return &c, nil
}

// CreateStorageConnection inserts a storage location. The secret access key must already be encrypted.
func (s *Store) CreateStorageConnection(ctx context.Context, sc *models.StorageConnection) apperrors.Error {
	if err := validate(ctx, sc); err != nil {
		return err
	}
	if sc.StorageUUID == uuid.Nil {
		sc.StorageUUID = uuid.New()
	}
	return s.withTx(ctx, func(q querier) apperrors.Error {
		id, err := s.NextVal(ctx, "client_storage_connections", "storage_id")
		if err != nil {
			return err
		}
		query := `
			INSERT INTO client_storage_connections (storage_id, storage_uuid, client_id, alias, storage_provider, region,
				bucket_name, access_key, secret_access_key, prefix, active, internal)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
		`
		if err := s.insert(ctx, q, "storage connection", query, id, sc.StorageUUID, sc.ClientID, sc.Alias, string(sc.StorageProvider),
			sc.Region, sc.BucketName, sc.AccessKey, sc.SecretAccessKey, sc.Prefix, sc.Active, sc.Internal); err != nil {
			return err
		}
		sc.StorageID = id
		return nil
	})
}

// GetStorageConnection returns the active storage location of a client with the given alias.
func (s *Store) GetStorageConnection(ctx context.Context, clientID int64, alias string) (*models.StorageConnection, apperrors.Error) {
	if clientID == 0 {
		return nil, dberror.ErrMissingClientID
	}
	query := `
		SELECT storage_id, storage_uuid, client_id, alias, storage_provider, region, bucket_name, access_key,
			secret_access_key, prefix, active, internal
		FROM client_storage_connections
		WHERE client_id = $1 AND alias = $2 AND active = $3
		ORDER BY storage_id DESC
		LIMIT 1;
	`
	var sc models.StorageConnection
	errdb := s.q().QueryRowContext(ctx, s.rebind(query), clientID, alias, true).Scan(&sc.StorageID, &sc.StorageUUID, &sc.ClientID,
		&sc.Alias, &sc.StorageProvider, &sc.Region, &sc.BucketName, &sc.AccessKey, &sc.SecretAccessKey, &sc.Prefix,
		&sc.Active, &sc.Internal)
	if errdb != nil {
		return nil, notFound(ctx, errdb, "storage connection")
	}
	return &sc, nil
}
