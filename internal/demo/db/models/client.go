package models

import (
	"github.com/google/uuid"

	"github.com/basejump-ai/basejump-demo/pkg/types"
)

/*
 clients
   client_id            | bigint      | not null | primary key
   client_uuid          | uuid        | not null | unique
   client_name          | text        | not null |
   client_type          | text        | not null |
   hashed_client_secret | text        | not null | argon2id encoded
   client_secret_uuid   | uuid        | not null |
   description          | text        |          |
   created_at           | timestamptz | not null | now()
*/

type Client struct {
	ClientID           int64            `db:"client_id"`
	ClientUUID         uuid.UUID        `db:"client_uuid"`
	ClientName         string           `db:"client_name" validate:"required,max=256"`
	ClientType         types.ClientType `db:"client_type" validate:"required,clientType"`
	HashedClientSecret string           `db:"hashed_client_secret" validate:"required"`
	ClientSecretUUID   uuid.UUID        `db:"client_secret_uuid"`
	Description        string           `db:"description"`
}

// StorageConnection is a client's object storage location. SecretAccessKey is stored encrypted.
type StorageConnection struct {
	StorageID       int64                 `db:"storage_id"`
	StorageUUID     uuid.UUID             `db:"storage_uuid"`
	ClientID        int64                 `db:"client_id" validate:"required"`
	Alias           string                `db:"alias" validate:"required"`
	StorageProvider types.StorageProvider `db:"storage_provider" validate:"required"`
	Region          string                `db:"region" validate:"required"`
	BucketName      string                `db:"bucket_name" validate:"required"`
	AccessKey       string                `db:"access_key" validate:"required"`
	SecretAccessKey string                `db:"secret_access_key" validate:"required"`
	Prefix          string                `db:"prefix" validate:"required"`
	Active          bool                  `db:"active"`
	Internal        bool                  `db:"internal"`
}
