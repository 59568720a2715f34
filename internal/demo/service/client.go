package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/basejump-ai/basejump-demo/internal/demo/db"
	"github.com/basejump-ai/basejump-demo/internal/demo/db/models"
	"github.com/basejump-ai/basejump-demo/internal/demo/objectstore"
	"github.com/basejump-ai/basejump-demo/internal/demo/secrets"
	"github.com/basejump-ai/basejump-demo/pkg/types"
)

// ClientCredentials is returned once, when the client is created. ClientSecret cannot be
// recovered afterwards; only its hash is stored.
type ClientCredentials struct {
	ClientID         int64            `json:"client_id"`
	ClientUUID       uuid.UUID        `json:"client_uuid"`
	ClientName       string           `json:"client_name"`
	ClientType       types.ClientType `json:"client_type"`
	ClientSecret     string           `json:"client_secret"`
	ClientSecretUUID uuid.UUID        `json:"client_secret_uuid"`
	Description      string           `json:"description"`
	StorageUUID      uuid.UUID        `json:"storage_uuid"`
}

// CreateClient creates a client together with its default storage location. The session must
// not be bound to another client.
func (s *Service) CreateClient(ctx context.Context, sess db.Session, name string, clientType types.ClientType, description string) (creds *ClientCredentials, err error) {
	defer s.observe("create_client", time.Now(), &err)

	if err := s.cfg.ValidateObjectStorage(); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("default storage location is not configured")
		return nil, ErrClientCreation.MsgErr("default storage location is not configured", err)
	}
	if s.cfg.Secrets.MasterKey == "" {
		return nil, ErrClientCreation.MsgErr("master key is not configured", secrets.ErrMissingKey)
	}

	client := &models.Client{
		ClientUUID:       uuid.New(),
		ClientName:       name,
		ClientType:       clientType,
		ClientSecretUUID: uuid.New(),
		Description:      description,
	}
	loc, err := objectstore.DefaultLocation(s.cfg.ObjectStorage, client.ClientUUID)
	if err != nil {
		return nil, ErrClientCreation.Err(err)
	}
	encryptedKey, err := secrets.EncryptString(loc.SecretAccessKey, s.cfg.Secrets.MasterKey)
	if err != nil {
		return nil, ErrClientCreation.Err(err)
	}
	secret, err := secrets.NewClientSecret()
	if err != nil {
		return nil, ErrClientCreation.Err(err)
	}
	if client.HashedClientSecret, err = secrets.HashSecret(secret); err != nil {
		return nil, ErrClientCreation.Err(err)
	}

	storage := &models.StorageConnection{
		Alias:           types.DefaultStorageAlias,
		StorageProvider: loc.Provider,
		Region:          loc.Region,
		BucketName:      loc.Bucket,
		AccessKey:       loc.AccessKey,
		SecretAccessKey: encryptedKey,
		Prefix:          loc.Prefix,
		Active:          true,
		Internal:        true,
	}
	err = sess.InTx(ctx, func(ctx context.Context) error {
		if err := sess.CreateClient(ctx, client); err != nil {
			return err
		}
		storage.ClientID = client.ClientID
		if err := sess.CreateStorageConnection(ctx, storage); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Int64("client_id", client.ClientID).Str("client_name", name).Msg("client created")

	return &ClientCredentials{
		ClientID:         client.ClientID,
		ClientUUID:       client.ClientUUID,
		ClientName:       client.ClientName,
		ClientType:       client.ClientType,
		ClientSecret:     secret,
		ClientSecretUUID: client.ClientSecretUUID,
		Description:      client.Description,
		StorageUUID:      storage.StorageUUID,
	}, nil
}

// VerifyClientSecret checks a presented secret against the stored hash.
func (s *Service) VerifyClientSecret(ctx context.Context, sess db.Session, clientID int64, secret string) (bool, error) {
	client, err := sess.GetClient(ctx, clientID)
	if err != nil {
		return false, reference(err)
	}
	return secrets.VerifySecret(secret, client.HashedClientSecret)
}

func (s *Service) requireClient(ctx context.Context, sess db.Session, clientID int64) error {
	if clientID == 0 {
		return ErrReference.Msg("client id is required")
	}
	if _, err := sess.GetClient(ctx, clientID); err != nil {
		return reference(err)
	}
	return nil
}

func (s *Service) CreateTeam(ctx context.Context, sess db.Session, clientID int64, name, description string) (team *models.Team, err error) {
	defer s.observe("create_team", time.Now(), &err)
	if err := s.requireClient(ctx, sess, clientID); err != nil {
		return nil, err
	}
	team = &models.Team{ClientID: clientID, TeamName: name, TeamDesc: description}
	if err := sess.CreateTeam(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

// CreateUser creates a user of the client. An empty role is MEMBER.
func (s *Service) CreateUser(ctx context.Context, sess db.Session, clientID int64, username, email string, role types.UserRole) (user *models.User, err error) {
	defer s.observe("create_user", time.Now(), &err)
	if err := s.requireClient(ctx, sess, clientID); err != nil {
		return nil, err
	}
	if role == "" {
		role = types.UserRoleMember
	}
	user = &models.User{ClientID: clientID, Username: username, EmailAddress: email, Role: role}
	if err := sess.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
