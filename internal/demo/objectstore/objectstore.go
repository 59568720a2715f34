// Package objectstore describes where a client's result artifacts live and hands out short lived
// download links for them. Uploading is left to the reasoning engine.
package objectstore

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/basejump-ai/basejump-demo/internal/common/apperrors"
	"github.com/basejump-ai/basejump-demo/internal/demo/config"
	"github.com/basejump-ai/basejump-demo/internal/demo/errkind"
	"github.com/basejump-ai/basejump-demo/pkg/types"
)

var (
	ErrInvalidLocation  apperrors.Error = errkind.ErrValidation.New("invalid storage location")
	ErrKeyOutsidePrefix apperrors.Error = errkind.ErrValidation.New("object key is outside the client prefix")
	ErrPresign          apperrors.Error = errkind.ErrConnection.New("unable to sign object url")
)

// Location is a client's object storage location with plaintext credentials.
type Location struct {
	Provider        types.StorageProvider
	Region          string
	Bucket          string
	AccessKey       string
	SecretAccessKey string
	Endpoint        string
	Prefix          string
}

// DefaultPrefix is the key prefix every object of a client is stored under.
func DefaultPrefix(clientUUID uuid.UUID) string {
	return "clients/" + clientUUID.String() + "/"
}

// DefaultLocation is the location a new client receives from configuration.
func DefaultLocation(cfg config.ObjectStorageConfig, clientUUID uuid.UUID) (Location, error) {
	loc := Location{
		Provider:        types.StorageProviderS3,
		Region:          cfg.Region,
		Bucket:          cfg.Bucket,
		AccessKey:       cfg.AccessKey,
		SecretAccessKey: cfg.SecretAccessKey,
		Endpoint:        cfg.Endpoint,
		Prefix:          DefaultPrefix(clientUUID),
	}
	if err := ValidateLocation(loc); err != nil {
		return Location{}, err
	}
	return loc, nil
}

func ValidateLocation(loc Location) error {
	var missing []string
	if loc.Provider != types.StorageProviderS3 {
		return ErrInvalidLocation.Msg("unsupported storage provider " + string(loc.Provider))
	}
	if loc.Region == "" {
		missing = append(missing, "region")
	}
	if loc.Bucket == "" {
		missing = append(missing, "bucket")
	}
	if loc.AccessKey == "" {
		missing = append(missing, "access key")
	}
	if loc.SecretAccessKey == "" {
		missing = append(missing, "secret access key")
	}
	if len(missing) > 0 {
		return ErrInvalidLocation.Suffix("missing " + strings.Join(missing, ", "))
	}
	if loc.Prefix == "" || !strings.HasSuffix(loc.Prefix, "/") || strings.HasPrefix(loc.Prefix, "/") {
		return ErrInvalidLocation.Msg("prefix must be a relative path ending in /")
	}
	return nil
}

// ResultKey is the key a result artifact is stored under when the engine does not name one.
func ResultKey(loc Location, resultUUID uuid.UUID) string {
	return loc.Prefix + "results/" + resultUUID.String() + ".csv"
}

type Presigner interface {
	PresignGet(ctx context.Context, loc Location, key string, expiry time.Duration) (string, error)
}

// S3Presigner signs GET urls with the location's own credentials.
type S3Presigner struct{}

func NewS3Presigner() *S3Presigner {
	return &S3Presigner{}
}

func (S3Presigner) PresignGet(ctx context.Context, loc Location, key string, expiry time.Duration) (string, error) {
	if err := ValidateLocation(loc); err != nil {
		return "", err
	}
	if !strings.HasPrefix(key, loc.Prefix) {
		return "", ErrKeyOutsidePrefix.Suffix(key)
	}
	if expiry <= 0 {
		expiry = config.DefaultURLExpiry
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(loc.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(loc.AccessKey, loc.SecretAccessKey, "")),
	)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("unable to load aws config")
		return "", ErrPresign.Err(err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if loc.Endpoint != "" {
			o.BaseEndpoint = aws.String(loc.Endpoint)
			o.UsePathStyle = true
		}
	})
	out, err := s3.NewPresignClient(client).PresignGetObject(ctx,
		&s3.GetObjectInput{Bucket: aws.String(loc.Bucket), Key: aws.String(key)},
		func(po *s3.PresignOptions) { po.Expires = expiry })
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("key", key).Msg("unable to presign object url")
		return "", ErrPresign.Err(err)
	}
	return out.URL, nil
}
