package objectstore

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basejump-ai/basejump-demo/internal/demo/config"
	"github.com/basejump-ai/basejump-demo/internal/demo/errkind"
	"github.com/basejump-ai/basejump-demo/pkg/types"
)

func testConfig() config.ObjectStorageConfig {
	return config.ObjectStorageConfig{
		Region:          "us-west-2",
		Bucket:          "basejump-results",
		AccessKey:       "AKIAEXAMPLE",
		SecretAccessKey: "secret",
	}
}

func TestDefaultLocation(t *testing.T) {
	clientUUID := uuid.New()
	loc, err := DefaultLocation(testConfig(), clientUUID)
	require.NoError(t, err)
	assert.Equal(t, types.StorageProviderS3, loc.Provider)
	assert.Equal(t, "clients/"+clientUUID.String()+"/", loc.Prefix)

	cfg := testConfig()
	cfg.Bucket = ""
	cfg.SecretAccessKey = ""
	_, err = DefaultLocation(cfg, clientUUID)
	assert.ErrorIs(t, err, ErrInvalidLocation)
	assert.Equal(t, errkind.Validation, errkind.Classify(err))
	assert.Contains(t, err.Error(), "bucket, secret access key")
}

func TestValidateLocation(t *testing.T) {
	loc, err := DefaultLocation(testConfig(), uuid.New())
	require.NoError(t, err)

	bad := loc
	bad.Provider = "GCS"
	assert.ErrorIs(t, ValidateLocation(bad), ErrInvalidLocation)

	for _, prefix := range []string{"", "clients/x", "/clients/x/"} {
		bad = loc
		bad.Prefix = prefix
		assert.ErrorIs(t, ValidateLocation(bad), ErrInvalidLocation, prefix)
	}
}

func TestPresignGet(t *testing.T) {
	ctx := context.Background()
	resultUUID := uuid.New()
	loc, err := DefaultLocation(testConfig(), uuid.New())
	require.NoError(t, err)
	key := ResultKey(loc, resultUUID)
	assert.True(t, strings.HasPrefix(key, loc.Prefix+"results/"))

	raw, err := NewS3Presigner().PresignGet(ctx, loc, key, 5*time.Minute)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Contains(t, u.Host, "basejump-results")
	assert.Contains(t, u.Path, resultUUID.String())
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))
	assert.Contains(t, u.Query().Get("X-Amz-Credential"), "AKIAEXAMPLE")

	loc.Endpoint = "http://localhost:9000"
	raw, err = NewS3Presigner().PresignGet(ctx, loc, key, 0)
	require.NoError(t, err)
	u, err = url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.True(t, strings.HasPrefix(u.Path, "/basejump-results/"))
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))

	_, err = NewS3Presigner().PresignGet(ctx, loc, "clients/other/results/x.csv", time.Minute)
	assert.ErrorIs(t, err, ErrKeyOutsidePrefix)
}
