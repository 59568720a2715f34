package logtrace

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestInitLogger(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	InitLogger("debug")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	InitLogger("nonsense")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestCtx(t *testing.T) {
	ctx := Ctx(context.Background())
	assert.NotNil(t, zerolog.Ctx(ctx))
	assert.Equal(t, ctx, Ctx(ctx))

	ctx = WithClient(ctx, 42)
	assert.NotNil(t, zerolog.Ctx(ctx))
}
