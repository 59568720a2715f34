package logtrace

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger sets the global logger. An unknown level falls back to info.
func InitLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// WithClient returns a context whose logger carries the client id.
func WithClient(ctx context.Context, clientID int64) context.Context {
	l := log.Ctx(ctx).With().Int64("client_id", clientID).Logger()
	return l.WithContext(ctx)
}

// Ctx returns a context that carries the global logger, unless one is already attached.
func Ctx(ctx context.Context) context.Context {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return ctx
	}
	return log.Logger.WithContext(ctx)
}
