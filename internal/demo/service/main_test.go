package service_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"

	"github.com/basejump-ai/basejump-demo/internal/common/logtrace"
	"github.com/basejump-ai/basejump-demo/internal/demo/config"
	"github.com/basejump-ai/basejump-demo/internal/demo/db"
	"github.com/basejump-ai/basejump-demo/internal/demo/fixture"
	"github.com/basejump-ai/basejump-demo/internal/demo/metrics"
	"github.com/basejump-ai/basejump-demo/internal/demo/service"
	"github.com/basejump-ai/basejump-demo/internal/demo/testutil"
)

var (
	cfg     *config.Config
	pool    *db.Pool
	stages  *fixture.Stages
	fakeEng *testutil.FakeEngine
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "basejump-service")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg = testutil.Config(dir)
	logtrace.InitLogger("error")
	ctx := log.Logger.WithContext(context.Background())

	pool, err = db.NewPool(ctx, cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fakeEng = testutil.NewFakeEngine()
	svc := service.New(cfg, service.Deps{
		Connector: testutil.NewFakeConnector(),
		Indexer:   testutil.NewFakeIndexer(),
		Engine:    fakeEng,
		Metrics:   metrics.New(),
	})
	stages = fixture.New(pool, svc, cfg)

	code := m.Run()
	pool.Close()
	os.RemoveAll(dir)
	os.Exit(code)
}

func testCtx() context.Context {
	return log.Logger.WithContext(context.Background())
}

type fakes struct {
	conn *testutil.FakeConnector
	idx  *testutil.FakeIndexer
	eng  *testutil.FakeEngine
}

// newService returns a service over the shared store with its own collaborators.
func newService(c *config.Config) (*service.Service, fakes) {
	f := fakes{
		conn: testutil.NewFakeConnector(),
		idx:  testutil.NewFakeIndexer(),
		eng:  testutil.NewFakeEngine(),
	}
	return service.New(c, service.Deps{Connector: f.conn, Indexer: f.idx, Engine: f.eng}), f
}

func withSession(t *testing.T, env service.Env, fn func(ctx context.Context, sess db.Session)) {
	t.Helper()
	require.NoError(t, stages.WithSession(testCtx(), env, func(ctx context.Context, sess db.Session) error {
		fn(ctx, sess)
		return nil
	}))
}

func clientEnv(t *testing.T) fixture.ClientEnv {
	t.Helper()
	env, err := stages.ClientInit(testCtx())
	require.NoError(t, err)
	return env
}

func dbEnv(t *testing.T) fixture.DBEnv {
	t.Helper()
	env, err := stages.DBInit(testCtx())
	require.NoError(t, err)
	return env
}

func chatEnv(t *testing.T) fixture.ChatEnv {
	t.Helper()
	env, err := stages.ChatInit(testCtx())
	require.NoError(t, err)
	return env
}

func answeredEnv(t *testing.T) fixture.AnsweredEnv {
	t.Helper()
	env, err := stages.AnswerInit(testCtx())
	require.NoError(t, err)
	return env
}
