package cli

import (
	"bytes"
	"context"
	"regexp"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basejump-ai/basejump-demo/internal/demo/config"
	"github.com/basejump-ai/basejump-demo/internal/demo/db"
	"github.com/basejump-ai/basejump-demo/internal/demo/errkind"
	"github.com/basejump-ai/basejump-demo/internal/demo/service"
	"github.com/basejump-ai/basejump-demo/internal/demo/testutil"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "basejump-demo "+Version+"\n", out)

	out, err = execute(t, "version", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"`+Version+`"}`, out)

	out, err = execute(t, "version", "-o", "yaml")
	require.NoError(t, err)
	assert.Equal(t, "version: "+Version+"\n", out)

	_, err = execute(t, "version", "-o", "xml")
	assert.Error(t, err)
}

func TestRunCmdRequiresEngine(t *testing.T) {
	_, err := execute(t, "run", "--prompt", "hello")
	assert.ErrorContains(t, err, "engine.endpoint")
}

func newPipeline(t *testing.T, cfg *config.Config) (*service.Service, *db.Pool, *testutil.FakeEngine) {
	t.Helper()
	ctx := log.Logger.WithContext(context.Background())
	pool, err := db.NewPool(ctx, cfg.Storage.Driver, cfg.Storage.DSN)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	eng := testutil.NewFakeEngine()
	svc := service.New(cfg, service.Deps{
		Connector: testutil.NewFakeConnector(),
		Indexer:   testutil.NewFakeIndexer(),
		Engine:    eng,
	})
	return svc, pool, eng
}

func TestRunPipeline(t *testing.T) {
	cfg := testutil.Config(t.TempDir())
	svc, pool, eng := newPipeline(t, cfg)
	ctx := log.Logger.WithContext(context.Background())

	summary, err := runPipeline(ctx, cfg, pool, svc, true)
	require.NoError(t, err)
	assert.Equal(t, service.ChatAnswered.String(), summary.Stage)
	assert.Len(t, summary.ClientSecret, 64)
	assert.Equal(t, testutil.FakeAnswer, summary.Answer)
	assert.Equal(t, testutil.FakeSQL, summary.SQLQuery)
	assert.Contains(t, summary.ResultURL, cfg.ObjectStorage.Bucket)

	contexts := eng.Contexts()
	require.Len(t, contexts, 1)
	assert.True(t, contexts[0].Prompt.ReturnVisual)
	assert.Equal(t, cfg.Demo.Prompt, contexts[0].Prompt.Prompt)

	var out bytes.Buffer
	require.NoError(t, printSummary(&out, summary))
	assert.Regexp(t, `(?m)^answer:\s+`+regexp.QuoteMeta(testutil.FakeAnswer)+`$`, out.String())
	assert.Regexp(t, `(?m)^sql:\s+`+regexp.QuoteMeta(testutil.FakeSQL)+`$`, out.String())
}

func TestRunPipelineFailure(t *testing.T) {
	cfg := testutil.Config(t.TempDir())
	cfg.Target.Password = testutil.WrongPassword
	svc, pool, eng := newPipeline(t, cfg)
	ctx := log.Logger.WithContext(context.Background())

	_, err := runPipeline(ctx, cfg, pool, svc, false)
	assert.ErrorIs(t, err, service.ErrConnectDB)
	assert.Equal(t, errkind.Connection, errkind.Classify(err))
	assert.Empty(t, eng.Contexts())

	cfg.Demo.Prompt = ""
	_, err = runPipeline(ctx, cfg, pool, svc, false)
	assert.Error(t, err)
}
