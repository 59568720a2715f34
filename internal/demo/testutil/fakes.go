// Package testutil provides in-memory collaborators and configuration for tests of the
// provisioning pipeline.
package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/basejump-ai/basejump-demo/internal/demo/connector"
	"github.com/basejump-ai/basejump-demo/internal/demo/engine"
	"github.com/basejump-ai/basejump-demo/internal/demo/indexer"
	"github.com/basejump-ai/basejump-demo/pkg/types"
)

// WrongPassword is rejected by FakeConnector as bad credentials.
const WrongPassword = "wrong-password"

// FakeConnector accepts any login except WrongPassword and serves a fixed catalog.
type FakeConnector struct {
	mu      sync.Mutex
	calls   int
	Schemas []string
	Tables  []connector.Table
	// Err, when set, is returned by every Connect.
	Err error
}

func NewFakeConnector() *FakeConnector {
	return &FakeConnector{
		Schemas: []string{"public", "sales", "connect1"},
		Tables: []connector.Table{
			{Schema: "public", Name: "accounts", Columns: []connector.Column{{Name: "id", Type: "integer"}, {Name: "name", Type: "text"}}},
			{Schema: "sales", Name: "orders", Columns: []connector.Column{{Name: "id", Type: "integer"}, {Name: "amount", Type: "numeric"}}},
		},
	}
}

func (c *FakeConnector) Connect(_ context.Context, p connector.Params) (connector.Target, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.Err != nil {
		return nil, c.Err
	}
	if p.Password == WrongPassword {
		return nil, connector.ErrConnectDB.Err(errors.Errorf("password authentication failed for user %q", p.Username))
	}
	return &fakeTarget{schemas: c.Schemas, tables: c.Tables}, nil
}

// Calls is the number of Connect calls made so far.
func (c *FakeConnector) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fakeTarget struct {
	schemas []string
	tables  []connector.Table
}

func (t *fakeTarget) ListSchemas(context.Context) ([]string, error) {
	return t.schemas, nil
}

func (t *fakeTarget) ListTables(_ context.Context, schemas []string, includeViews bool) ([]connector.Table, error) {
	var tables []connector.Table
	for _, tbl := range t.tables {
		if tbl.IsView && !includeViews {
			continue
		}
		for _, s := range schemas {
			if tbl.Schema == s {
				tables = append(tables, tbl)
			}
		}
	}
	return tables, nil
}

func (t *fakeTarget) Close() error { return nil }

// FakeIndexer builds manifests in memory.
type FakeIndexer struct {
	mu        sync.Mutex
	Manifests map[uuid.UUID]*indexer.Manifest
	Err       error
}

func NewFakeIndexer() *FakeIndexer {
	return &FakeIndexer{Manifests: make(map[uuid.UUID]*indexer.Manifest)}
}

func (x *FakeIndexer) Index(ctx context.Context, req indexer.IndexRequest) (*indexer.IndexHandle, error) {
	if x.Err != nil {
		return nil, x.Err
	}
	m, err := indexer.BuildManifest(ctx, req)
	if err != nil {
		return nil, err
	}
	x.mu.Lock()
	x.Manifests[req.DatabaseUUID] = m
	x.mu.Unlock()
	return &indexer.IndexHandle{
		Vendor:       types.VectorVendorRedis,
		IndexName:    req.IndexName,
		DatabaseUUID: req.DatabaseUUID,
		Tables:       len(m.Tables),
	}, nil
}

func (x *FakeIndexer) Count() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.Manifests)
}

const (
	FakeAnswer = "There are 2 accounts."
	FakeSQL    = "SELECT count(*) FROM public.accounts"
)

// FakeEngine answers every prompt with FakeAnswer and a query result for FakeSQL.
type FakeEngine struct {
	mu       sync.Mutex
	contexts []*engine.AgentContext
	results  []*engine.QueryResult
	Err      error
	// NoQuery makes the engine answer without running a query.
	NoQuery bool
	// Untyped leaves the result UUID and type of the query result unset.
	Untyped bool
}

func NewFakeEngine() *FakeEngine {
	return &FakeEngine{}
}

func (e *FakeEngine) Prompt(_ context.Context, ac *engine.AgentContext) (*engine.Result, error) {
	e.mu.Lock()
	e.contexts = append(e.contexts, ac)
	e.mu.Unlock()
	if e.Err != nil {
		return nil, e.Err
	}
	res := &engine.Result{Content: FakeAnswer}
	if e.NoQuery {
		return res, nil
	}
	res.QueryResult = &engine.QueryResult{
		SQLQuery:   FakeSQL,
		ResultType: types.ResultTypeMetric,
		ResultUUID: uuid.New(),
		VisualJSON: []byte(`{"mark":"text"}`),
	}
	if e.Untyped {
		res.QueryResult.ResultType, res.QueryResult.ResultUUID = "", uuid.Nil
	} else if ac.Storage != nil {
		res.QueryResult.ObjectKey = ac.Storage.Prefix + "results/" + res.QueryResult.ResultUUID.String() + ".csv"
	}
	e.mu.Lock()
	e.results = append(e.results, res.QueryResult)
	e.mu.Unlock()
	return res, nil
}

// Results returns the query results handed out so far, as the engine returned them.
func (e *FakeEngine) Results() []*engine.QueryResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*engine.QueryResult(nil), e.results...)
}

// Contexts returns the agent contexts received so far.
func (e *FakeEngine) Contexts() []*engine.AgentContext {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*engine.AgentContext(nil), e.contexts...)
}
