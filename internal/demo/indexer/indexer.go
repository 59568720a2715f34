// Package indexer builds the table index a reasoning engine reads to plan queries against a
// client data source.
package indexer

import (
	"context"
	"slices"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/basejump-ai/basejump-demo/internal/common/apperrors"
	"github.com/basejump-ai/basejump-demo/internal/demo/connector"
	"github.com/basejump-ai/basejump-demo/pkg/types"
)

// Indexing failures are not part of the pipeline's own error families; callers pass them on
// untouched.
var (
	ErrIndex         apperrors.Error = apperrors.New("unable to index data source")
	ErrIndexStore    apperrors.Error = ErrIndex.New("unable to write index")
	ErrIndexNotFound apperrors.Error = ErrIndex.New("index entry not found")
	ErrManifest      apperrors.Error = ErrIndex.New("corrupt index entry")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type IndexRequest struct {
	ClientID             int64
	IndexName            string
	DatabaseUUID         uuid.UUID
	DatabaseType         types.DatabaseType
	Schemas              []string
	IncludeDefaultSchema bool
	IncludeViews         bool
	Target               connector.Target
}

// IndexHandle locates a data source's entry in the client index.
type IndexHandle struct {
	Vendor       types.VectorVendor `json:"vendor"`
	IndexName    string             `json:"index_name"`
	DatabaseUUID uuid.UUID          `json:"database_uuid"`
	Tables       int                `json:"tables"`
}

// Manifest is the indexed description of one data source.
type Manifest struct {
	DatabaseUUID uuid.UUID         `json:"database_uuid"`
	DatabaseType string            `json:"database_type"`
	Schemas      []string          `json:"schemas"`
	Tables       []connector.Table `json:"tables"`
	IndexedAt    time.Time         `json:"indexed_at"`
}

type Indexer interface {
	Index(ctx context.Context, req IndexRequest) (*IndexHandle, error)
}

// schemas returns the schema set to index, adding the engine default when requested.
func (r IndexRequest) schemas() []string {
	schemas := slices.Clone(r.Schemas)
	if def := r.DatabaseType.DefaultSchema(); r.IncludeDefaultSchema && def != "" && !slices.Contains(schemas, def) {
		schemas = append(schemas, def)
	}
	return schemas
}

// BuildManifest reads the tables of the requested schemas from the target.
func BuildManifest(ctx context.Context, req IndexRequest) (*Manifest, error) {
	schemas := req.schemas()
	tables, err := req.Target.ListTables(ctx, schemas, req.IncludeViews)
	if err != nil {
		return nil, err
	}
	return &Manifest{
		DatabaseUUID: req.DatabaseUUID,
		DatabaseType: string(req.DatabaseType),
		Schemas:      schemas,
		Tables:       tables,
		IndexedAt:    time.Now().UTC(),
	}, nil
}

func encodeManifest(m *Manifest) ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, b), nil
}

func decodeManifest(data []byte) (*Manifest, error) {
	b, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, ErrManifest.Err(err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, ErrManifest.Err(err)
	}
	return &m, nil
}
