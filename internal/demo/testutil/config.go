package testutil

import (
	"path/filepath"

	"github.com/basejump-ai/basejump-demo/internal/demo/config"
	"github.com/basejump-ai/basejump-demo/internal/demo/db/dbmanager"
	"github.com/basejump-ai/basejump-demo/internal/demo/schemaname"
)

// Config returns a complete configuration whose metadata store is a SQLite file in dir.
func Config(dir string) *config.Config {
	cfg := config.Default()
	cfg.LogLevel = "debug"
	cfg.Storage = config.StorageConfig{
		Driver: dbmanager.DriverSQLite,
		DSN:    filepath.Join(dir, "basejump-test.db"),
	}
	cfg.Target = config.TargetConfig{
		DatabaseType:         "postgres",
		Host:                 "localhost",
		Port:                 5432,
		DatabaseName:         "demo",
		Username:             "demo_reader",
		Password:             "demo-password",
		Schemas:              []schemaname.Schema{{Name: "sales"}},
		IncludeDefaultSchema: true,
		Description:          "demo data source",
	}
	cfg.ObjectStorage = config.ObjectStorageConfig{
		Region:          "us-east-2",
		Bucket:          "basejump-test",
		AccessKey:       "AKIATESTKEY",
		SecretAccessKey: "test-secret-access-key",
	}
	cfg.Secrets.MasterKey = "test-master-key"
	cfg.Models = config.ModelsConfig{
		Embedding: config.ModelInfo{Name: "text-embedding-3-small"},
		Small:     config.ModelInfo{Name: "gpt-4o-mini"},
		Large:     config.ModelInfo{Name: "gpt-4o"},
	}
	cfg.Demo = config.DemoConfig{
		ClientName: "Test Client",
		TeamName:   "Test Team",
		Username:   "test_user",
		Email:      "test_user@example.com",
		Prompt:     "How many accounts are there?",
	}
	return cfg
}
