package types

import (
	"fmt"
	"slices"
)

type ClientType string

const (
	ClientTypeDemo     ClientType = "DEMO"
	ClientTypeCustomer ClientType = "CUSTOMER"
	ClientTypeInternal ClientType = "INTERNAL"
)

func (t ClientType) IsValid() bool {
	return slices.Contains([]ClientType{ClientTypeDemo, ClientTypeCustomer, ClientTypeInternal}, t)
}

type UserRole string

const (
	UserRoleOwner  UserRole = "OWNER"
	UserRoleAdmin  UserRole = "ADMIN"
	UserRoleMember UserRole = "MEMBER"
	UserRoleViewer UserRole = "VIEWER"
)

func (r UserRole) IsValid() bool {
	return slices.Contains([]UserRole{UserRoleOwner, UserRoleAdmin, UserRoleMember, UserRoleViewer}, r)
}

type DatabaseType string

const (
	DatabaseTypePostgres DatabaseType = "postgres"
	DatabaseTypeMySQL    DatabaseType = "mysql"
	DatabaseTypeSQLite   DatabaseType = "sqlite"
)

// DriverName is the database/sql driver used to reach a target of this type.
func (d DatabaseType) DriverName() string {
	switch d {
	case DatabaseTypePostgres:
		return "pgx"
	case DatabaseTypeMySQL:
		return "mysql"
	case DatabaseTypeSQLite:
		return "sqlite"
	}
	return ""
}

func (d DatabaseType) DefaultSchema() string {
	switch d {
	case DatabaseTypePostgres:
		return "public"
	case DatabaseTypeSQLite:
		return "main"
	}
	return ""
}

type VectorVendor string

const VectorVendorRedis VectorVendor = "REDIS"

type VectorSourceType string

const (
	VectorSourceChat  VectorSourceType = "CHAT"
	VectorSourceTable VectorSourceType = "TABLE"
)

type MessageRole string

const (
	MessageRoleAssistant MessageRole = "ASSISTANT"
	MessageRoleUser      MessageRole = "USER"
	MessageRoleSystem    MessageRole = "SYSTEM"
)

type ResultType string

const (
	ResultTypeDataset ResultType = "dataset"
	ResultTypeMetric  ResultType = "metric"
	ResultTypeRecord  ResultType = "record"
)

type StorageProvider string

const StorageProviderS3 StorageProvider = "AWS_S3"

const (
	DefaultStorageAlias = "basejump_default"
	DefaultChatName     = "A test chat"
	DefaultChatDesc     = "This is a test chat"
)

// IndexName is the vector index shared by every table and chat record of a client.
func IndexName(clientID int64) string {
	return fmt.Sprintf("basejump_client_%d", clientID)
}
