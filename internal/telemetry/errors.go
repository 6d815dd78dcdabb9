package telemetry

import "codeberg.org/mutker/powerctl/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrInvalidDBPath = errors.ErrorCode("history_invalid_db_path")

	// Schema Errors
	ErrSchemaInitFailed       = errors.ErrorCode("history_schema_init_failed")
	ErrSchemaValidationFailed = errors.ErrorCode("history_schema_validation_failed")
	ErrSchemaMigrationFailed  = errors.ErrorCode("history_schema_migration_failed")
	ErrTransactionFailed      = errors.ErrorCode("history_transaction_failed")

	// Storage Errors
	ErrStorageAccess = errors.ErrorCode("history_storage_access_failed")
	ErrStorageInit   = errors.ErrInitTelemetry
	ErrStorageClose  = errors.ErrCloseTelemetry

	// Collection Errors
	ErrCollect       = errors.ErrCollectTelemetry
	ErrInvalidRecord = errors.ErrorCode("history_invalid_record")
	ErrClosed        = errors.ErrorCode("history_closed")

	// Operation Errors
	ErrOperationTimeout = errors.ErrTimeout
)
