package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrNotImplemented  ErrorCode = "not_implemented"
	ErrUnavailable     ErrorCode = "service_unavailable"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrMissingConfig   ErrorCode = "missing_configuration"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrInvalidInterval ErrorCode = "invalid_interval"
	ErrInvalidBackend  ErrorCode = "invalid_backend_address"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"
	ErrAlreadyRunning ErrorCode = "already_running"

	// Resource errors
	ErrResourceBusy      ErrorCode = "resource_busy"
	ErrResourceNotFound  ErrorCode = "resource_not_found"
	ErrResourceExhausted ErrorCode = "resource_exhausted"

	// Engine invariants
	ErrMissingSetting   ErrorCode = "missing_setting"
	ErrUnhandledAction  ErrorCode = "unhandled_action"
	ErrEngineClosed     ErrorCode = "engine_closed"
	ErrUnknownHook      ErrorCode = "unknown_lifecycle_hook"
	ErrInvalidLimits    ErrorCode = "invalid_limits"
	ErrReadLimitsFile   ErrorCode = "read_limits_file_failed"
	ErrReloadFailed     ErrorCode = "reload_failed"
	ErrRefreshFailed    ErrorCode = "refresh_failed"
	ErrDispatchFailed   ErrorCode = "dispatch_failed"
	ErrInvalidOperation ErrorCode = "invalid_operation"

	// Remote authority errors
	ErrRemoteCall      ErrorCode = "remote_call_failed"
	ErrUnknownCall     ErrorCode = "unknown_remote_call"
	ErrCallArity       ErrorCode = "remote_call_arity_mismatch"
	ErrDecodeResult    ErrorCode = "remote_result_decode_failed"
	ErrTransport       ErrorCode = "remote_transport_failed"
	ErrRemoteStatus    ErrorCode = "remote_status_error"
	ErrMismatchedID    ErrorCode = "remote_response_id_mismatch"
	ErrOperationFailed ErrorCode = "operation_failed"

	// Application errors
	ErrInitApp  ErrorCode = "init_app_failed"
	ErrMainLoop ErrorCode = "main_loop_failed"

	// Telemetry errors
	ErrInitTelemetry    ErrorCode = "init_telemetry_failed"
	ErrCollectTelemetry ErrorCode = "collect_telemetry_failed"
	ErrCloseTelemetry   ErrorCode = "close_telemetry_failed"
	ErrTimeout          ErrorCode = "operation_timeout"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:          "Internal error occurred",
	ErrInvalidArgument:   "Invalid argument provided",
	ErrNotImplemented:    "Operation not implemented",
	ErrUnavailable:       "Service unavailable",
	ErrInvalidConfig:     "Invalid configuration",
	ErrMissingConfig:     "Missing configuration",
	ErrBindFlags:         "Failed to bind flags",
	ErrReadConfig:        "Failed to read configuration",
	ErrInvalidInterval:   "Invalid interval value",
	ErrInvalidBackend:    "Invalid backend address",
	ErrInvalidLogLevel:   "Invalid log level",
	ErrInitFailed:        "Initialization failed",
	ErrShutdownFailed:    "Shutdown failed",
	ErrAlreadyRunning:    "Another instance is already running",
	ErrResourceBusy:      "Resource is busy",
	ErrResourceNotFound:  "Resource not found",
	ErrResourceExhausted: "Resource exhausted",
	ErrMissingSetting:    "Required setting was never populated",
	ErrUnhandledAction:   "Unhandled action",
	ErrEngineClosed:      "Engine is closed",
	ErrUnknownHook:       "Unknown lifecycle hook",
	ErrInvalidLimits:     "Invalid capability limits",
	ErrReadLimitsFile:    "Failed to read limits file",
	ErrReloadFailed:      "Full reload failed",
	ErrRefreshFailed:     "Periodic refresh failed",
	ErrDispatchFailed:    "Dispatch failed",
	ErrInvalidOperation:  "Invalid operation",
	ErrRemoteCall:        "Remote call failed",
	ErrUnknownCall:       "Unknown remote call",
	ErrCallArity:         "Remote call argument count mismatch",
	ErrDecodeResult:      "Failed to decode remote result",
	ErrTransport:         "Remote transport failed",
	ErrRemoteStatus:      "Remote returned an error status",
	ErrMismatchedID:      "Remote response id does not match request",
	ErrOperationFailed:   "Operation failed",
	ErrInitApp:           "Failed to initialize application",
	ErrMainLoop:          "Error in main loop",
	ErrInitTelemetry:     "Failed to initialize telemetry",
	ErrCollectTelemetry:  "Failed to collect telemetry data",
	ErrCloseTelemetry:    "Failed to close telemetry connection",
	ErrTimeout:           "Operation timed out",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
