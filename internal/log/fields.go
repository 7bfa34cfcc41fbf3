// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Field names shared by every component so log queries stay stable.
const (
	FieldSessionID = "session_id"
	FieldRequestID = "request_id"
	FieldTraceID   = "trace_id"
	FieldHandleID  = "handle_id"

	FieldEvent     = "event"
	FieldComponent = "component"

	FieldStrategy  = "strategy"
	FieldErrorKind = "error_kind"
	FieldPosition  = "position"
	FieldOldState  = "old_state"
	FieldNewState  = "new_state"

	FieldPath      = "path"
	FieldSourceURL = "source_url"
)
