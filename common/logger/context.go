package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// A cycle sets CycleID once and every publish, ledger write and agent turn below it
// inherits the field without passing it around.
type LogFields struct {
	CycleID   *int64  // Automation cycle ID (snowflake)
	RunID     *int64  // Discussion run ID (snowflake)
	ArticleID *int64  // Board article the work is attached to
	SourceKey *string // Canonical link of the source item
	Agent     *string // Agent handle taking the current turn
	Component string  // Component name, e.g. "agora.discussion.scheduler"
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.CycleID != nil {
		result.CycleID = new.CycleID
	}
	if new.RunID != nil {
		result.RunID = new.RunID
	}
	if new.ArticleID != nil {
		result.ArticleID = new.ArticleID
	}
	if new.SourceKey != nil {
		result.SourceKey = new.SourceKey
	}
	if new.Agent != nil {
		result.Agent = new.Agent
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{ArticleID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate shortens s to at most maxLen runes, appending "..." if truncated.
// Operates on runes so multi-byte headlines are never cut mid-character.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
