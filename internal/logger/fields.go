package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldBackend is the structured log field key for the letter generation backend.
	FieldBackend = "letter_backend"
	// FieldModel is the structured log field key for the generation model identifier.
	FieldModel = "letter_model"
)

const (
	FieldJobID    = "job_id"
	FieldCompany  = "company"
	FieldStrategy = "strategy"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// If the logger is nil or no fields are supplied, the input logger is returned
// unchanged, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CommonFields returns the fields describing the generation backend and model.
// Empty values are omitted.
func CommonFields(backend, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldBackend, Value: backend},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithCommonFields attaches the backend fields to the provided logger.
// A nil logger is replaced by a no-op logger.
func WithCommonFields(logger *zap.Logger, backend, model string) *zap.Logger {
	fields := CommonFields(backend, model)
	return WithFields(logger, fields...)
}

// PostingFields identifies a job posting in log entries.
func PostingFields(id, company string) []zap.Field {
	return StringFields(
		StringField{Key: FieldJobID, Value: id},
		StringField{Key: FieldCompany, Value: company},
	)
}
