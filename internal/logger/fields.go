package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldProvider is the structured log field key for the NLU provider name.
	FieldProvider = "nlu_provider"
	// FieldModel is the structured log field key for the NLU model identifier.
	FieldModel = "nlu_model"
	// FieldConversation is the structured log field key for the dialog conversation id.
	FieldConversation = "conversation_id"
	// FieldTag is the structured log field key for the fulfillment tag.
	FieldTag = "tag"
	// FieldCandidate is the structured log field key for a candidate id.
	FieldCandidate = "candidate_id"
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
// A nil logger is replaced with a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CommonFields returns standard zap fields that describe the NLU provider and model.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithCommonFields attaches the NLU provider and model fields to the provided logger.
func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, CommonFields(provider, model)...)
}

// ConversationFields returns the fields identifying a single fulfillment turn.
func ConversationFields(conversationID, tag string) []zap.Field {
	return StringFields(
		StringField{Key: FieldConversation, Value: conversationID},
		StringField{Key: FieldTag, Value: tag},
	)
}

// WithConversation scopes the logger to a conversation turn.
func WithConversation(logger *zap.Logger, conversationID, tag string) *zap.Logger {
	return WithFields(logger, ConversationFields(conversationID, tag)...)
}
