package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/pawmatch/internal/ai"
	"github.com/spigell/pawmatch/internal/logger"
	"github.com/spigell/pawmatch/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	Source = "gemini"

	defaultMaxLogLength = 200
	defaultHistoryTurns = 6
	maxUtteranceRunes   = 1000
)

type contentGenerator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Model() string
}

// Resolver classifies utterances with a Gemini model.
type Resolver struct {
	generator    contentGenerator
	historyTurns int
	maxLogLen    int
	now          func() time.Time
	logger       *zap.Logger
}

//go:embed prompt.md
var promptTemplate string

func NewResolver(generator contentGenerator, historyTurns, maxLogLength int, log *zap.Logger) *Resolver {
	if historyTurns <= 0 {
		historyTurns = defaultHistoryTurns
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &Resolver{
		generator:    generator,
		historyTurns: historyTurns,
		maxLogLen:    maxLogLength,
		now:          time.Now,
		logger:       logger.WithCommonFields(log, Source, generator.Model()),
	}
}

func (r *Resolver) Resolve(ctx context.Context, utterance string, history []ai.Turn) (*ai.Resolution, error) {
	message := sanitizeUtterance(utterance)
	if message == "" {
		return nil, fmt.Errorf("utterance is empty")
	}

	system := buildPrompt(r.now())
	turns := ai.LastTurns(history, r.historyTurns)

	r.logger.Debug("gemini resolve request",
		zap.Int("history_turns", len(turns)),
		zap.Int("message_length", utf8.RuneCountInString(message)),
		zap.String("message_preview", utils.TruncateForLog(message, r.maxLogLen)),
	)

	raw, err := r.generator.Generate(ctx, Request{
		System:  system,
		Message: message,
		History: turns,
		Schema:  responseSchema(),
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("gemini resolve response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, r.maxLogLen)),
	)

	res, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	res.Raw = raw
	return res, nil
}

func buildPrompt(now time.Time) string {
	intents := make([]string, 0, len(ai.Intents()))
	for _, intent := range ai.Intents() {
		intents = append(intents, "- "+string(intent))
	}

	entities := make([]string, 0, len(ai.EntityNames()))
	for _, name := range ai.EntityNames() {
		entities = append(entities, "- "+name)
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{INTENTS}}", strings.Join(intents, "\n"))
	prompt = strings.ReplaceAll(prompt, "{{ENTITIES}}", strings.Join(entities, "\n"))
	prompt = strings.ReplaceAll(prompt, "{{TODAY}}", now.Format("2006-01-02"))
	return strings.TrimSpace(prompt)
}

func responseSchema() *genai.Schema {
	intents := make([]string, 0, len(ai.Intents()))
	for _, intent := range ai.Intents() {
		intents = append(intents, string(intent))
	}

	entities := make(map[string]*genai.Schema, len(ai.EntityNames()))
	for _, name := range ai.EntityNames() {
		entities[name] = &genai.Schema{Type: genai.TypeString}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"intent":     {Type: genai.TypeString, Enum: intents},
			"entities":   {Type: genai.TypeObject, Properties: entities},
			"confidence": {Type: genai.TypeNumber},
			"rationale":  {Type: genai.TypeString},
		},
		Required: []string{"intent", "confidence"},
	}
}

// sanitizeUtterance flattens the user message and neutralizes role markers.
func sanitizeUtterance(s string) string {
	s = strings.NewReplacer("[", "(", "]", ")", "{{", "(", "}}", ")").Replace(s)
	s = strings.Join(strings.Fields(s), " ")

	if utf8.RuneCountInString(s) > maxUtteranceRunes {
		s = string([]rune(s)[:maxUtteranceRunes])
	}
	return s
}

func parseResponse(raw string) (*ai.Resolution, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	intent, ok := ai.ParseIntent(coerceString(data["intent"]))
	if !ok {
		return nil, fmt.Errorf("parse gemini response: unknown intent %q", coerceString(data["intent"]))
	}

	confidence := coerceFloat(data["confidence"])
	if math.IsNaN(confidence) || confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	entities := map[string]string{}
	if rawEntities, ok := data["entities"].(map[string]any); ok {
		for name, value := range rawEntities {
			if !ai.IsEntity(name) || value == nil {
				continue
			}
			if b, isBool := value.(bool); isBool {
				entities[name] = strconv.FormatBool(b)
				continue
			}
			if text := coerceString(value); text != "" && text != "null" {
				entities[name] = text
			}
		}
	}

	return &ai.Resolution{
		Intent:     intent,
		Entities:   entities,
		Confidence: confidence,
		Rationale:  coerceString(data["rationale"]),
		Source:     Source,
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
