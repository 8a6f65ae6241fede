package fallback

import (
	"encoding/json"
	"strconv"
	"strings"

	"portrait-studio-server/modules/common/model"
)

// SafeString returns a trimmed string or the provided fallback.
func SafeString(value interface{}, fallback string) string {
	if s, ok := value.(string); ok {
		s = strings.TrimSpace(s)
		if s != "" {
			return s
		}
	}
	return fallback
}

// SafeInt converts common number shapes into int with a fallback.
func SafeInt(value interface{}, fallback int) int {
	switch v := value.(type) {
	case float64:
		if v > 0 {
			return int(v)
		}
	case float32:
		if v > 0 {
			return int(v)
		}
	case int:
		if v > 0 {
			return v
		}
	case int64:
		if v > 0 {
			return int(v)
		}
	case json.Number:
		if n, err := strconv.Atoi(v.String()); err == nil && n > 0 {
			return n
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// SafeBool accepts JSON booleans and "true"/"1" strings.
func SafeBool(value interface{}, fallback bool) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	case float64:
		return v != 0
	}
	return fallback
}

// SafeAspectRatio provides a sane default aspect ratio for portraits.
func SafeAspectRatio(value interface{}) string {
	return SafeString(value, "3:4")
}

// ParseJobInput reads the loosely typed job_input_data JSONB into JobInputData,
// tolerating string-encoded numbers and missing fields.
func ParseJobInput(raw map[string]interface{}) model.JobInputData {
	if raw == nil {
		raw = map[string]interface{}{}
	}
	return model.JobInputData{
		UserID:         SafeString(raw["userId"], ""),
		SourceAttachID: SafeInt(raw["sourceAttachId"], 0),
		Specialization: SafeString(raw["specialization"], ""),
		Setting:        SafeString(raw["setting"], "studio"),
		Style:          SafeString(raw["style"], "formal"),
		Gender:         SafeString(raw["gender"], "unisex"),
		SpecKey:        SafeString(raw["specKey"], ""),
		AspectRatio:    SafeAspectRatio(raw["aspectRatio"]),
		Variations:     SafeBool(raw["variations"], false),
	}
}

// ToJobInputMap converts typed input back to the JSONB shape stored on the job row.
func ToJobInputMap(in model.JobInputData) map[string]interface{} {
	return map[string]interface{}{
		"userId":         in.UserID,
		"sourceAttachId": in.SourceAttachID,
		"specialization": in.Specialization,
		"setting":        in.Setting,
		"style":          in.Style,
		"gender":         in.Gender,
		"specKey":        in.SpecKey,
		"aspectRatio":    in.AspectRatio,
		"variations":     in.Variations,
	}
}
