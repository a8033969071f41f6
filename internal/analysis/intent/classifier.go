package intent

import (
	"strings"
)

// Category 表示来访者被分配到的科室。
type Category string

const (
	General      Category = "general"
	Emergency    Category = "emergency"
	MentalHealth Category = "mental_health"
)

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{General, Emergency, MentalHealth}
}

// Ward returns the slug persisted alongside intake records.
func (c Category) Ward() string {
	return string(c) + "_ward"
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	switch c {
	case General, Emergency, MentalHealth:
		return true
	default:
		return false
	}
}

// ParseCategory accepts a category ("emergency") or its ward slug ("emergency_ward").
func ParseCategory(raw string) (Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.TrimSuffix(normalized, "_ward")
	c := Category(normalized)
	if !c.Valid() {
		return "", false
	}
	return c, true
}

var emergencyKeywords = []string{
	"emergency", "urgent", "accident", "injured", "bleeding", "chest pain",
	"heart attack", "stroke", "unconscious", "severe pain", "trauma",
}

var mentalHealthKeywords = []string{
	"mental", "depression", "anxiety", "anxious", "suicidal", "therapy", "psychiatrist",
	"psychologist", "counseling", "panic", "stress", "emotional", "psychiatric",
}

// Classify 根据关键词判断消息所属科室，急诊优先于心理健康。
func Classify(text string) Category {
	normalized := strings.ToLower(text)
	if containsAny(normalized, emergencyKeywords) {
		return Emergency
	}
	if containsAny(normalized, mentalHealthKeywords) {
		return MentalHealth
	}
	return General
}

func containsAny(text string, keywords []string) bool {
	for _, word := range keywords {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
