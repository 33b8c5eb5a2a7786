// Package criteria holds the evaluation-criteria configuration: the scored
// criteria, their point caps, and the typed insight fields the model is asked
// to fill in. The set is an explicit value passed into evaluation, never
// process-global state.
package criteria

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// FieldType is the declared type of an insight field.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldEnum    FieldType = "enum"
	FieldTags    FieldType = "tags"
)

// Criterion is one scored dimension of call quality.
type Criterion struct {
	ID          string  `toml:"id" json:"id"`
	Name        string  `toml:"name" json:"name"`
	Description string  `toml:"description" json:"description,omitempty"`
	MaxScore    float64 `toml:"max_score" json:"max_score"`
}

// InsightField declares one extra typed field the evaluation response must
// carry. Options applies to enum fields only.
type InsightField struct {
	Key         string    `toml:"key" json:"key"`
	Type        FieldType `toml:"type" json:"type"`
	Options     []string  `toml:"options,omitempty" json:"options,omitempty"`
	Description string    `toml:"description,omitempty" json:"description,omitempty"`
}

// Set is a complete criteria configuration.
type Set struct {
	Name     string         `toml:"name" json:"name"`
	Criteria []Criterion    `toml:"criteria" json:"criteria"`
	Insights []InsightField `toml:"insights,omitempty" json:"insights,omitempty"`
}

// Load reads a criteria set from a TOML file.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read criteria file: %w", err)
	}
	var set Set
	if err := toml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse criteria file: %w", err)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

// Default returns the built-in criteria set used when no file is configured.
func Default() *Set {
	return &Set{
		Name: "standard-call-quality",
		Criteria: []Criterion{
			{ID: "greeting", Name: "Greeting & Identification", Description: "Agent greeted the caller and identified themselves and the company", MaxScore: 10},
			{ID: "discovery", Name: "Problem Discovery", Description: "Agent asked clarifying questions and restated the caller's issue", MaxScore: 20},
			{ID: "resolution", Name: "Resolution Quality", Description: "Guidance given was correct and actionable", MaxScore: 30},
			{ID: "professionalism", Name: "Professionalism", Description: "Tone, patience and compliance with hold/transfer etiquette", MaxScore: 20},
			{ID: "closing", Name: "Closing", Description: "Agent summarized next steps and confirmed nothing was left open", MaxScore: 20},
		},
		Insights: []InsightField{
			{Key: "escalation_required", Type: FieldBoolean, Description: "Caller needs a follow-up from a supervisor"},
			{Key: "call_category", Type: FieldEnum, Options: []string{"billing", "onboarding", "technical", "cancellation", "other"}},
			{Key: "topics", Type: FieldTags, Description: "Short topic tags mentioned on the call"},
			{Key: "resolution_likelihood", Type: FieldNumber, Description: "0-1 likelihood the issue is resolved"},
		},
	}
}

// Validate checks structural soundness: unique ids, positive score caps,
// options present on enum fields.
func (s *Set) Validate() error {
	if len(s.Criteria) == 0 {
		return fmt.Errorf("criteria set %q has no criteria", s.Name)
	}
	seen := make(map[string]struct{}, len(s.Criteria))
	for _, c := range s.Criteria {
		id := strings.TrimSpace(c.ID)
		if id == "" {
			return fmt.Errorf("criterion %q is missing an id", c.Name)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate criterion id %q", id)
		}
		seen[id] = struct{}{}
		if c.MaxScore <= 0 {
			return fmt.Errorf("criterion %q needs a positive max_score", id)
		}
	}
	for _, f := range s.Insights {
		if strings.TrimSpace(f.Key) == "" {
			return fmt.Errorf("insight field with empty key")
		}
		switch f.Type {
		case FieldString, FieldNumber, FieldBoolean, FieldTags:
		case FieldEnum:
			if len(f.Options) == 0 {
				return fmt.Errorf("enum insight %q has no options", f.Key)
			}
		default:
			return fmt.Errorf("insight %q has unknown type %q", f.Key, f.Type)
		}
	}
	return nil
}

// ByID finds a criterion by id.
func (s *Set) ByID(id string) (Criterion, bool) {
	for _, c := range s.Criteria {
		if c.ID == id {
			return c, true
		}
	}
	return Criterion{}, false
}

// InsightByKey finds an insight declaration by key.
func (s *Set) InsightByKey(key string) (InsightField, bool) {
	for _, f := range s.Insights {
		if f.Key == key {
			return f, true
		}
	}
	return InsightField{}, false
}

// CriterionCaps maps criterion ids to their score caps.
func (s *Set) CriterionCaps() map[string]float64 {
	caps := make(map[string]float64, len(s.Criteria))
	for _, c := range s.Criteria {
		caps[c.ID] = c.MaxScore
	}
	return caps
}

// MaxScore is the sum of all criterion caps.
func (s *Set) MaxScore() float64 {
	var total float64
	for _, c := range s.Criteria {
		total += c.MaxScore
	}
	return total
}

// ClampScore bounds a raw score to [0, max].
func ClampScore(score, max float64) float64 {
	return math.Min(math.Max(score, 0), max)
}

// ClampUnit bounds a confidence-style value to [0, 1].
func ClampUnit(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}

// Percentage computes round(100 * total / max); 0 when max is 0.
func Percentage(total, max float64) int {
	if max <= 0 {
		return 0
	}
	return int(math.Round(100 * total / max))
}

// CoerceValue normalizes a decoded JSON value against the declared field
// type. It returns the canonical representation (string, float64, bool or
// []string) or an error describing the mismatch.
func (f InsightField) CoerceValue(v any) (any, error) {
	switch f.Type {
	case FieldString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("insight %q: expected string, got %T", f.Key, v)
		}
		return s, nil
	case FieldNumber:
		n, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("insight %q: expected number, got %T", f.Key, v)
		}
		return n, nil
	case FieldBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("insight %q: expected boolean, got %T", f.Key, v)
		}
		return b, nil
	case FieldEnum:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("insight %q: expected enum string, got %T", f.Key, v)
		}
		s = strings.ToLower(strings.TrimSpace(s))
		for _, opt := range f.Options {
			if strings.EqualFold(opt, s) {
				return opt, nil
			}
		}
		return nil, fmt.Errorf("insight %q: %q is not one of %v", f.Key, s, f.Options)
	case FieldTags:
		switch tags := v.(type) {
		case []string:
			return tags, nil
		case []any:
			out := make([]string, 0, len(tags))
			for _, t := range tags {
				s, ok := t.(string)
				if !ok {
					return nil, fmt.Errorf("insight %q: tag %v is not a string", f.Key, t)
				}
				out = append(out, s)
			}
			return out, nil
		default:
			return nil, fmt.Errorf("insight %q: expected tag list, got %T", f.Key, v)
		}
	}
	return nil, fmt.Errorf("insight %q: unknown type %q", f.Key, f.Type)
}
