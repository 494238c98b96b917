// Package featureflags evaluates FEATURE_FLAGS rules such as "ml_service=on,ai_generation=25%".
package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Known flags.
const (
	// MLService routes sentiment, generation and image calls to the external ML service.
	MLService = "ml_service"
	// AIGeneration exposes the /ai endpoints.
	AIGeneration = "ai_generation"
	// SearchIndex enables the Meilisearch post index.
	SearchIndex = "search_index"
)

type rule struct {
	raw     string
	percent int // 0..100; on=100, off=0
	valid   bool
}

func parseRule(value string) rule {
	r := rule{raw: value}
	switch value {
	case "on", "true", "1":
		r.percent, r.valid = 100, true
	case "off", "false", "0":
		r.valid = true
	default:
		if pctRaw, ok := strings.CutSuffix(value, "%"); ok {
			if pct, err := strconv.Atoi(pctRaw); err == nil {
				r.percent = min(max(pct, 0), 100)
				r.valid = true
			}
		}
	}
	return r
}

// Manager holds parsed flag rules.
type Manager struct {
	rules map[string]rule
}

// NewManager parses a comma-separated key=value list. Malformed pairs are ignored.
func NewManager(raw string) *Manager {
	rules := make(map[string]rule)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		rules[key] = parseRule(value)
	}
	return &Manager{rules: rules}
}

// Enabled reports whether name is on for userID. Percentage rules bucket users
// deterministically and never enable anonymous callers.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	r, ok := m.rules[normalize(name)]
	if !ok || !r.valid {
		return false
	}
	switch {
	case r.percent >= 100:
		return true
	case r.percent <= 0, userID == 0:
		return false
	}
	return rolloutBucket(name, userID) < r.percent
}

// EnabledGlobally reports whether name is fully on, independent of any user.
func (m *Manager) EnabledGlobally(name string) bool {
	if m == nil {
		return false
	}
	r, ok := m.rules[normalize(name)]
	return ok && r.valid && r.percent >= 100
}

// Raw returns a copy of configured flag values.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.rules))
	for k, r := range m.rules {
		out[k] = r.raw
	}
	return out
}

// Snapshot returns evaluated flag status for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.rules))
	for name := range m.rules {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s:%d", normalize(name), userID)
	return int(h.Sum32() % 100)
}
