package store

import (
	"strings"
	"sync"
)

// ModelCatalog holds the priority-ordered model identifiers and the sticky
// "currently preferred" one. Iteration order never changes: fallback always
// re-walks the static list from the top; the preferred entry only decides
// which model name is displayed and whether a success counts as a promotion.
type ModelCatalog struct {
	mu        sync.RWMutex
	models    []string
	preferred string
}

func NewModelCatalog(models []string) *ModelCatalog {
	list := make([]string, len(models))
	copy(list, models)

	c := &ModelCatalog{models: list}
	if len(list) > 0 {
		c.preferred = list[0]
	}
	return c
}

// List returns the static priority order.
func (c *ModelCatalog) List() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, len(c.models))
	copy(out, c.models)
	return out
}

// Preferred returns the sticky preferred model identifier.
func (c *ModelCatalog) Preferred() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.preferred
}

// Promote marks model as preferred. Returns true when this changed anything;
// unknown identifiers are ignored.
func (c *ModelCatalog) Promote(model string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	known := false
	for _, m := range c.models {
		if m == model {
			known = true
			break
		}
	}
	if !known || c.preferred == model {
		return false
	}
	c.preferred = model
	return true
}

// ImageCapable reports whether image parts may be attached when calling this
// model. This is a substring heuristic on the identifier, not a guarantee.
func ImageCapable(model string) bool {
	return strings.Contains(model, "1.5") ||
		strings.Contains(model, "2.0") ||
		strings.Contains(model, "2.5")
}

// DisplayName renders an identifier like "gemini-2.5-flash" as
// "Gemini 2.5 Flash" for notices and the model badge.
func DisplayName(model string) string {
	parts := strings.Split(model, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
