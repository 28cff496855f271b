package models

import (
	"reflect"
	"strings"
)

// ExecutionContext carries the mutable state of one pipeline run. Values is
// the flat bag of data that templates and conditions resolve against.
type ExecutionContext struct {
	ID          string         `json:"id"`
	ServiceType string         `json:"service_type"`
	Values      map[string]any `json:"values"`
}

func NewExecutionContext(id, serviceType string, seed map[string]any) *ExecutionContext {
	values := make(map[string]any, len(seed))
	for key, value := range seed {
		values[key] = value
	}

	return &ExecutionContext{
		ID:          id,
		ServiceType: serviceType,
		Values:      values,
	}
}

// Get resolves a dotted path against Values. A final "length" segment on a
// string, slice or map yields its element count.
func (c *ExecutionContext) Get(path string) (any, bool) {
	segments := strings.Split(path, ".")

	var current any = c.Values

	for i, segment := range segments {
		if segment == "length" && i == len(segments)-1 {
			if size, ok := lengthOf(current); ok {
				return size, true
			}
		}

		asMap, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = asMap[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

func lengthOf(value any) (int, bool) {
	switch typed := value.(type) {
	case string:
		return len(typed), true
	case []any:
		return len(typed), true
	case map[string]any:
		return len(typed), true
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}

	return 0, false
}

func (c *ExecutionContext) Set(key string, value any) {
	if c.Values == nil {
		c.Values = make(map[string]any)
	}

	c.Values[key] = value
}

func (c *ExecutionContext) Merge(update map[string]any) {
	for key, value := range update {
		c.Set(key, value)
	}
}

// Snapshot returns a shallow copy of Values, safe to attach to events.
func (c *ExecutionContext) Snapshot() map[string]any {
	copied := make(map[string]any, len(c.Values))
	for key, value := range c.Values {
		copied[key] = value
	}

	return copied
}
