// Package template resolves {{path}} placeholders and transition conditions
// against an execution context.
package template

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/gardenlabs/bazaar/pkg/models"
)

var tokenRe = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// Interpolate resolves templates in value recursively. Maps and slices are
// rebuilt; strings go through InterpolateString; everything else passes
// through unchanged.
func Interpolate(value any, ctx *models.ExecutionContext) any {
	switch typed := value.(type) {
	case string:
		return InterpolateString(typed, ctx)
	case map[string]any:
		resolved := make(map[string]any, len(typed))
		for key, item := range typed {
			resolved[key] = Interpolate(item, ctx)
		}

		return resolved
	case []any:
		resolved := make([]any, len(typed))
		for i, item := range typed {
			resolved[i] = Interpolate(item, ctx)
		}

		return resolved
	default:
		return value
	}
}

// InterpolateString resolves placeholders in input. When the whole string is
// a single {{path}} token, the typed context value is returned as-is so
// numbers and objects survive interpolation. Mixed content falls back to
// string substitution.
func InterpolateString(input string, ctx *models.ExecutionContext) any {
	trimmed := strings.TrimSpace(input)

	if match := tokenRe.FindStringSubmatch(trimmed); match != nil && match[0] == trimmed {
		path := strings.TrimSpace(match[1])

		value, ok := ctx.Get(path)
		if !ok {
			slog.Warn("template path not found", "path", path, "execution_id", ctx.ID)

			return nil
		}

		return value
	}

	return tokenRe.ReplaceAllStringFunc(input, func(token string) string {
		path := strings.TrimSpace(tokenRe.FindStringSubmatch(token)[1])

		value, ok := ctx.Get(path)
		if !ok {
			slog.Warn("template path not found", "path", path, "execution_id", ctx.ID)

			return ""
		}

		return stringify(value)
	})
}

func stringify(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	case bool:
		return strconv.FormatBool(typed)
	case map[string]any, []any:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprintf("%v", typed)
		}

		return string(encoded)
	default:
		return fmt.Sprintf("%v", typed)
	}
}

// Evaluate decides whether a transition condition holds. The grammar is
// deliberately small: numeric comparisons, string (in)equality, boolean
// literals, && and || conjunctions, negation and bare path truthiness.
// An empty condition or "always" is unconditionally true.
func Evaluate(condition string, ctx *models.ExecutionContext) bool {
	condition = strings.TrimSpace(condition)

	if condition == "" || condition == "always" {
		return true
	}

	for _, op := range []string{">=", "<=", ">", "<"} {
		if !strings.Contains(condition, op) {
			continue
		}

		parts := strings.SplitN(condition, op, 2)

		left, leftOK := numeric(parts[0], ctx)
		right, rightOK := numeric(parts[1], ctx)
		if !leftOK || !rightOK {
			// Sides that do not parse numerically fall through so a
			// compound like "a > 1 && b < 2" reaches the && branch.
			break
		}

		switch op {
		case ">=":
			return left >= right
		case "<=":
			return left <= right
		case ">":
			return left > right
		default:
			return left < right
		}
	}

	if strings.Contains(condition, "===") {
		parts := strings.SplitN(condition, "===", 2)

		return resolveOperand(parts[0], ctx) == resolveOperand(parts[1], ctx)
	}

	if strings.Contains(condition, "!==") {
		parts := strings.SplitN(condition, "!==", 2)

		return resolveOperand(parts[0], ctx) != resolveOperand(parts[1], ctx)
	}

	if condition == "true" {
		return true
	}

	if condition == "false" {
		return false
	}

	if strings.Contains(condition, "&&") {
		for _, part := range strings.Split(condition, "&&") {
			if !Evaluate(part, ctx) {
				return false
			}
		}

		return true
	}

	if strings.Contains(condition, "||") {
		for _, part := range strings.Split(condition, "||") {
			if Evaluate(part, ctx) {
				return true
			}
		}

		return false
	}

	if match := tokenRe.FindStringSubmatch(condition); match != nil && match[0] == condition {
		value, _ := ctx.Get(strings.TrimSpace(match[1]))

		return Truthy(value)
	}

	if strings.HasPrefix(condition, "!") {
		return !Evaluate(condition[1:], ctx)
	}

	value, _ := ctx.Get(condition)

	return Truthy(value)
}

func numeric(operand string, ctx *models.ExecutionContext) (float64, bool) {
	resolved := InterpolateString(strings.TrimSpace(operand), ctx)

	switch typed := resolved.(type) {
	case float64:
		return typed, true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0, false
		}

		return parsed, true
	default:
		return 0, false
	}
}

func resolveOperand(operand string, ctx *models.ExecutionContext) string {
	resolved := InterpolateString(strings.TrimSpace(operand), ctx)

	return strings.Trim(stringify(resolved), `"'`)
}

// Truthy follows loose-boolean semantics: nil, false, zero and empty
// containers are false, everything else true.
func Truthy(value any) bool {
	switch typed := value.(type) {
	case nil:
		return false
	case bool:
		return typed
	case string:
		return typed != "" && typed != "false" && typed != "0"
	case float64:
		return typed != 0
	case int:
		return typed != 0
	case int64:
		return typed != 0
	case []any:
		return len(typed) > 0
	case map[string]any:
		return len(typed) > 0
	default:
		return true
	}
}
