// Package mergetag renders {{dotted.path}} placeholders against a merge
// context assembled from a contact and its campaign.
package mergetag

import (
	"fmt"
	"regexp"
	"strings"
)

// Context is the value root for rendering. Top-level keys are the first
// segment of a dotted path ("contact", "campaign").
type Context map[string]any

var tagPattern = regexp.MustCompile(`\{\{\s*([^}]+?)\s*\}\}`)

// Render substitutes every {{path.to.value}} tag in template with the value
// found by walking ctx. Unresolvable paths render as the empty string, so a
// half-filled context never leaks literal tags into outbound messages.
func Render(template string, ctx Context) string {
	if template == "" {
		return ""
	}
	return tagPattern.ReplaceAllStringFunc(template, func(tag string) string {
		m := tagPattern.FindStringSubmatch(tag)
		if len(m) < 2 {
			return ""
		}
		return lookup(ctx, strings.TrimSpace(m[1]))
	})
}

func lookup(ctx Context, path string) string {
	var cur any = map[string]any(ctx)
	for _, seg := range strings.Split(path, ".") {
		node, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur, ok = node[seg]
		if !ok {
			return ""
		}
	}
	switch v := cur.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any:
		// A path that stops at a branch is as unresolved as a miss.
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// SplitName splits a full name on whitespace into first and last. A single
// token yields only a first name; extra middle tokens fold into the last name.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
