// Package render substitutes {name} placeholders in template text.
//
// Rendering is a single pass over the template: substituted values are never
// scanned again, so a value containing "{other}" is emitted literally.
// Placeholders without a value in the context are left untouched, which keeps
// missing-context bugs visible in the output.
package render

import (
	"regexp"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Render replaces every {name} token in template whose name is present in
// ctx with the value's string form.
func Render(template string, ctx Context) string {
	if len(ctx) == 0 {
		return template
	}
	return placeholderPattern.ReplaceAllStringFunc(template, func(token string) string {
		name := token[1 : len(token)-1]
		if v, ok := ctx[name]; ok {
			return v.String()
		}
		return token
	})
}

// Placeholders returns the distinct placeholder names in template, in order
// of first appearance.
func Placeholders(template string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(template, -1)
	seen := make(map[string]bool, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		names = append(names, m[1])
	}
	return names
}

// Missing returns the placeholders of template that ctx does not provide.
func Missing(template string, ctx Context) []string {
	var missing []string
	for _, name := range Placeholders(template) {
		if _, ok := ctx[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
