// Package prompt holds the pipeline's prompt templates and the renderer
// that fills them. Rendering is pure: same template and values always
// produce byte-identical output.
package prompt

import (
	"regexp"

	"github.com/safeplan-io/safeplan/internal/model"
)

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Render substitutes every {name} placeholder in tmpl with vars[name].
// A placeholder with no corresponding value fails with MissingVariableError:
// that is a template/code mismatch, not a recoverable condition.
func Render(tmpl string, vars map[string]string) (string, error) {
	var missing *model.MissingVariableError
	out := placeholderRe.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := match[1 : len(match)-1]
		val, ok := vars[name]
		if !ok {
			if missing == nil {
				missing = &model.MissingVariableError{Name: name}
			}
			return match
		}
		return val
	})
	if missing != nil {
		return "", missing
	}
	return out, nil
}
