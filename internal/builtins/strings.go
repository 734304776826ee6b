package builtins

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/funvibe/numen/internal/value"
)

func (l *Library) registerStrings() {
	// cases.Caser keeps state between calls, so each call gets its own
	l.wrap("upper", func(s string) string { return cases.Upper(language.Und).String(s) }, "s")
	l.wrap("lower", func(s string) string { return cases.Lower(language.Und).String(s) }, "s")
	l.wrap("title", func(s string) string { return cases.Title(language.Und).String(s) }, "s")

	l.wrap("trim", strings.TrimSpace, "s")
	l.wrap("split", func(s, sep string) []any {
		parts := strings.Split(s, sep)
		out := make([]any, len(parts))
		for i, p := range parts {
			out[i] = p
		}
		return out
	}, "s", "sep")
	l.wrap("join", func(m *value.Map, sep string) string {
		var parts []string
		m.Range(func(_ string, v value.Value) bool {
			parts = append(parts, value.Display(v))
			return true
		})
		return strings.Join(parts, sep)
	}, "items", "sep")

	l.raw("string", []string{"x"}, false, func(args []value.Value) (value.Value, error) {
		return value.String(value.Display(arg(args, 0))), nil
	})
	l.raw("number", []string{"x"}, false, func(args []value.Value) (value.Value, error) {
		return value.Number(value.ToNumber(arg(args, 0))), nil
	})
}
