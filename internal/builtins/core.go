package builtins

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/funvibe/numen/internal/config"
	"github.com/funvibe/numen/internal/value"
)

func (l *Library) registerCore() {
	l.raw(config.PrintFuncName, []string{"values"}, true, func(args []value.Value) (value.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = value.Display(a)
		}
		l.outMu.Lock()
		defer l.outMu.Unlock()
		if _, err := fmt.Fprintln(l.out, strings.Join(parts, " ")); err != nil {
			return value.Undefined, fmt.Errorf("print: %w", err)
		}
		return value.Undefined, nil
	})

	l.raw(config.TypeOfFuncName, []string{"x"}, false, func(args []value.Value) (value.Value, error) {
		return value.String(arg(args, 0).Category().String()), nil
	})

	l.wrap(config.ParamsFuncName, func(fn *value.Function) []any {
		names := fn.ParameterNames()
		out := make([]any, len(names))
		for i, n := range names {
			out[i] = n
		}
		return out
	}, "fn")

	l.wrap(config.UUIDFuncName, uuid.NewString)

	l.wrap("keys", func(m *value.Map) []any {
		keys := m.Keys()
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = k
		}
		return out
	}, "m")
	l.wrap("values", func(m *value.Map) *value.Map { return m.Values() }, "m")
	l.wrap("has", func(m *value.Map, key string) bool { return m.Has(key) }, "m", "key")
	l.wrap("remove", func(m *value.Map, key string) bool { return m.Delete(key) }, "m", "key")
}
