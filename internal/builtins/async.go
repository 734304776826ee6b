package builtins

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/funvibe/numen/internal/config"
	"github.com/funvibe/numen/internal/value"
)

var errNotFuture = errors.New("not a future")

func (l *Library) registerAsync() {
	l.overload(config.DelayFuncName, []any{
		func(ms float64) *value.Map { return l.delay(ms, value.Undefined) },
		func(ms float64, v value.Value) *value.Map { return l.delay(ms, v) },
	}, "ms", "value")

	l.wrap(config.FutureFuncName, value.NewFuture)

	l.raw(config.CompleteFuncName, []string{"future", "value"}, false, func(args []value.Value) (value.Value, error) {
		fut, ok := value.AsFuture(arg(args, 0))
		if !ok {
			return value.Undefined, fmt.Errorf("%s: %w", config.CompleteFuncName, errNotFuture)
		}
		ok, err := value.CompleteFuture(fut, arg(args, 1), "")
		return value.Bool(ok), err
	})

	l.raw(config.FailFuncName, []string{"future", "message"}, false, func(args []value.Value) (value.Value, error) {
		fut, ok := value.AsFuture(arg(args, 0))
		if !ok {
			return value.Undefined, fmt.Errorf("%s: %w", config.FailFuncName, errNotFuture)
		}
		msg := value.Display(arg(args, 1))
		if arg(args, 1).IsUndefined() || msg == "" {
			msg = "failed"
		}
		ok, err := value.CompleteFuture(fut, value.Undefined, msg)
		return value.Bool(ok), err
	})

	// async(fn, args...) runs fn on its own goroutine. A future returned by
	// fn is chained into the result.
	l.raw(config.AsyncFuncName, []string{"fn", "args"}, true, func(args []value.Value) (value.Value, error) {
		fn, ok := arg(args, 0).AsFunction()
		if !ok {
			return value.Undefined, fmt.Errorf("%s: expected a function, got %s", config.AsyncFuncName, arg(args, 0).Category())
		}
		rest := append([]value.Value(nil), args[1:]...)
		fut := value.NewFuture()
		go func() {
			res, err := fn.Invoke(rest)
			if err != nil {
				l.logger.Debug("async call failed", "fn", fn.Name, "error", err)
				l.complete(fut, value.Undefined, err.Error())
				return
			}
			l.chain(fut, res)
		}()
		return value.MapValue(fut), nil
	})
}

// delay returns a future completed with v after ms milliseconds
func (l *Library) delay(ms float64, v value.Value) *value.Map {
	fut := value.NewFuture()
	if math.IsNaN(ms) || ms < 0 {
		ms = 0
	}
	time.AfterFunc(time.Duration(ms*float64(time.Millisecond)), func() {
		l.complete(fut, v, "")
	})
	return fut
}

// chain completes fut with res, or with the outcome of res when res is
// itself a future.
func (l *Library) chain(fut *value.Map, res value.Value) {
	inner, ok := value.AsFuture(res)
	if !ok {
		l.complete(fut, res, "")
		return
	}
	cont := value.NewNative("chain", []string{"result", "error"}, func(args []value.Value) (value.Value, error) {
		l.complete(fut, arg(args, 0), value.ToString(arg(args, 1)))
		return value.Undefined, nil
	})
	if ready, result, failed, msg := value.AwaitFuture(inner, cont); ready {
		if !failed {
			msg = ""
		}
		l.complete(fut, result, msg)
	}
}

// complete finishes a future from host code. Notify errors have no caller
// to go to, so they are logged.
func (l *Library) complete(fut *value.Map, res value.Value, errMsg string) {
	if _, err := value.CompleteFuture(fut, res, errMsg); err != nil {
		l.logger.Warn("future notify failed", "future", value.ToString(value.GetProperty(value.MapValue(fut), value.FutureID)), "error", err)
	}
}
