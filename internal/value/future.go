package value

import "github.com/google/uuid"

// Future field names. A future is any map with a boolean "done" entry.
const (
	FutureDone   = "done"
	FutureResult = "result"
	FutureError  = "error"
	FutureNotify = "notify"
	FutureID     = "id"
)

// NewFuture creates a pending future map
func NewFuture() *Map {
	m := NewMap()
	m.Set(FutureID, String(uuid.NewString()))
	m.Set(FutureDone, Bool(false))
	m.Set(FutureResult, Undefined)
	return m
}

// IsFuture reports whether v is future-shaped
func IsFuture(v Value) bool {
	_, ok := AsFuture(v)
	return ok
}

func AsFuture(v Value) (*Map, bool) {
	m, ok := v.AsMap()
	if !ok {
		return nil, false
	}
	done, ok := m.Get(FutureDone)
	if !ok || done.Kind() != KindBoolean {
		return nil, false
	}
	return m, true
}

// CompleteFuture marks the future done with a result, or with an error when
// errMsg is non-empty. It returns false if the future was already done. The
// notify function, if any, is invoked once with (result, error) after the
// map is updated.
func CompleteFuture(m *Map, result Value, errMsg string) (bool, error) {
	m.mu.Lock()
	if done, _ := m.getLocked(FutureDone); ToBoolean(done) {
		m.mu.Unlock()
		return false, nil
	}
	errVal := Undefined
	if errMsg != "" {
		errVal = String(errMsg)
		m.setLocked(FutureError, errVal)
	}
	m.setLocked(FutureResult, result)
	m.setLocked(FutureDone, Bool(true))
	notify, _ := m.getLocked(FutureNotify)
	m.mu.Unlock()

	if fn, ok := notify.AsFunction(); ok {
		if _, err := fn.Invoke([]Value{result, errVal}); err != nil {
			return true, err
		}
	}
	return true, nil
}

// AwaitFuture checks the future and, if it is still pending, installs cont
// as its notify function in the same critical section. A notify already
// present is kept and called before cont.
//
// When ready is true the future was already done; failed and errMsg report
// its error field.
func AwaitFuture(m *Map, cont *Function) (ready bool, result Value, failed bool, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if done, _ := m.getLocked(FutureDone); ToBoolean(done) {
		result, _ = m.getLocked(FutureResult)
		if e, ok := m.getLocked(FutureError); ok && !e.IsUndefined() {
			return true, result, true, ToString(e)
		}
		return true, result, false, ""
	}
	notify := cont
	if prev, ok := m.getLocked(FutureNotify); ok {
		if prevFn, ok := prev.AsFunction(); ok {
			notify = NewNative(FutureNotify, []string{"result", "error"}, func(args []Value) (Value, error) {
				if _, err := prevFn.Invoke(args); err != nil {
					return Undefined, err
				}
				return cont.Invoke(args)
			})
		}
	}
	m.setLocked(FutureNotify, FunctionValue(notify))
	return false, Undefined, false, ""
}
