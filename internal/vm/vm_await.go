package vm

import (
	"context"
	"fmt"

	"github.com/funvibe/numen/internal/value"
)

// await implements OP_AWAIT. Non-futures pass through unchanged and done
// futures yield their result. A pending future suspends the context: the
// loop stops with the state intact and the future's notify resumes it.
func (c *Context) await() error {
	v := c.pop()
	fut, ok := value.AsFuture(v)
	if !ok {
		c.push(v)
		return nil
	}

	c.seq++
	seq := c.seq
	cont := value.NewNative("resume", []string{"result", "error"}, func(args []value.Value) (value.Value, error) {
		c.resume(seq, args)
		return value.Undefined, nil
	})

	// A continuation that claims seq still waits for the loop to release
	// mu, so the state set below is in place by then.
	c.pending.Store(seq)
	ready, result, failed, msg := value.AwaitFuture(fut, cont)
	if ready {
		c.pending.CompareAndSwap(seq, 0)
		if failed {
			return fmt.Errorf("%w: %s", ErrAwaitFailed, msg)
		}
		c.push(result)
		return nil
	}

	c.resumePC = c.pc
	c.state = stateSuspended
	c.pc = halted
	if c.done == nil {
		c.done = value.NewFuture()
	}
	c.vm.logger.Debug("context suspended", "unit", c.fn.Name, "pc", c.resumePC-1,
		"future", value.ToString(value.GetProperty(v, value.FutureID)))
	return nil
}

// resume continues a suspended context with the awaited outcome. Only the
// first notification for the current await gets through; stale or repeated
// ones return at once, even when made from inside the resumed run. When the
// context halts, its completion future is completed outside the lock.
func (c *Context) resume(seq uint64, args []value.Value) {
	if !c.pending.CompareAndSwap(seq, 0) {
		return
	}
	c.mu.Lock()
	if c.state != stateSuspended || seq != c.seq {
		c.mu.Unlock()
		return
	}
	c.state = stateRunning
	c.pc = c.resumePC
	c.vm.logger.Debug("context resumed", "unit", c.fn.Name, "pc", c.pc)

	result, errVal := value.Undefined, value.Undefined
	if len(args) > 0 {
		result = args[0]
	}
	if len(args) > 1 {
		errVal = args[1]
	}

	var res value.Value
	var err error
	if msg := value.ToString(errVal); msg != "" {
		ins := &c.code[c.pc-1]
		c.state = stateHalted
		c.pc = halted
		err = c.wrapError(fmt.Errorf("%w: %s", ErrAwaitFailed, msg), ins)
	} else {
		c.push(result)
		res, err = c.loop()
	}
	done := c.done
	suspended := c.state == stateSuspended
	c.mu.Unlock()

	if suspended {
		return
	}
	if err != nil {
		c.vm.logger.Debug("context failed after resumption", "unit", c.fn.Name, "error", err)
		_, _ = value.CompleteFuture(done, value.Undefined, err.Error())
		return
	}
	if _, nerr := value.CompleteFuture(done, res, ""); nerr != nil {
		c.vm.logger.Warn("completion notify failed", "unit", c.fn.Name, "error", nerr)
	}
}

// Wait blocks until fut is done or ctx is cancelled. A future that
// completed with an error yields ErrAwaitFailed.
func Wait(ctx context.Context, fut *value.Map) (value.Value, error) {
	type outcome struct {
		result value.Value
		errMsg string
	}
	ch := make(chan outcome, 1)
	cont := value.NewNative("wait", []string{"result", "error"}, func(args []value.Value) (value.Value, error) {
		o := outcome{}
		if len(args) > 0 {
			o.result = args[0]
		}
		if len(args) > 1 {
			o.errMsg = value.ToString(args[1])
		}
		ch <- o
		return value.Undefined, nil
	})

	ready, result, failed, msg := value.AwaitFuture(fut, cont)
	if ready {
		if failed {
			return value.Undefined, fmt.Errorf("%w: %s", ErrAwaitFailed, msg)
		}
		return result, nil
	}

	select {
	case o := <-ch:
		if o.errMsg != "" {
			return value.Undefined, fmt.Errorf("%w: %s", ErrAwaitFailed, o.errMsg)
		}
		return o.result, nil
	case <-ctx.Done():
		return value.Undefined, ctx.Err()
	}
}
