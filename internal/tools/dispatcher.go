package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vaultchat/vaultchat-backend/internal/logger"
)

// Dispatcher executes model-issued tool calls against the registry. Calls
// within one batch are independent and run concurrently; Dispatch returns
// only once every call has produced its result, so the orchestrator never
// resubmits context with an outstanding call.
type Dispatcher struct {
	registry *Registry
	timeout  time.Duration
	log      *logger.Logger
}

func NewDispatcher(registry *Registry, timeout time.Duration, baseLog *logger.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		timeout:  timeout,
		log:      baseLog.With("component", "Dispatcher"),
	}
}

// Dispatch produces exactly one Result per call, in the order of the input.
// Unknown tools, invalid arguments, body failures and timeouts all become
// error-content results rather than Go errors: tool failures are
// conversational, not orchestration failures.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []Call) []Result {
	results := make([]Result, len(calls))
	group, groupCtx := errgroup.WithContext(ctx)
	for i := range calls {
		group.Go(func() error {
			results[i] = d.dispatchOne(groupCtx, calls[i])
			return nil
		})
	}
	_ = group.Wait()
	return results
}

func (d *Dispatcher) dispatchOne(ctx context.Context, call Call) Result {
	result := Result{CallID: call.ID, ToolName: call.Name}

	tool, ok := d.registry.Get(call.Name)
	if !ok {
		d.log.Warn("Model requested unknown tool", "tool", call.Name)
		result.Content = fmt.Sprintf("error: unknown tool %q", call.Name)
		result.IsError = true
		return result
	}

	if err := validateArgs(tool.Parameters(), call.Arguments); err != nil {
		d.log.Warn("Tool call failed validation", "tool", call.Name, "error", err)
		result.Content = fmt.Sprintf("validation error: %v", err)
		result.IsError = true
		return result
	}

	runCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	content, err := d.run(runCtx, tool, call.Arguments)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			d.log.Warn("Tool call timed out", "tool", call.Name, "timeout", d.timeout)
			result.Content = fmt.Sprintf("error: tool %q timed out after %s", call.Name, d.timeout)
		} else {
			d.log.Warn("Tool call failed", "tool", call.Name, "error", err)
			result.Content = fmt.Sprintf("error: %v", err)
		}
		result.IsError = true
		return result
	}

	result.Content = content
	return result
}

// run shields the dispatcher from panicking tool bodies.
func (d *Dispatcher) run(ctx context.Context, tool Tool, args map[string]any) (content string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool panicked: %v", r)
		}
	}()
	return tool.Run(ctx, args)
}
