package tools

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vaultchat/vaultchat-backend/internal/logger"
)

type fakeTool struct {
	name   string
	params []Parameter
	run    func(ctx context.Context, args map[string]any) (string, error)
}

func (f *fakeTool) Name() string            { return f.name }
func (f *fakeTool) Description() string     { return "a fake tool" }
func (f *fakeTool) Parameters() []Parameter { return f.params }
func (f *fakeTool) Run(ctx context.Context, args map[string]any) (string, error) {
	return f.run(ctx, args)
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func newTestDispatcher(t *testing.T, timeout time.Duration, ts ...Tool) *Dispatcher {
	t.Helper()
	registry := NewRegistry()
	for _, tool := range ts {
		if err := registry.Register(tool); err != nil {
			t.Fatalf("Register(%s): %v", tool.Name(), err)
		}
	}
	return NewDispatcher(registry, timeout, testLogger(t))
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	registry := NewRegistry()
	tool := &fakeTool{name: "echo"}
	if err := registry.Register(tool); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := registry.Register(tool); !errors.Is(err, ErrDuplicateTool) {
		t.Fatalf("expected ErrDuplicateTool, got %v", err)
	}
}

func TestRegistry_DefinitionsKeepRegistrationOrder(t *testing.T) {
	registry := NewRegistry()
	for _, name := range []string{"c", "a", "b"} {
		if err := registry.Register(&fakeTool{name: name}); err != nil {
			t.Fatalf("Register(%s): %v", name, err)
		}
	}
	defs := registry.Definitions()
	if len(defs) != 3 || defs[0].Name != "c" || defs[1].Name != "a" || defs[2].Name != "b" {
		t.Fatalf("unexpected definition order: %+v", defs)
	}
}

func TestDispatcher_UnknownTool(t *testing.T) {
	d := newTestDispatcher(t, 0)
	results := d.Dispatch(context.Background(), []Call{{ID: "1", Name: "nope"}})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if !results[0].IsError || !strings.Contains(results[0].Content, "unknown tool") {
		t.Fatalf("expected unknown-tool error result, got %+v", results[0])
	}
	if results[0].CallID != "1" {
		t.Fatalf("result must carry the call id, got %q", results[0].CallID)
	}
}

func TestDispatcher_MissingRequiredParameter(t *testing.T) {
	tool := &fakeTool{
		name:   "echo",
		params: []Parameter{{Name: "text", Type: "string"}},
		run: func(ctx context.Context, args map[string]any) (string, error) {
			return args["text"].(string), nil
		},
	}
	d := newTestDispatcher(t, 0, tool)

	results := d.Dispatch(context.Background(), []Call{{ID: "1", Name: "echo", Arguments: map[string]any{}}})
	if !results[0].IsError || !strings.Contains(results[0].Content, "validation error") {
		t.Fatalf("expected validation error result, got %+v", results[0])
	}
}

func TestDispatcher_EnumViolation(t *testing.T) {
	tool := &fakeTool{
		name: "pick",
		params: []Parameter{
			{Name: "color", Type: "string", Enum: []string{"red", "green"}},
		},
		run: func(ctx context.Context, args map[string]any) (string, error) {
			return "ok", nil
		},
	}
	d := newTestDispatcher(t, 0, tool)

	results := d.Dispatch(context.Background(), []Call{
		{ID: "1", Name: "pick", Arguments: map[string]any{"color": "blue"}},
		{ID: "2", Name: "pick", Arguments: map[string]any{"color": "red"}},
	})
	if !results[0].IsError || !strings.Contains(results[0].Content, "must be one of") {
		t.Fatalf("expected enum validation error, got %+v", results[0])
	}
	if results[1].IsError || results[1].Content != "ok" {
		t.Fatalf("expected allowed value to pass, got %+v", results[1])
	}
}

func TestDispatcher_OptionalParameterMayBeAbsent(t *testing.T) {
	tool := &fakeTool{
		name: "greet",
		params: []Parameter{
			{Name: "name", Type: "string", Optional: true},
		},
		run: func(ctx context.Context, args map[string]any) (string, error) {
			return "hello", nil
		},
	}
	d := newTestDispatcher(t, 0, tool)

	results := d.Dispatch(context.Background(), []Call{{ID: "1", Name: "greet", Arguments: map[string]any{}}})
	if results[0].IsError {
		t.Fatalf("optional parameter absence must not fail: %+v", results[0])
	}
}

func TestDispatcher_BodyFailureBecomesResultContent(t *testing.T) {
	tool := &fakeTool{
		name: "flaky",
		run: func(ctx context.Context, args map[string]any) (string, error) {
			return "", errors.New("upstream unreachable")
		},
	}
	d := newTestDispatcher(t, 0, tool)

	results := d.Dispatch(context.Background(), []Call{{ID: "1", Name: "flaky"}})
	if !results[0].IsError || !strings.Contains(results[0].Content, "upstream unreachable") {
		t.Fatalf("expected body failure as result content, got %+v", results[0])
	}
}

func TestDispatcher_PanicBecomesResultContent(t *testing.T) {
	tool := &fakeTool{
		name: "boom",
		run: func(ctx context.Context, args map[string]any) (string, error) {
			panic("kaboom")
		},
	}
	d := newTestDispatcher(t, 0, tool)

	results := d.Dispatch(context.Background(), []Call{{ID: "1", Name: "boom"}})
	if !results[0].IsError || !strings.Contains(results[0].Content, "kaboom") {
		t.Fatalf("expected panic captured as result content, got %+v", results[0])
	}
}

func TestDispatcher_Timeout(t *testing.T) {
	tool := &fakeTool{
		name: "slow",
		run: func(ctx context.Context, args map[string]any) (string, error) {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(5 * time.Second):
				return "too late", nil
			}
		},
	}
	d := newTestDispatcher(t, 20*time.Millisecond, tool)

	results := d.Dispatch(context.Background(), []Call{{ID: "1", Name: "slow"}})
	if !results[0].IsError || !strings.Contains(results[0].Content, "timed out") {
		t.Fatalf("expected timeout result, got %+v", results[0])
	}
}

func TestDispatcher_ConcurrentCallsAllResolve(t *testing.T) {
	var running atomic.Int32
	var sawBoth atomic.Bool
	mk := func(name string) *fakeTool {
		return &fakeTool{
			name: name,
			run: func(ctx context.Context, args map[string]any) (string, error) {
				running.Add(1)
				defer running.Add(-1)
				// give the sibling call a chance to start
				time.Sleep(30 * time.Millisecond)
				if running.Load() == 2 {
					sawBoth.Store(true)
				}
				return "done:" + name, nil
			},
		}
	}
	d := newTestDispatcher(t, 0, mk("a"), mk("b"))

	results := d.Dispatch(context.Background(), []Call{
		{ID: "1", Name: "a"},
		{ID: "2", Name: "b"},
	})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].CallID != "1" || results[0].Content != "done:a" {
		t.Fatalf("result order must match call order: %+v", results[0])
	}
	if results[1].CallID != "2" || results[1].Content != "done:b" {
		t.Fatalf("result order must match call order: %+v", results[1])
	}
	if !sawBoth.Load() {
		t.Fatalf("expected both tool bodies to overlap")
	}
}

func TestDateTime_FormatEnum(t *testing.T) {
	tool := NewDateTime()
	fixed := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	tool.now = func() time.Time { return fixed }

	out, err := tool.Run(context.Background(), map[string]any{"format": "unix"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "1709296200" {
		t.Fatalf("unexpected unix output %q", out)
	}

	out, err = tool.Run(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "2024-03-01T12:30:00Z" {
		t.Fatalf("unexpected iso output %q", out)
	}

	if _, err := tool.Run(context.Background(), map[string]any{"timezone": "Not/AZone"}); err == nil {
		t.Fatalf("expected error for unknown timezone")
	}
}
