package tools

import (
	"context"
	"fmt"
)

// Parameter declares one argument of a tool, as advertised to the model.
type Parameter struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"` // "string", "number" or "boolean"
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Optional    bool     `json:"optional,omitempty"`
}

// Tool is a named capability the model may request. New tools are added by
// implementing this interface and registering them; there is no runtime
// reflection involved.
type Tool interface {
	Name() string
	Description() string
	Parameters() []Parameter
	Run(ctx context.Context, args map[string]any) (string, error)
}

// Definition is the schema of one tool as handed to the model client.
type Definition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
}

// Call is a model-issued tool invocation request.
type Call struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Result is the outcome of one call. Every call produces exactly one result;
// failures are carried in Content with IsError set, never as Go errors, so
// the model always receives feedback it can recover from.
type Result struct {
	CallID   string `json:"call_id"`
	ToolName string `json:"tool_name"`
	Content  string `json:"content"`
	IsError  bool   `json:"is_error"`
}

// validateArgs checks a call's arguments against the tool's declared
// parameters: required presence, rough type agreement and enum membership.
func validateArgs(params []Parameter, args map[string]any) error {
	for _, p := range params {
		val, present := args[p.Name]
		if !present {
			if !p.Optional {
				return fmt.Errorf("missing required parameter %q", p.Name)
			}
			continue
		}
		if err := checkType(p, val); err != nil {
			return err
		}
		if len(p.Enum) > 0 {
			str := fmt.Sprint(val)
			allowed := false
			for _, e := range p.Enum {
				if str == e {
					allowed = true
					break
				}
			}
			if !allowed {
				return fmt.Errorf("parameter %q must be one of %v, got %q", p.Name, p.Enum, str)
			}
		}
	}
	return nil
}

func checkType(p Parameter, val any) error {
	switch p.Type {
	case "string":
		if _, ok := val.(string); !ok {
			return fmt.Errorf("parameter %q must be a string", p.Name)
		}
	case "number":
		switch val.(type) {
		case float64, float32, int, int32, int64:
		default:
			return fmt.Errorf("parameter %q must be a number", p.Name)
		}
	case "boolean":
		if _, ok := val.(bool); !ok {
			return fmt.Errorf("parameter %q must be a boolean", p.Name)
		}
	}
	return nil
}
