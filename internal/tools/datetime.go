package tools

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// DateTime reports the current date and time. Mostly useful because models
// have no clock of their own.
type DateTime struct {
	now func() time.Time
}

func NewDateTime() *DateTime {
	return &DateTime{now: time.Now}
}

func (t *DateTime) Name() string {
	return "datetime"
}

func (t *DateTime) Description() string {
	return "Get the current date and time, optionally in a specific timezone."
}

func (t *DateTime) Parameters() []Parameter {
	return []Parameter{
		{
			Name:        "format",
			Type:        "string",
			Description: "Output format for the timestamp.",
			Enum:        []string{"iso", "unix", "human"},
			Optional:    true,
		},
		{
			Name:        "timezone",
			Type:        "string",
			Description: "IANA timezone name, e.g. Europe/Berlin. Defaults to UTC.",
			Optional:    true,
		},
	}
}

func (t *DateTime) Run(ctx context.Context, args map[string]any) (string, error) {
	loc := time.UTC
	if tz, ok := args["timezone"].(string); ok && tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			return "", fmt.Errorf("unknown timezone %q", tz)
		}
		loc = parsed
	}

	now := t.now().In(loc)
	format, _ := args["format"].(string)
	switch format {
	case "unix":
		return strconv.FormatInt(now.Unix(), 10), nil
	case "human":
		return now.Format("Monday, January 2, 2006 at 15:04"), nil
	default:
		return now.Format(time.RFC3339), nil
	}
}
