package tools

import (
	"context"
	"fmt"
	"time"
)

type ClockTool struct {
	// now is swappable for tests.
	now func() time.Time
}

func NewClockTool() *ClockTool {
	return &ClockTool{now: time.Now}
}

func (t *ClockTool) Name() string { return "get_time" }
func (t *ClockTool) Description() string {
	return "Get the current date and time, optionally in a specific IANA timezone."
}
func (t *ClockTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"timezone": map[string]interface{}{
			"type":        "string",
			"description": "IANA timezone name, e.g. Europe/Berlin. Defaults to local time.",
		},
	}, nil)
}

func (t *ClockTool) Validate(args map[string]interface{}) error {
	tz, err := optionalString(args, "timezone")
	if err != nil {
		return err
	}
	if tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("unknown timezone: %s", tz)
		}
	}
	return nil
}

func (t *ClockTool) Call(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	now := t.now()
	tz, _ := optionalString(args, "timezone")
	if tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("unknown timezone: %s", tz)
		}
		now = now.In(loc)
	}
	return map[string]interface{}{
		"time":     now.Format(time.RFC3339),
		"weekday":  now.Weekday().String(),
		"timezone": now.Location().String(),
	}, nil
}
