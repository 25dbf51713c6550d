package tools

import (
	"context"
	"fmt"
	"sync"
)

// NotesTool stores short notes in memory for the lifetime of the process.
// Persistence is out of scope; this is a single-session scratchpad.
type NotesTool struct {
	mu    sync.Mutex
	notes map[string]string
	order []string
}

func NewNotesTool() *NotesTool {
	return &NotesTool{notes: make(map[string]string)}
}

func (t *NotesTool) Name() string { return "notes" }
func (t *NotesTool) Description() string {
	return "Save, fetch, or list short named notes kept for this session."
}
func (t *NotesTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"action": map[string]interface{}{
			"type": "string",
			"enum": []string{"save", "get", "list"},
		},
		"title": map[string]interface{}{
			"type":        "string",
			"description": "Note title. Required for save and get.",
		},
		"content": map[string]interface{}{
			"type":        "string",
			"description": "Note body. Required for save.",
		},
	}, []string{"action"})
}

func (t *NotesTool) Validate(args map[string]interface{}) error {
	action, err := requireString(args, "action")
	if err != nil {
		return err
	}
	switch action {
	case "save":
		if _, err := requireString(args, "title"); err != nil {
			return err
		}
		if _, err := requireString(args, "content"); err != nil {
			return err
		}
	case "get":
		if _, err := requireString(args, "title"); err != nil {
			return err
		}
	case "list":
	default:
		return fmt.Errorf("unknown action: %s", action)
	}
	return nil
}

func (t *NotesTool) Call(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	action, _ := requireString(args, "action")
	t.mu.Lock()
	defer t.mu.Unlock()
	switch action {
	case "save":
		title, _ := requireString(args, "title")
		content, _ := requireString(args, "content")
		if _, exists := t.notes[title]; !exists {
			t.order = append(t.order, title)
		}
		t.notes[title] = content
		return map[string]interface{}{"saved": title}, nil
	case "get":
		title, _ := requireString(args, "title")
		content, ok := t.notes[title]
		if !ok {
			return nil, fmt.Errorf("no note titled %q", title)
		}
		return map[string]interface{}{"title": title, "content": content}, nil
	case "list":
		titles := append([]string(nil), t.order...)
		return map[string]interface{}{"titles": titles}, nil
	default:
		return nil, fmt.Errorf("unknown action: %s", action)
	}
}
