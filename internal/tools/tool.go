package tools

import (
	"context"
	"fmt"
)

// Tool is one locally-executable function the model may call. Parameters
// returns the JSON-schema "parameters" object advertised to the model.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]interface{}
	Validate(args map[string]interface{}) error
	Call(ctx context.Context, args map[string]interface{}) (interface{}, error)
}

func objectSchema(props map[string]interface{}, required []string) map[string]interface{} {
	if required == nil {
		required = []string{}
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func requireString(args map[string]interface{}, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing argument: %s", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %s must be a string", key)
	}
	return s, nil
}

func optionalString(args map[string]interface{}, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %s must be a string", key)
	}
	return s, nil
}
