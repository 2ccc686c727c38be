package tool

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Builtins returns the built-in tool definitions in their canonical
// registration order.
func Builtins() []Definition {
	return []Definition{
		addDefinition,
		multiplyDefinition,
		getCurrentTimeDefinition,
		uppercaseDefinition,
		countWordsDefinition,
	}
}

// RegisterBuiltins registers every built-in tool on the given registry.
func RegisterBuiltins(r *Registry) error {
	for _, def := range Builtins() {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}

var addDefinition = Definition{
	Descriptor: Descriptor{
		Name:        "add",
		Description: "Add two numbers",
		Params: map[string]ParamType{
			"a": TypeNumber,
			"b": TypeNumber,
		},
	},
	Handler: func(_ context.Context, args Args) (any, error) {
		a, err := numberArg(args, "a")
		if err != nil {
			return nil, err
		}
		b, err := numberArg(args, "b")
		if err != nil {
			return nil, err
		}
		return a + b, nil
	},
}

var multiplyDefinition = Definition{
	Descriptor: Descriptor{
		Name:        "multiply",
		Description: "Multiply two numbers",
		Params: map[string]ParamType{
			"a": TypeNumber,
			"b": TypeNumber,
		},
	},
	Handler: func(_ context.Context, args Args) (any, error) {
		a, err := numberArg(args, "a")
		if err != nil {
			return nil, err
		}
		b, err := numberArg(args, "b")
		if err != nil {
			return nil, err
		}
		return a * b, nil
	},
}

var getCurrentTimeDefinition = Definition{
	Descriptor: Descriptor{
		Name:        "get_current_time",
		Description: "Get current date and time",
	},
	Handler: func(_ context.Context, _ Args) (any, error) {
		return time.Now().Format("2006-01-02 15:04:05"), nil
	},
}

var uppercaseDefinition = Definition{
	Descriptor: Descriptor{
		Name:        "uppercase",
		Description: "Convert text to uppercase",
		Params: map[string]ParamType{
			"text": TypeString,
		},
	},
	Handler: func(_ context.Context, args Args) (any, error) {
		text, err := stringArg(args, "text")
		if err != nil {
			return nil, err
		}
		return strings.ToUpper(text), nil
	},
}

var countWordsDefinition = Definition{
	Descriptor: Descriptor{
		Name:        "count_words",
		Description: "Count words in text",
		Params: map[string]ParamType{
			"text": TypeString,
		},
	},
	Handler: func(_ context.Context, args Args) (any, error) {
		text, err := stringArg(args, "text")
		if err != nil {
			return nil, err
		}
		return len(strings.Fields(text)), nil
	},
}

func numberArg(args Args, name string) (float64, error) {
	value, ok := args[name]
	if !ok {
		return 0, fmt.Errorf("argument %q is required", name)
	}
	number, ok := value.(float64)
	if !ok {
		return 0, fmt.Errorf("argument %q must be a number", name)
	}
	return number, nil
}

func stringArg(args Args, name string) (string, error) {
	value, ok := args[name]
	if !ok {
		return "", fmt.Errorf("argument %q is required", name)
	}
	text, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", name)
	}
	return text, nil
}
