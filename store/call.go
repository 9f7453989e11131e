package store

import "fmt"

// Mutation is what mutation subscribers see for each commit.
type Mutation struct {
	Type    string
	Payload any
}

// ActionEvent is what action subscribers see for each dispatch.
type ActionEvent struct {
	Type    string
	Payload any
}

// Typed is an object-style payload that carries its own type.
//
//	type AddTodo struct{ Text string }
//	func (AddTodo) Type() string { return "todos/add" }
//
//	s.CommitObject(AddTodo{Text: "milk"})
type Typed interface {
	Type() string
}

// CallOption tunes a single Commit or Dispatch.
type CallOption func(*callOptions)

type callOptions struct {
	root   bool
	silent bool
}

// AsRoot makes a namespaced module's local Commit or Dispatch target the
// given type as is, without the module's namespace.
func AsRoot() CallOption {
	return func(o *callOptions) { o.root = true }
}

// Silent has no effect on notification and only produces a deprecation
// report. Subscribers filter mutations themselves.
func Silent() CallOption {
	return func(o *callOptions) { o.silent = true }
}

func applyCallOptions(opts []CallOption) callOptions {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// unifyObjectStyle extracts the type of an object-style call. The object
// itself becomes the payload.
func unifyObjectStyle(obj any) (typ string, payload any, err error) {
	switch v := obj.(type) {
	case Typed:
		return v.Type(), v, nil
	case map[string]any:
		t, ok := v["type"].(string)
		if !ok {
			return "", nil, fmt.Errorf("expects string as the type, but found %T", v["type"])
		}
		return t, v, nil
	default:
		return "", nil, fmt.Errorf("expects an object carrying a type, but found %T", obj)
	}
}
