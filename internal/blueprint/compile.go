package blueprint

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/stately/internal/ir"
	"github.com/roach88/stately/reactive"
	"github.com/roach88/stately/store"
)

// Build compiles bp and creates a store on rt. opts are applied after the
// blueprint's own settings, so they win.
func Build(rt *reactive.Runtime, bp *Blueprint, opts ...store.Option) (*store.Store, error) {
	raw, err := Compile(&bp.Module)
	if err != nil {
		return nil, err
	}
	return store.New(rt, raw, append(bp.Options(), opts...)...)
}

// Compile turns a module declaration into a RawModule. The returned module
// is independent of spec.
func Compile(spec *ModuleSpec) (*store.RawModule, error) {
	return compileModule(spec, "module")
}

func compileModule(spec *ModuleSpec, field string) (*store.RawModule, error) {
	if spec == nil {
		return nil, &FieldError{Field: field, Message: "module is empty"}
	}
	raw := &store.RawModule{
		Namespaced: spec.Namespaced,
		State:      spec.State,
	}

	if len(spec.Mutations) > 0 {
		raw.Mutations = make(map[string]store.MutationHandler, len(spec.Mutations))
		for _, name := range sortedNames(spec.Mutations) {
			h, err := compileMutation(spec.Mutations[name], field+".mutations."+name)
			if err != nil {
				return nil, err
			}
			raw.Mutations[name] = h
		}
	}

	if len(spec.Getters) > 0 {
		raw.Getters = make(map[string]store.GetterHandler, len(spec.Getters))
		for _, name := range sortedNames(spec.Getters) {
			h, err := compileGetter(name, spec.Getters[name], spec.Getters, field+".getters."+name)
			if err != nil {
				return nil, err
			}
			raw.Getters[name] = h
		}
	}

	if len(spec.Actions) > 0 {
		raw.Actions = make(map[string]store.Action, len(spec.Actions))
		for _, name := range sortedNames(spec.Actions) {
			a, err := compileAction(spec.Actions[name], field+".actions."+name)
			if err != nil {
				return nil, err
			}
			raw.Actions[name] = a
		}
	}

	if len(spec.Modules) > 0 {
		raw.Modules = make(map[string]*store.RawModule, len(spec.Modules))
		for _, name := range sortedNames(spec.Modules) {
			child, err := compileModule(spec.Modules[name], field+".modules."+name)
			if err != nil {
				return nil, err
			}
			raw.Modules[name] = child
		}
	}
	return raw, nil
}

func compileMutation(ops []OpSpec, field string) (store.MutationHandler, error) {
	compiled := make([]func(*reactive.Object, any), 0, len(ops))
	for i, op := range ops {
		fn, err := compileOp(op, fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, fn)
	}
	return func(state *reactive.Object, payload any) {
		for _, fn := range compiled {
			fn(state, payload)
		}
	}, nil
}

func compileOp(op OpSpec, field string) (func(*reactive.Object, any), error) {
	path, err := splitPath(op.Path, field+".path")
	if err != nil {
		return nil, err
	}
	operand, err := compileOperand(op.Value, op.From, field)
	if err != nil {
		return nil, err
	}
	key := path[len(path)-1]
	parents := path[:len(path)-1]

	switch op.Op {
	case OpSet:
		return func(state *reactive.Object, payload any) {
			walk(state, parents, true).Set(key, operand(payload))
		}, nil

	case OpInc:
		if op.Value == nil && op.From == "" {
			operand = func(any) any { return 1 }
		}
		return func(state *reactive.Object, payload any) {
			c := walk(state, parents, true)
			sum, ok := add(c.Get(key), operand(payload))
			if !ok {
				panic(fmt.Sprintf("blueprint: inc %s: operands must be numbers", op.Path))
			}
			c.Set(key, sum)
		}, nil

	case OpPush:
		return func(state *reactive.Object, payload any) {
			c := walk(state, parents, true)
			v := operand(payload)
			if l := c.List(key); l != nil {
				l.Append(v)
				return
			}
			c.Set(key, []any{v})
		}, nil

	case OpDelete, OpToggle:
		if op.Value != nil || op.From != "" {
			return nil, &FieldError{Field: field, Message: fmt.Sprintf("%s takes no value or from", op.Op)}
		}
		if op.Op == OpDelete {
			return func(state *reactive.Object, _ any) {
				if c := walk(state, parents, false); c != nil {
					c.Delete(key)
				}
			}, nil
		}
		return func(state *reactive.Object, _ any) {
			c := walk(state, parents, true)
			c.Set(key, !c.Bool(key))
		}, nil

	case "":
		return nil, &FieldError{Field: field + ".op", Message: "op is required"}
	default:
		return nil, &FieldError{Field: field + ".op", Message: fmt.Sprintf("unknown op %q", op.Op)}
	}
}

// compileOperand returns a function producing the operand from the payload.
func compileOperand(value any, from, field string) (func(payload any) any, error) {
	if from == "" {
		// Each call gets its own copy of a container literal.
		return func(any) any { return ir.DeepCopy(value) }, nil
	}
	if value != nil {
		return nil, &FieldError{Field: field, Message: "value and from are mutually exclusive"}
	}
	selector, err := parseFrom(from, field+".from")
	if err != nil {
		return nil, err
	}
	return func(payload any) any { return lookup(payload, selector) }, nil
}

// parseFrom accepts "payload" and "payload.a.b".
func parseFrom(from, field string) ([]string, error) {
	if from == "payload" {
		return nil, nil
	}
	rest, ok := strings.CutPrefix(from, "payload.")
	if !ok {
		return nil, &FieldError{Field: field, Message: fmt.Sprintf("%q must be payload or payload.<field>", from)}
	}
	return splitPath(rest, field)
}

func compileGetter(name string, spec GetterSpec, all map[string]GetterSpec, field string) (store.GetterHandler, error) {
	set := 0
	for _, s := range []string{spec.Path, spec.Len, spec.Sum, spec.Getter} {
		if s != "" {
			set++
		}
	}
	if set != 1 {
		return nil, &FieldError{Field: field, Message: "exactly one of path, len, sum or getter is required"}
	}

	switch {
	case spec.Getter != "":
		if spec.Getter == name {
			return nil, &FieldError{Field: field + ".getter", Message: "getter cannot refer to itself"}
		}
		if _, ok := all[spec.Getter]; !ok {
			return nil, &FieldError{Field: field + ".getter", Message: fmt.Sprintf("unknown local getter %q", spec.Getter)}
		}
		target := spec.Getter
		return func(_ *reactive.Object, getters *store.Getters, _ *reactive.Object, _ *store.Getters) any {
			return getters.Get(target)
		}, nil

	case spec.Path != "":
		path, err := splitPath(spec.Path, field+".path")
		if err != nil {
			return nil, err
		}
		return func(state *reactive.Object, _ *store.Getters, _ *reactive.Object, _ *store.Getters) any {
			return lookup(state, path)
		}, nil

	case spec.Len != "":
		path, err := splitPath(spec.Len, field+".len")
		if err != nil {
			return nil, err
		}
		return func(state *reactive.Object, _ *store.Getters, _ *reactive.Object, _ *store.Getters) any {
			return length(lookup(state, path))
		}, nil

	default:
		path, err := splitPath(spec.Sum, field+".sum")
		if err != nil {
			return nil, err
		}
		return func(state *reactive.Object, _ *store.Getters, _ *reactive.Object, _ *store.Getters) any {
			l, _ := lookup(state, path).(*reactive.List)
			var total any = 0
			if l == nil {
				return total
			}
			for _, item := range l.Items() {
				if next, ok := add(total, item); ok {
					total = next
				}
			}
			return total
		}, nil
	}
}

func compileAction(spec ActionSpec, field string) (store.Action, error) {
	type step struct {
		spec    StepSpec
		operand func(any) any
		opts    []store.CallOption
	}
	steps := make([]step, 0, len(spec.Steps))
	for i, s := range spec.Steps {
		f := fmt.Sprintf("%s.steps[%d]", field, i)
		set := 0
		for _, name := range []string{s.Commit, s.Dispatch, s.Fail} {
			if name != "" {
				set++
			}
		}
		if set != 1 {
			return store.Action{}, &FieldError{Field: f, Message: "exactly one of commit, dispatch or fail is required"}
		}
		if s.Fail != "" && (s.Payload != nil || s.From != "" || s.Root) {
			return store.Action{}, &FieldError{Field: f, Message: "fail takes no payload, from or root"}
		}
		operand, err := compileOperand(s.Payload, s.From, f)
		if err != nil {
			return store.Action{}, err
		}
		var opts []store.CallOption
		if s.Root {
			opts = append(opts, store.AsRoot())
		}
		steps = append(steps, step{spec: s, operand: operand, opts: opts})
	}

	handler := func(ctx *store.ActionContext, payload any) (any, error) {
		var pending []*store.Deferred
		for _, s := range steps {
			switch {
			case s.spec.Fail != "":
				return nil, errors.New(s.spec.Fail)
			case s.spec.Commit != "":
				ctx.Commit(s.spec.Commit, s.operand(payload), s.opts...)
			default:
				d := ctx.Dispatch(s.spec.Dispatch, s.operand(payload), s.opts...)
				if _, err, settled := d.Result(); settled && err != nil {
					return nil, err
				}
				pending = append(pending, d)
			}
		}
		if len(pending) == 0 {
			return nil, nil
		}
		return store.All(pending...), nil
	}
	return store.Action{Root: spec.Root, Handler: handler}, nil
}

func splitPath(path, field string) ([]string, error) {
	if path == "" {
		return nil, &FieldError{Field: field, Message: "path is required"}
	}
	segs := strings.Split(path, ".")
	for _, s := range segs {
		if s == "" {
			return nil, &FieldError{Field: field, Message: fmt.Sprintf("path %q has an empty segment", path)}
		}
	}
	return segs, nil
}

// walk descends through nested objects. With create, missing objects are
// added; otherwise walk returns nil when a segment is missing.
func walk(state *reactive.Object, path []string, create bool) *reactive.Object {
	cur := state
	for _, seg := range path {
		next := cur.Object(seg)
		if next == nil {
			if !create {
				return nil
			}
			cur.Set(seg, map[string]any{})
			next = cur.Object(seg)
		}
		cur = next
	}
	return cur
}

// lookup reads a path through tracked objects or plain maps. Missing
// segments yield nil.
func lookup(v any, path []string) any {
	for _, seg := range path {
		switch c := v.(type) {
		case *reactive.Object:
			v = c.Get(seg)
		case map[string]any:
			v = c[seg]
		default:
			return nil
		}
	}
	return v
}

func length(v any) int {
	switch c := v.(type) {
	case *reactive.List:
		return c.Len()
	case *reactive.Object:
		return c.Len()
	case []any:
		return len(c)
	case map[string]any:
		return len(c)
	case string:
		return len(c)
	}
	return 0
}

// add sums two numbers. A nil a counts as 0. Integers stay integers unless
// either side is a float.
func add(a, b any) (any, bool) {
	if a == nil {
		a = 0
	}
	if isFloat(a) || isFloat(b) {
		x, ok1 := reactive.ToFloat(a)
		y, ok2 := reactive.ToFloat(b)
		return x + y, ok1 && ok2
	}
	x, ok1 := reactive.ToInt(a)
	y, ok2 := reactive.ToInt(b)
	return x + y, ok1 && ok2
}

func isFloat(v any) bool {
	switch v.(type) {
	case float32, float64:
		return true
	}
	return false
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
