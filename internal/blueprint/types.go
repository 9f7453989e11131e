package blueprint

import "github.com/roach88/stately/store"

// Blueprint is a whole store declaration.
//
// Field tags serve both decoders: yaml.v3 reads the yaml tags and CUE's
// Value.Decode reads the json tags.
type Blueprint struct {
	// Strict turns on strict mode. Default: false
	Strict *bool `yaml:"strict,omitempty" json:"strict,omitempty"`

	// DevMode toggles the diagnostic checks. Default: true
	DevMode *bool `yaml:"dev_mode,omitempty" json:"dev_mode,omitempty"`

	// Module is the root module.
	Module ModuleSpec `yaml:"module" json:"module"`
}

// Options returns the store options the blueprint asks for.
func (b *Blueprint) Options() []store.Option {
	var opts []store.Option
	if b.Strict != nil {
		opts = append(opts, store.WithStrict(*b.Strict))
	}
	if b.DevMode != nil {
		opts = append(opts, store.WithDevMode(*b.DevMode))
	}
	return opts
}

// ModuleSpec declares one module and its children.
type ModuleSpec struct {
	Namespaced bool                   `yaml:"namespaced,omitempty" json:"namespaced,omitempty"`
	State      map[string]any         `yaml:"state,omitempty" json:"state,omitempty"`
	Mutations  map[string][]OpSpec    `yaml:"mutations,omitempty" json:"mutations,omitempty"`
	Actions    map[string]ActionSpec  `yaml:"actions,omitempty" json:"actions,omitempty"`
	Getters    map[string]GetterSpec  `yaml:"getters,omitempty" json:"getters,omitempty"`
	Modules    map[string]*ModuleSpec `yaml:"modules,omitempty" json:"modules,omitempty"`
}

// Op names a state operation.
type Op string

const (
	OpSet    Op = "set"
	OpInc    Op = "inc"
	OpPush   Op = "push"
	OpDelete Op = "delete"
	OpToggle Op = "toggle"
)

// OpSpec is one step of a mutation.
type OpSpec struct {
	Op   Op     `yaml:"op" json:"op"`
	Path string `yaml:"path" json:"path"`

	// Value is a literal operand.
	Value any `yaml:"value,omitempty" json:"value,omitempty"`

	// From selects the operand from the payload: "payload" or
	// "payload.a.b". Mutually exclusive with Value.
	From string `yaml:"from,omitempty" json:"from,omitempty"`
}

// GetterSpec declares a getter. Exactly one field is set.
type GetterSpec struct {
	// Path returns the value at a dotted local path.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`

	// Len returns the length of the list, object or string at a path.
	Len string `yaml:"len,omitempty" json:"len,omitempty"`

	// Sum adds up the numbers in the list at a path.
	Sum string `yaml:"sum,omitempty" json:"sum,omitempty"`

	// Getter returns another local getter.
	Getter string `yaml:"getter,omitempty" json:"getter,omitempty"`
}

// ActionSpec declares an action.
type ActionSpec struct {
	// Root registers the action under its bare name.
	Root  bool       `yaml:"root,omitempty" json:"root,omitempty"`
	Steps []StepSpec `yaml:"steps" json:"steps"`
}

// StepSpec is one action step. Exactly one of Commit, Dispatch and Fail is
// set.
type StepSpec struct {
	Commit   string `yaml:"commit,omitempty" json:"commit,omitempty"`
	Dispatch string `yaml:"dispatch,omitempty" json:"dispatch,omitempty"`
	Fail     string `yaml:"fail,omitempty" json:"fail,omitempty"`

	// Payload is a literal payload. From selects it from the action's
	// payload instead, like OpSpec.From.
	Payload any    `yaml:"payload,omitempty" json:"payload,omitempty"`
	From    string `yaml:"from,omitempty" json:"from,omitempty"`

	// Root resolves the type from the root namespace.
	Root bool `yaml:"root,omitempty" json:"root,omitempty"`
}
