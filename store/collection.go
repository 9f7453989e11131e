package store

import "fmt"

// ModuleCollection is the addressable module tree.
//
// Paths never create intermediate nodes: every ancestor must already exist.
type ModuleCollection struct {
	root *Module
}

// NewModuleCollection builds the tree for raw and all of its declared
// children. Declared modules are static: they cannot be unregistered.
func NewModuleCollection(raw *RawModule) (*ModuleCollection, error) {
	if raw == nil {
		raw = &RawModule{}
	}
	c := &ModuleCollection{}
	if err := c.register(nil, raw, false); err != nil {
		return nil, err
	}
	return c, nil
}

// Root returns the root module.
func (c *ModuleCollection) Root() *Module {
	return c.root
}

// Get returns the module at path. The empty path is the root.
func (c *ModuleCollection) Get(path []string) (*Module, error) {
	m := c.root
	for i, key := range path {
		next := m.Child(key)
		if next == nil {
			return nil, configError("module does not exist", clonePath(path[:i+1]))
		}
		m = next
	}
	return m, nil
}

// Namespace builds the qualified prefix for path: "name/" for every module
// along the path that is namespaced, nothing for the others.
func (c *ModuleCollection) Namespace(path []string) string {
	ns := ""
	m := c.root
	for _, key := range path {
		m = m.Child(key)
		if m == nil {
			break
		}
		if m.Namespaced() {
			ns += key + "/"
		}
	}
	return ns
}

// Register inserts raw (and its declared children) at path.
func (c *ModuleCollection) Register(path []string, raw *RawModule, runtime bool) error {
	if len(path) == 0 {
		return configError("cannot register the root module by using RegisterModule", nil)
	}
	return c.register(path, raw, runtime)
}

func (c *ModuleCollection) register(path []string, raw *RawModule, runtime bool) error {
	m, err := build(path, raw, runtime)
	if err != nil {
		return err
	}
	if len(path) == 0 {
		c.root = m
		return nil
	}
	parent, err := c.Get(path[:len(path)-1])
	if err != nil {
		return configError("parent module does not exist", clonePath(path))
	}
	parent.addChild(path[len(path)-1], m)
	return nil
}

// build creates the module for raw and all of its declared children. The
// subtree is attached only once it is complete, so a failed registration
// leaves the tree untouched.
func build(path []string, raw *RawModule, runtime bool) (*Module, error) {
	if raw == nil {
		return nil, configError("module configuration is nil", clonePath(path))
	}
	m := newModule(raw, runtime)
	for _, key := range sortedKeys(raw.Modules) {
		child, err := build(appendPath(path, key), raw.Modules[key], runtime)
		if err != nil {
			return nil, err
		}
		m.addChild(key, child)
	}
	return m, nil
}

// Unregister detaches the leaf at path from its parent.
//
// Returns a config error when the module does not exist. A static module
// is left in place and reported as ErrCodeStaticModule with removed=false.
func (c *ModuleCollection) Unregister(path []string) (removed bool, err error) {
	if len(path) == 0 {
		return false, configError("cannot unregister the root module", nil)
	}
	parent, err := c.Get(path[:len(path)-1])
	if err != nil {
		return false, err
	}
	key := path[len(path)-1]
	child := parent.Child(key)
	if child == nil {
		return false, configError("module does not exist", clonePath(path))
	}
	if !child.Runtime() {
		return false, &Error{
			Code:    ErrCodeStaticModule,
			Message: "cannot unregister a module declared at construction",
			Path:    clonePath(path),
		}
	}
	parent.removeChild(key)
	return true, nil
}

// Update merges raw into the existing tree. New child modules are never
// added: each one is passed to report and skipped.
func (c *ModuleCollection) Update(raw *RawModule, report func(*Error)) {
	update(nil, c.root, raw, report)
}

func update(path []string, target *Module, raw *RawModule, report func(*Error)) {
	target.update(raw)
	for _, key := range sortedKeys(raw.Modules) {
		childPath := appendPath(path, key)
		child := target.Child(key)
		if child == nil {
			report(&Error{
				Code:    ErrCodeHotUpdate,
				Message: fmt.Sprintf("trying to add a new module %q on hot reloading, manual reload is needed", key),
				Path:    childPath,
			})
			continue
		}
		if raw.Modules[key] == nil {
			continue
		}
		update(childPath, child, raw.Modules[key], report)
	}
}

func appendPath(path []string, key string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = key
	return out
}

func clonePath(path []string) []string {
	if len(path) == 0 {
		return nil
	}
	out := make([]string, len(path))
	copy(out, path)
	return out
}
