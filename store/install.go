package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/stately/reactive"
)

type mutationEntry func(payload any)

type actionEntry func(ctx context.Context, payload any) *Deferred

type wrappedGetter func(s *Store) any

// installModule registers module and its subtree into the store tables.
//
// Unless hot is set, a non-root module's initial state is attached to its
// parent's state object. hot is used by full rebuilds, which must keep the
// existing state slots, and by RegisterModule with PreserveState.
func (s *Store) installModule(rootState *reactive.Object, path []string, module *Module, hot bool) {
	isRoot := len(path) == 0
	namespace := s.modules.Namespace(path)

	if module.Namespaced() {
		s.namespaceMap[namespace] = module
	}

	if !isRoot && !hot {
		parentState := nestedState(rootState, path[:len(path)-1])
		name := path[len(path)-1]
		if parentState != nil {
			s.withCommit(func() {
				parentState.Set(name, module.state)
			})
		}
	}

	local := makeLocalContext(s, namespace, path)
	module.context = local

	module.forEachMutation(func(key string, h MutationHandler) {
		s.registerMutation(namespace+key, h, local)
	})

	module.forEachAction(func(key string, a Action) {
		typ := namespace + key
		if a.Root {
			typ = key
		}
		s.registerAction(typ, a.Handler, local)
	})

	module.forEachGetter(func(key string, g GetterHandler) {
		s.registerGetter(namespace+key, g, local)
	})

	s.logger.Debug("module installed",
		"path", strings.Join(path, "/"),
		"namespace", namespace,
		"hot", hot,
	)

	module.forEachChild(func(key string, child *Module) {
		s.installModule(rootState, appendPath(path, key), child, hot)
	})
}

func (s *Store) registerMutation(typ string, handler MutationHandler, local *localContext) {
	s.mutations[typ] = append(s.mutations[typ], func(payload any) {
		handler(local.state(), payload)
	})
}

func (s *Store) registerAction(typ string, handler ActionHandler, local *localContext) {
	s.actions[typ] = append(s.actions[typ], func(ctx context.Context, payload any) *Deferred {
		res := toDeferred(handler(&ActionContext{ctx: ctx, local: local}, payload))
		hook := s.devtool
		if hook == nil {
			return res
		}
		relayed := NewDeferred()
		res.Then(func(v any, err error) {
			if err != nil {
				hook.ActionError(typ, err)
				relayed.Reject(err)
				return
			}
			relayed.Resolve(v)
		})
		return relayed
	})
}

func (s *Store) registerGetter(typ string, raw GetterHandler, local *localContext) {
	if _, exists := s.wrappedGetters[typ]; exists {
		if s.cfg.DevMode {
			s.report(&Error{
				Code:    ErrCodeDuplicateGetter,
				Message: fmt.Sprintf("duplicate getter key: %s", typ),
				Type:    typ,
			})
		}
		return
	}
	s.getterOrder = append(s.getterOrder, typ)
	s.wrappedGetters[typ] = func(st *Store) any {
		return raw(local.state(), local.localGetters(), st.State(), st.Getters())
	}
}
