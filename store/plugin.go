package store

import "github.com/roach88/stately/reactive"

// Plugin runs once at the end of New with the fully built store. Plugins
// typically Subscribe, Watch or seed state through Commit.
type Plugin func(s *Store)

// DevtoolHook is an external inspector bridge.
//
// Init is called once with the store. Mutation is called after every commit
// with the state as it is after the handlers ran. ActionError is called for
// every action whose result rejects.
type DevtoolHook interface {
	Init(s *Store)
	Mutation(m Mutation, state *reactive.Object)
	ActionError(typ string, err error)
}

func attachDevtool(s *Store, hook DevtoolHook) {
	s.devtool = hook
	hook.Init(s)
	s.Subscribe(hook.Mutation)
	s.logger.Debug("devtool attached")
}
