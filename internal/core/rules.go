package core

import "exhibitcore/pkg/domain"

// NewDefaultRulesEngine builds a rules engine with the built-in custody rules.
func NewDefaultRulesEngine() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(LifecycleTransitionRule())
	engine.Register(SerialUniquenessRule())
	return engine
}
