package domain

import "context"

// RuleView provides read-only access to the candidate collection for rule evaluation.
type RuleView interface {
	ListExhibits() []Exhibit
	FindExhibit(id string) (Exhibit, bool)
}

// Rule defines an evaluation executed before a mutation is saved.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error)
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Rules returns the registered rules in evaluation order.
func (e *RulesEngine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}

// CollectionView adapts a slice of exhibits to RuleView.
type CollectionView struct {
	exhibits []Exhibit
	byID     map[string]int
}

// NewCollectionView indexes exhibits by id. The slice is not copied.
func NewCollectionView(exhibits []Exhibit) CollectionView {
	byID := make(map[string]int, len(exhibits))
	for i := range exhibits {
		if _, seen := byID[exhibits[i].ID]; !seen {
			byID[exhibits[i].ID] = i
		}
	}
	return CollectionView{exhibits: exhibits, byID: byID}
}

// ListExhibits returns a deep copy of the collection.
func (v CollectionView) ListExhibits() []Exhibit {
	return CloneExhibits(v.exhibits)
}

// FindExhibit looks an exhibit up by id.
func (v CollectionView) FindExhibit(id string) (Exhibit, bool) {
	i, ok := v.byID[id]
	if !ok {
		return Exhibit{}, false
	}
	return v.exhibits[i].Clone(), true
}
