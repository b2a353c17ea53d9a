package model

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownConstraint indicates a facility references a constraint that is
// not in the constraint table.
var ErrUnknownConstraint = errors.New("unknown constraint")

// Tables groups the constraint, facility and optimisation tables supplied
// by the input layer.
type Tables struct {
	Constraints  map[string]Constraint
	Facilities   map[string]Facility
	Optimisation map[string]OptimisationSpec
	// Order is the explicit dispatch order. When empty, BuildOrder is used.
	Order DispatchOrder
}

// Validate checks constraint loss bounds and that every facility constraint
// reference resolves.
func (t Tables) Validate() error {
	names := make([]string, 0, len(t.Constraints))
	for n := range t.Constraints {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if err := t.Constraints[n].Validate(); err != nil {
			return err
		}
	}
	for _, f := range t.Facilities {
		if f.Constraint == "" {
			continue
		}
		if _, ok := t.Constraints[f.Constraint]; !ok {
			return fmt.Errorf("facility %s constraint %q: %w", f.Name, f.Constraint, ErrUnknownConstraint)
		}
	}
	return nil
}

// ConstraintFor returns the constraint referenced by the facility, or nil
// when the facility has none.
func (t Tables) ConstraintFor(f Facility) *Constraint {
	if f.Constraint == "" {
		return nil
	}
	c, ok := t.Constraints[f.Constraint]
	if !ok {
		return nil
	}
	return &c
}

// DispatchOrder returns the explicit order or, if none was given, the order
// derived from the facility table.
func (t Tables) DispatchOrder() DispatchOrder {
	if len(t.Order) > 0 {
		return t.Order
	}
	return BuildOrder(t.Facilities)
}

// Spec returns the optimisation spec of name, defaulting to ApproachNone.
func (t Tables) Spec(name string) OptimisationSpec {
	if s, ok := t.Optimisation[name]; ok {
		return s
	}
	return OptimisationSpec{Name: name, Approach: ApproachNone}
}
