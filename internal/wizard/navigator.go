// Package wizard sequences the product creation steps and tracks form save
// state.
package wizard

import (
	"fmt"
	"strings"

	"coach-hub/internal/common/errors"
)

// ProductType is the kind of product being created.
type ProductType string

const (
	Program  ProductType = "program"
	Workshop ProductType = "workshop"
	Document ProductType = "document"
)

// ParseProductType accepts program, workshop or document in any case.
func ParseProductType(s string) (ProductType, error) {
	switch t := ProductType(strings.ToLower(strings.TrimSpace(s))); t {
	case Program, Workshop, Document:
		return t, nil
	default:
		return "", errors.ValidationError(fmt.Sprintf("unknown product type %q", s))
	}
}

// Step names a wizard screen.
type Step string

const (
	StepType             Step = "type"
	StepProgramType      Step = "programType"
	StepGeneral          Step = "general"
	StepWeeklyPlan       Step = "weeklyPlan"
	StepWorkshopSchedule Step = "workshopSchedule"
	StepWorkshopMaterial Step = "workshopMaterial"
	StepDocumentMaterial Step = "documentMaterial"
	StepPreview          Step = "preview"
)

var stepMaps = map[ProductType][]Step{
	Program:  {StepType, StepProgramType, StepGeneral, StepWeeklyPlan, StepPreview},
	Workshop: {StepType, StepProgramType, StepGeneral, StepWorkshopSchedule, StepWorkshopMaterial, StepPreview},
	Document: {StepType, StepProgramType, StepGeneral, StepDocumentMaterial, StepPreview},
}

// Steps returns the ordered steps of a product type.
func Steps(t ProductType) []Step {
	steps := stepMaps[t]
	out := make([]Step, len(steps))
	copy(out, steps)
	return out
}

// Navigator tracks the current step of one wizard.
type Navigator struct {
	productType ProductType
	current     Step
}

// NewNavigator starts a wizard. Editing an existing product opens on the
// general step, creating one opens on type selection.
func NewNavigator(t ProductType, editing bool) (*Navigator, error) {
	if _, ok := stepMaps[t]; !ok {
		return nil, errors.ValidationError(fmt.Sprintf("unknown product type %q", t))
	}
	start := StepType
	if editing {
		start = StepGeneral
	}
	return &Navigator{productType: t, current: start}, nil
}

// Resume rebuilds a navigator positioned on current.
func Resume(t ProductType, current Step) (*Navigator, error) {
	n, err := NewNavigator(t, false)
	if err != nil {
		return nil, err
	}
	if n.indexOf(current) < 0 {
		return nil, errors.ValidationError(fmt.Sprintf("step %q is not part of the %s wizard", current, t))
	}
	n.current = current
	return n, nil
}

// Type returns the selected product type.
func (n *Navigator) Type() ProductType {
	return n.productType
}

// Current returns the current step.
func (n *Navigator) Current() Step {
	return n.current
}

// CurrentNumber is the 1-based position of the current step.
func (n *Navigator) CurrentNumber() int {
	return n.indexOf(n.current) + 1
}

// Total is the number of steps of the selected type.
func (n *Navigator) Total() int {
	return len(stepMaps[n.productType])
}

// GoToStep moves to the 1-based step number when it is not ahead of the
// current step, or exactly one step ahead. Anything else is ignored and
// reported as false.
func (n *Navigator) GoToStep(number int) bool {
	steps := stepMaps[n.productType]
	if number < 1 || number > len(steps) {
		return false
	}
	cur := n.CurrentNumber()
	if number > cur+1 {
		return false
	}
	n.current = steps[number-1]
	return true
}

// Next advances one step.
func (n *Navigator) Next() bool {
	return n.GoToStep(n.CurrentNumber() + 1)
}

// Back returns one step.
func (n *Navigator) Back() bool {
	return n.GoToStep(n.CurrentNumber() - 1)
}

// SelectType switches the product type. The current step is kept when the
// new type has it; otherwise the wizard falls back to the general step.
func (n *Navigator) SelectType(t ProductType) error {
	if _, ok := stepMaps[t]; !ok {
		return errors.ValidationError(fmt.Sprintf("unknown product type %q", t))
	}
	n.productType = t
	if n.indexOf(n.current) < 0 {
		n.current = StepGeneral
	}
	return nil
}

func (n *Navigator) indexOf(s Step) int {
	for i, step := range stepMaps[n.productType] {
		if step == s {
			return i
		}
	}
	return -1
}
