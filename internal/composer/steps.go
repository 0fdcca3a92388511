package composer

import (
	"fmt"

	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// Step is a position in the ticket creation wizard.
type Step int

const (
	StepTemplate Step = iota + 1
	StepDetails
	StepContext
	StepReview
)

var stepNames = map[Step]string{
	StepTemplate: "template",
	StepDetails:  "details",
	StepContext:  "context",
	StepReview:   "review",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Next advances the wizard by one step.
func (d *Draft) Next() error {
	if d.Step >= StepReview {
		return apperrors.NewConflict("already at the review step", map[string]any{"step": d.Step.String()})
	}
	d.Step++
	return nil
}

// Back moves the wizard one step backwards. Entered data is kept.
func (d *Draft) Back() error {
	if d.Step <= StepTemplate {
		return apperrors.NewConflict("already at the first step", map[string]any{"step": d.Step.String()})
	}
	d.Step--
	return nil
}

// StartBlank leaves the template step without seeding any field.
func (d *Draft) StartBlank() error {
	if err := d.requireStep(StepTemplate); err != nil {
		return err
	}
	d.Step = StepDetails
	return nil
}

func (d *Draft) requireStep(step Step) error {
	if d.Step != step {
		return apperrors.NewConflict(
			fmt.Sprintf("action only allowed in the %s step", step),
			map[string]any{"step": d.Step.String(), "required_step": step.String()},
		)
	}
	return nil
}
