package domain

const (
	FirstStep = 1
	LastStep  = 5
)

// Wizard steps.
const (
	StepDates = iota + 1
	StepGuests
	StepAddOns
	StepDetails
	StepPayment
)

// WizardCursor is the current wizard step, always within [FirstStep, LastStep].
// The zero value is not valid; use NewCursor.
type WizardCursor struct {
	step int
}

func NewCursor() WizardCursor {
	return WizardCursor{step: FirstStep}
}

func (c WizardCursor) Step() int {
	return c.step
}

func (c WizardCursor) Advance() WizardCursor {
	return WizardCursor{step: min(c.step+1, LastStep)}
}

func (c WizardCursor) Retreat() WizardCursor {
	return WizardCursor{step: max(c.step-1, FirstStep)}
}

// JumpBack moves to an already visited step. Any target that is not strictly
// behind the cursor leaves it unchanged.
func (c WizardCursor) JumpBack(step int) WizardCursor {
	if step >= FirstStep && step < c.step {
		return WizardCursor{step: step}
	}
	return c
}
