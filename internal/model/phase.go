package model

import "time"

// Phase is a named stage within a session's lifecycle.
type Phase string

// The fixed phase cycle. Wagers are only admitted during countdown;
// show-result has no timer and is left only by an operator submitting
// a result.
const (
	PhaseCountdown     Phase = "countdown"
	PhaseBettingClosed Phase = "betting_closed"
	PhaseWaitingResult Phase = "waiting_result"
	PhaseShowResult    Phase = "show_result"
	PhasePayout        Phase = "payout"
	PhaseInviteNext    Phase = "invite_next"
)

// phaseSpec maps each phase to its fixed duration and successor.
// A zero duration means the phase has no timer and requires an external
// trigger to leave.
type phaseSpec struct {
	duration time.Duration
	next     Phase
}

var phaseSpecs = map[Phase]phaseSpec{
	PhaseCountdown:     {30 * time.Second, PhaseBettingClosed},
	PhaseBettingClosed: {5 * time.Second, PhaseWaitingResult},
	PhaseWaitingResult: {10 * time.Second, PhaseShowResult},
	PhaseShowResult:    {0, PhasePayout},
	PhasePayout:        {8 * time.Second, PhaseInviteNext},
	PhaseInviteNext:    {5 * time.Second, PhaseCountdown},
}

// phaseOrder lists the cycle in order, used for validation and display.
var phaseOrder = []Phase{
	PhaseCountdown,
	PhaseBettingClosed,
	PhaseWaitingResult,
	PhaseShowResult,
	PhasePayout,
	PhaseInviteNext,
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	_, ok := phaseSpecs[p]
	return ok
}

// Duration returns the phase's fixed duration, or 0 if the phase has no
// timer and must be left by an external trigger.
func (p Phase) Duration() time.Duration {
	return phaseSpecs[p].duration
}

// Timed reports whether the phase advances on its own once its duration
// has elapsed.
func (p Phase) Timed() bool {
	return phaseSpecs[p].duration > 0
}

// Next returns the successor phase in the cycle.
func (p Phase) Next() Phase {
	return phaseSpecs[p].next
}

// AdmitsBets reports whether wagers may be placed during this phase.
// Every phase after countdown is locked.
func (p Phase) AdmitsBets() bool {
	return p == PhaseCountdown
}

// Phases returns the full cycle in order.
func Phases() []Phase {
	out := make([]Phase, len(phaseOrder))
	copy(out, phaseOrder)
	return out
}

// SetPhaseDuration overrides a phase's duration. Used at startup to apply
// configured durations; not safe to call concurrently with advancement.
func SetPhaseDuration(p Phase, d time.Duration) {
	spec, ok := phaseSpecs[p]
	if !ok || p == PhaseShowResult {
		return
	}
	spec.duration = d
	phaseSpecs[p] = spec
}
