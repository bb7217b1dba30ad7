package twi

import (
	"context"
	"time"
)

// Phase is the state of one bus session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAddressing
	PhaseRegisterSelect
	PhaseData
	PhaseStopPending
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAddressing:
		return "addressing"
	case PhaseRegisterSelect:
		return "register-select"
	case PhaseData:
		return "data"
	case PhaseStopPending:
		return "stop-pending"
	default:
		return "unknown"
	}
}

// session is the transient state of one ReadRegister or WriteRegister call.
type session struct {
	reg     uint16
	phase   Phase
	stopped bool
}

// await spins until the peripheral reports c. Without a timeout option and
// with a context that is never done, it spins forever, matching the firmware.
// Otherwise it gives up at the earlier of the per-wait timeout and the
// context deadline.
func (e *Engine) await(ctx context.Context, s *session, c Condition) error {
	if e.periph.Status(c) {
		return nil
	}
	deadline, bounded := ctx.Deadline()
	var cause error
	if bounded {
		cause = context.DeadlineExceeded
	}
	if e.timeout > 0 {
		if dl := time.Now().Add(e.timeout); !bounded || dl.Before(deadline) {
			deadline, bounded, cause = dl, true, nil
		}
	}
	done := ctx.Done()
	for !e.periph.Status(c) {
		if done != nil {
			select {
			case <-done:
				return &TimeoutError{Condition: c, Phase: s.phase, Register: s.reg, Cause: ctx.Err()}
			default:
			}
		}
		if bounded && !time.Now().Before(deadline) {
			return &TimeoutError{Condition: c, Phase: s.phase, Register: s.reg, Cause: cause}
		}
	}
	return nil
}
