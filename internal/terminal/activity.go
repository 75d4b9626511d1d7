package terminal

import "time"

// applyActivitySignal computes the next activity state for a session.
// pulse=true means a data batch was just emitted; pulse=false means the
// quiet window elapsed (or the pulse channel closed). emit reports
// whether an activity transition should be published, and emitValue is
// the flag to publish.
func applyActivitySignal(active, pulse bool) (next bool, emit bool, emitValue bool) {
	switch {
	case pulse && !active:
		return true, true, true
	case pulse && active:
		return true, false, false
	case !pulse && active:
		return false, true, false
	default:
		return false, false, false
	}
}

// watchActivity converts the stream of data pulses into debounced
// active/inactive transitions. It runs until the pulse channel closes,
// emitting a final activity(false) if the session was still active.
func (m *Manager) watchActivity(sessionID string, pulse <-chan struct{}) {
	active := false
	timer := time.NewTimer(m.quietWindow)
	defer timer.Stop()

	for {
		select {
		case _, ok := <-pulse:
			if !ok {
				if active {
					m.publishActivity(sessionID, false)
				}
				return
			}
			var emit, value bool
			active, emit, value = applyActivitySignal(active, true)
			if emit {
				m.publishActivity(sessionID, value)
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(m.quietWindow)
		case <-timer.C:
			var emit, value bool
			active, emit, value = applyActivitySignal(active, false)
			if emit {
				m.publishActivity(sessionID, value)
			}
			timer.Reset(m.quietWindow)
		}
	}
}
