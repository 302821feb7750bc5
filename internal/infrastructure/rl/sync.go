package rl

import (
	"fmt"

	domainrl "github.com/fdoperezi/Markov-Pilot/internal/domain/rl"
)

// softUpdate blends online parameters into target parameters by name:
// target = tau*online + (1-tau)*target. tau=1 is a hard copy, used once at
// construction to start the target identical to the online network.
func softUpdate(target, online []parameter, tau float64) error {
	if len(target) != len(online) {
		return fmt.Errorf("%w: target has %d tensors, online has %d",
			domainrl.ErrCheckpointMismatch, len(target), len(online))
	}
	for i := range online {
		if target[i].Name != online[i].Name {
			return fmt.Errorf("%w: parameter %q does not match %q",
				domainrl.ErrCheckpointMismatch, target[i].Name, online[i].Name)
		}
		td, od := target[i].Data, online[i].Data
		if len(td) != len(od) {
			return fmt.Errorf("%w: parameter %q sized %d vs %d",
				domainrl.ErrCheckpointMismatch, target[i].Name, len(td), len(od))
		}
		for j := range od {
			td[j] = tau*od[j] + (1-tau)*td[j]
		}
	}
	return nil
}
