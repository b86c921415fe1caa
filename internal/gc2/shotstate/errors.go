package shotstate

import "fmt"

// Rejection reasons.
const (
	ReasonNoShotID        = "no_shot_id"
	ReasonDuplicate       = "duplicate"
	ReasonZeroSpin        = "zero_spin"
	ReasonErrorSentinel   = "error_sentinel"
	ReasonSpeedOutOfRange = "speed_out_of_range"
	ReasonTimedOut        = "timed_out"
)

// Rejection reports a shot discarded by validation or timeout.
type Rejection struct {
	ShotID int64
	Reason string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("shot %d rejected: %s", r.ShotID, r.Reason)
}
