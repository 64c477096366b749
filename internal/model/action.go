package model

// Action is a human-friendly operating mode of a storage unit at a snapshot.
// Keep these values stable; they are intended for CSV output.
type Action string

const (
	ActionCharging    Action = "CHARGING"
	ActionIdle        Action = "IDLE"
	ActionDischarging Action = "DISCHARGING"
)

// ActionFromNet classifies net storage output (dispatch minus store).
// Magnitudes below tol count as idle, so solver noise does not flip the label.
func ActionFromNet(net, tol float64) Action {
	switch {
	case net < -tol:
		return ActionCharging
	case net > tol:
		return ActionDischarging
	default:
		return ActionIdle
	}
}
