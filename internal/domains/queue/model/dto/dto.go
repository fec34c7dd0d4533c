package dto

// DecrementRequest carries the position the staff device currently displays.
// The floor-at-zero check runs against this value, not a re-read of the store;
// the tracker is a best-effort board, not a ledger.
type DecrementRequest struct {
	CurrentPosition int64 `json:"current_position" validate:"gte=0"`
}
