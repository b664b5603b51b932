package model

const (
	OutcomeConfirmed  = "confirmed"
	OutcomeWaitlisted = "waitlisted"

	KindBooking       = "booking"
	KindWaitlistEntry = "waitlist_entry"
)

// BookingOutcome is returned by booking creation: either a confirmed
// booking or a waitlist admission, never neither.
type BookingOutcome struct {
	Status    string         `json:"status"`
	BookingID string         `json:"booking_id,omitempty"`
	Price     float64        `json:"price,omitempty"`
	EntryID   string         `json:"entry_id,omitempty"`
	Position  int            `json:"position,omitempty"`
	Booking   *Booking       `json:"booking,omitempty"`
	Entry     *WaitlistEntry `json:"entry,omitempty"`
}

type Promotion struct {
	EntryID     string `json:"entry_id"`
	BookingID   string `json:"booking_id"`
	RequesterID string `json:"requester_id"`
}

type CancellationOutcome struct {
	CancelledID string      `json:"cancelled_id"`
	Kind        string      `json:"kind"`
	Promotions  []Promotion `json:"promotions"`
}

func (o *CancellationOutcome) Promoted() bool {
	return len(o.Promotions) > 0
}
