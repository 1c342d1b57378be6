package domain

import "time"

// AppointmentRequest describes one appointment slot to be written to the
// calendar. Start/End are concrete instants; Timezone is the IANA name the
// calendar event is labeled with.
type AppointmentRequest struct {
	Summary  string
	Start    time.Time
	End      time.Time
	Timezone string
	RawText  string // original user text the slot was extracted from
}

// Booking is the result of a successful calendar write. The event ID is the
// only identity an appointment has; the service keeps no schedule of its own.
type Booking struct {
	EventID  string
	Start    time.Time
	End      time.Time
	Timezone string
}
