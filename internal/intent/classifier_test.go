package intent

import (
	"testing"

	"receptionist/internal/domain"
)

func TestClassify_AppointmentCues(t *testing.T) {
	c := New(nil)
	cases := []string{
		"I want an appointment",
		"Can you SCHEDULE me for tomorrow?",
		"Appointment for next Tuesday at 3pm please",
		"reSCHEDuling... can I schedule something",
	}
	for _, text := range cases {
		if got := c.Classify(text); got != domain.IntentAppointment {
			t.Errorf("Classify(%q) = %v, want appointment", text, got)
		}
	}
}

func TestClassify_General(t *testing.T) {
	c := New(nil)
	cases := []string{
		"What are your hours?",
		"How much does a battery replacement cost?",
		"",
		"do you do walk-ins",
	}
	for _, text := range cases {
		if got := c.Classify(text); got != domain.IntentGeneral {
			t.Errorf("Classify(%q) = %v, want general", text, got)
		}
	}
}

// A question merely mentioning a past appointment still routes to the
// appointment branch. That is the documented behavior, not a bug.
func TestClassify_PastAppointmentMisroutes(t *testing.T) {
	c := New(nil)
	if got := c.Classify("what happened at my last appointment?"); got != domain.IntentAppointment {
		t.Errorf("got %v, want appointment", got)
	}
}

func TestClassify_CustomCues(t *testing.T) {
	c := New([]string{"Booking"})
	if got := c.Classify("I need a BOOKING"); got != domain.IntentAppointment {
		t.Errorf("got %v, want appointment", got)
	}
	if got := c.Classify("I need an appointment"); got != domain.IntentGeneral {
		t.Errorf("custom cues should replace defaults, got %v", got)
	}
}
