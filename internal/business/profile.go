// Package business holds the receptionist's identity: who it answers for,
// how it greets callers, and how appointments are labeled on the calendar.
package business

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Profile describes the business the receptionist fronts. Loaded once at
// startup from a YAML file; read-only afterwards.
type Profile struct {
	Name               string `yaml:"name"`
	Persona            string `yaml:"persona"`
	VoiceGreeting      string `yaml:"voiceGreeting"`
	ClarifyPrompt      string `yaml:"clarifyPrompt"`
	FallbackReply      string `yaml:"fallbackReply"`
	AppointmentSummary string `yaml:"appointmentSummary"`
	Timezone           string `yaml:"timezone"`
	SlotMinutes        int    `yaml:"slotMinutes"`
}

// DefaultProfile returns the built-in profile used when no profile file is
// configured.
func DefaultProfile() *Profile {
	return &Profile{
		Name:               "Austin Hybrid Battery",
		Persona:            "You are a helpful receptionist for Austin Hybrid Battery.",
		VoiceGreeting:      "Thank you for calling. Please leave your question or appointment request after the beep.",
		ClarifyPrompt:      "Please specify a date and time for the appointment.",
		FallbackReply:      "Sorry, I'm having trouble answering right now. Please try again in a moment.",
		AppointmentSummary: "Hybrid Battery Appointment",
		Timezone:           "America/Chicago",
		SlotMinutes:        60,
	}
}

// LoadProfile reads a YAML profile from path and fills any omitted field
// from the defaults.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}

	p := DefaultProfile()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// Validate checks the profile for values the engine cannot work with.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.SlotMinutes <= 0 {
		return fmt.Errorf("slotMinutes must be positive, got %d", p.SlotMinutes)
	}
	if _, err := time.LoadLocation(p.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", p.Timezone, err)
	}
	return nil
}

// SlotDuration returns the appointment length.
func (p *Profile) SlotDuration() time.Duration {
	return time.Duration(p.SlotMinutes) * time.Minute
}

// Location resolves the profile timezone. Validate guarantees it loads.
func (p *Profile) Location() *time.Location {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
