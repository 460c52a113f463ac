package model

import (
	"strings"
)

type Practitioner struct {
	ID             string `db:"id" json:"id"`
	Name           string `db:"name" json:"name"`
	Specialization string `db:"specialization" json:"specialization"`
	Experience     string `db:"experience" json:"experience"`
	Active         bool   `db:"active" json:"-"`
}

type Location struct {
	ID      string `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	Address string `db:"address" json:"address"`
	Active  bool   `db:"active" json:"-"`
}

type TimeSlot struct {
	Label    string `db:"label" json:"label"`
	Position int    `db:"position" json:"position"`
	Active   bool   `db:"active" json:"-"`
}

// Catalog is the set of choices offered on the booking form.
type Catalog struct {
	Services      []*Service      `json:"services"`
	Practitioners []*Practitioner `json:"practitioners"`
	Locations     []*Location     `json:"locations"`
	TimeSlots     []*TimeSlot     `json:"time_slots"`
}

func matches(value string, candidates ...string) bool {
	value = strings.TrimSpace(value)
	for _, c := range candidates {
		if c != "" && strings.EqualFold(value, c) {
			return true
		}
	}
	return false
}

// FindService matches by slug or name, ignoring case.
func (c *Catalog) FindService(value string) (*Service, bool) {
	for _, s := range c.Services {
		if matches(value, s.Slug, s.Name) {
			return s, true
		}
	}
	return nil, false
}

func (c *Catalog) FindPractitioner(value string) (*Practitioner, bool) {
	for _, p := range c.Practitioners {
		if matches(value, p.ID, p.Name) {
			return p, true
		}
	}
	return nil, false
}

func (c *Catalog) FindLocation(value string) (*Location, bool) {
	for _, l := range c.Locations {
		if matches(value, l.ID, l.Name) {
			return l, true
		}
	}
	return nil, false
}

func (c *Catalog) FindTimeSlot(value string) (*TimeSlot, bool) {
	for _, s := range c.TimeSlots {
		if matches(value, s.Label) {
			return s, true
		}
	}
	return nil, false
}
