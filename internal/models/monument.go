package models

import (
	"strings"
	"time"
)

// DateLayout is the calendar-day format used by the source registry.
const DateLayout = "2006-01-02"

// SourceRecord is one row of the heritage registry as published by the city.
// Fields carries the row's original cell values (without any lat/lng cells) so
// the dataset writer can reproduce the row verbatim.
type SourceRecord struct {
	ID             string `csv:"FID"`
	OfficialNumber string `csv:"denkmalnummer"`
	Category       string `csv:"denkmalart"`
	Address        string `csv:"lage"`
	DetailURL      string `csv:"link"`
	EntryDate      Date   `csv:"eintragungsdatum"`
	DeletionDate   Date   `csv:"geloescht"`

	Fields []string `csv:"-"`
}

// EnrichedRecord is a SourceRecord plus the coordinate found on its detail
// page. A nil Coordinate means none could be obtained.
type EnrichedRecord struct {
	SourceRecord
	Coordinate *Coordinate
}

func (r EnrichedRecord) HasCoordinate() bool {
	return r.Coordinate != nil
}

// Date is an optional calendar day. Values that are empty or do not match
// DateLayout are treated as absent rather than rejected.
type Date struct {
	t  time.Time
	ok bool
}

func ParseDate(s string) Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}
	}
	return Date{t: t, ok: true}
}

func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), ok: true}
}

// UnmarshalText never fails; an unparseable value yields an absent Date.
func (d *Date) UnmarshalText(b []byte) error {
	*d = ParseDate(string(b))
	return nil
}

func (d Date) Valid() bool {
	return d.ok
}

// Ptr returns the day as a *time.Time, nil when absent.
func (d Date) Ptr() *time.Time {
	if !d.ok {
		return nil
	}
	t := d.t
	return &t
}

func (d Date) String() string {
	if !d.ok {
		return ""
	}
	return d.t.Format(DateLayout)
}
