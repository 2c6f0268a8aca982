/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

  API payloads use snake_case. The settings endpoint is the exception: it
  exchanges the persisted camelCase settings document as is.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/office-attendance/calendar"
	"github.com/warp/office-attendance/goal"
	"github.com/warp/office-attendance/visit"
)

// =============================================================================
// VISITS
// =============================================================================

// EventDTO is one session of a visit.
type EventDTO struct {
	EntryTime       time.Time  `json:"entry_time"`
	ExitTime        *time.Time `json:"exit_time,omitempty"`
	DurationSeconds *float64   `json:"duration_seconds,omitempty"`
}

// VisitDTO represents a day's visit in API responses.
type VisitDTO struct {
	ID              string     `json:"id"`
	Date            string     `json:"date"`
	Events          []EventDTO `json:"events"`
	Latitude        float64    `json:"latitude"`
	Longitude       float64    `json:"longitude"`
	SessionCount    int        `json:"session_count"`
	DurationSeconds *float64   `json:"duration_seconds,omitempty"`
	IsActive        bool       `json:"is_active"`
	IsValid         bool       `json:"is_valid"`
}

// StatusDTO is the presence summary.
type StatusDTO struct {
	Today          string    `json:"today"`
	IsInOffice     bool      `json:"is_in_office"`
	CurrentVisit   *VisitDTO `json:"current_visit,omitempty"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
}

// EnterRequest is the body of POST /api/visits/enter.
type EnterRequest struct {
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	At        *time.Time `json:"at,omitempty"`
}

// ExitRequest is the body of POST /api/visits/exit.
type ExitRequest struct {
	At *time.Time `json:"at,omitempty"`
}

// EventRequest is one session in an UpsertVisitRequest.
type EventRequest struct {
	EntryTime time.Time  `json:"entry_time"`
	ExitTime  *time.Time `json:"exit_time,omitempty"`
}

// UpsertVisitRequest is the body of PUT /api/visits.
type UpsertVisitRequest struct {
	ID        string         `json:"id,omitempty"`
	Date      string         `json:"date"`
	Events    []EventRequest `json:"events"`
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
}

// =============================================================================
// PROGRESS & GOALS
// =============================================================================

// ProgressDTO is attendance against the monthly goal.
type ProgressDTO struct {
	Month      string  `json:"month"`
	Current    int     `json:"current"`
	Goal       int     `json:"goal"`
	Percentage float64 `json:"percentage"`
	Remaining  int     `json:"remaining"`
	IsComplete bool    `json:"is_complete"`
}

// HolidayDTO is one resolved holiday.
type HolidayDTO struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Date string `json:"date"`
}

// GoalDTO is a goal with its computation breakdown.
type GoalDTO struct {
	Month              string       `json:"month"`
	Source             string       `json:"source"`
	Goal               int          `json:"goal"`
	Locked             bool         `json:"locked"`
	Weekdays           int          `json:"weekdays"`
	Holidays           []HolidayDTO `json:"holidays"`
	BusinessDays       int          `json:"business_days"`
	PTODays            int          `json:"pto_days"`
	WorkingDays        int          `json:"working_days"`
	PolicyType         string       `json:"policy_type"`
	RequiredPercentage string       `json:"required_percentage"`
}

// PTODTO is the PTO state of a month after an edit.
type PTODTO struct {
	Date    string   `json:"date"`
	Changed bool     `json:"changed"`
	Month   string   `json:"month"`
	Days    []string `json:"days"`
	Goal    int      `json:"goal"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toVisitDTO(v *visit.OfficeVisit) VisitDTO {
	dto := VisitDTO{
		ID:           v.ID.String(),
		Date:         v.Date.String(),
		Events:       make([]EventDTO, len(v.Events)),
		Latitude:     v.Coordinate.Latitude,
		Longitude:    v.Coordinate.Longitude,
		SessionCount: v.SessionCount(),
		IsActive:     v.IsActiveSession(),
		IsValid:      v.IsValidVisit(),
	}
	for i, e := range v.Events {
		dto.Events[i] = EventDTO{EntryTime: e.EntryTime, ExitTime: e.ExitTime}
		if d, ok := e.Duration(); ok {
			secs := d.Seconds()
			dto.Events[i].DurationSeconds = &secs
		}
	}
	if d, ok := v.Duration(); ok {
		secs := d.Seconds()
		dto.DurationSeconds = &secs
	}
	return dto
}

func toVisitDTOs(visits []*visit.OfficeVisit) []VisitDTO {
	dtos := make([]VisitDTO, len(visits))
	for i, v := range visits {
		dtos[i] = toVisitDTO(v)
	}
	return dtos
}

func toProgressDTO(p visit.Progress) ProgressDTO {
	return ProgressDTO{
		Month:      p.Month.Key(),
		Current:    p.Current,
		Goal:       p.Goal,
		Percentage: p.Percentage,
		Remaining:  p.Remaining(),
		IsComplete: p.IsComplete(),
	}
}

func toHolidayDTOs(hs []calendar.Holiday) []HolidayDTO {
	dtos := make([]HolidayDTO, len(hs))
	for i, h := range hs {
		dtos[i] = HolidayDTO{ID: string(h.ID), Name: h.Name, Date: h.Date.String()}
	}
	return dtos
}

func toGoalDTO(b goal.Breakdown) GoalDTO {
	return GoalDTO{
		Month:              b.Month.Key(),
		Source:             string(b.Source),
		Goal:               b.Goal,
		Locked:             b.Source == goal.SourceLocked,
		Weekdays:           b.Weekdays,
		Holidays:           toHolidayDTOs(b.Holidays),
		BusinessDays:       b.BusinessDays,
		PTODays:            b.PTODays,
		WorkingDays:        b.WorkingDays,
		PolicyType:         string(b.Policy.Type),
		RequiredPercentage: b.Policy.RequiredPercentage().String(),
	}
}

func dayStrings(days []calendar.Day) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.String()
	}
	return out
}
