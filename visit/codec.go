package visit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/warp/office-attendance/calendar"
	"github.com/warp/office-attendance/geo"
)

// SchemaVersion is the version written into the visits envelope.
const SchemaVersion = 2

// referenceDate is the epoch used by numeric timestamps in legacy payloads.
var referenceDate = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

type envelope struct {
	SchemaVersion int               `json:"schemaVersion"`
	Visits        []json.RawMessage `json:"visits"`
}

// EncodeVisits serializes visits into the current envelope format.
func EncodeVisits(visits []*OfficeVisit) ([]byte, error) {
	out := struct {
		SchemaVersion int            `json:"schemaVersion"`
		Visits        []*OfficeVisit `json:"visits"`
	}{SchemaVersion: SchemaVersion, Visits: visits}
	if out.Visits == nil {
		out.Visits = []*OfficeVisit{}
	}
	return json.Marshal(out)
}

// DecodeVisits reads a visits payload. Bare arrays and envelopes older than
// SchemaVersion are upgraded, in which case migrated is true. loc resolves the
// calendar day of legacy records that carry a timestamp instead of a date.
//
// A record that cannot be read is left out and its error appended to skipped;
// err is only set when the payload as a whole is unreadable.
func DecodeVisits(data []byte, loc *time.Location) (visits []*OfficeVisit, migrated bool, skipped []error, err error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, false, nil, fmt.Errorf("empty visits payload")
	}

	var (
		raws    []json.RawMessage
		version int
	)
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, false, nil, fmt.Errorf("decode legacy visits: %w", err)
		}
	case '{':
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, false, nil, fmt.Errorf("decode visits envelope: %w", err)
		}
		if env.SchemaVersion > SchemaVersion {
			return nil, false, nil, fmt.Errorf("unsupported visits schema version %d", env.SchemaVersion)
		}
		raws, version = env.Visits, env.SchemaVersion
	default:
		return nil, false, nil, fmt.Errorf("unrecognized visits payload")
	}

	visits = make([]*OfficeVisit, 0, len(raws))
	for i, raw := range raws {
		v, err := decodeVisit(raw, version, loc)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("visit %d: %w", i, err))
			continue
		}
		visits = append(visits, v)
	}
	return visits, version != SchemaVersion, skipped, nil
}

func decodeVisit(raw json.RawMessage, version int, loc *time.Location) (*OfficeVisit, error) {
	if version != SchemaVersion {
		return decodeLegacyVisit(raw, loc)
	}
	v := &OfficeVisit{}
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, err
	}
	if v.Events == nil {
		v.Events = []OfficeEvent{}
	}
	return v, nil
}

// =============================================================================
// LEGACY RECORDS
// =============================================================================

// legacyVisit accepts both the multi-session shape and the older flattened
// shape with entryTime/exitTime/duration on the visit itself.
type legacyVisit struct {
	ID         string         `json:"id"`
	Date       *legacyTime    `json:"date"`
	EntryTime  *legacyTime    `json:"entryTime"`
	ExitTime   *legacyTime    `json:"exitTime"`
	Duration   *float64       `json:"duration"`
	Events     []legacyEvent  `json:"events"`
	Coordinate geo.Coordinate `json:"coordinate"`
}

type legacyEvent struct {
	EntryTime *legacyTime `json:"entryTime"`
	ExitTime  *legacyTime `json:"exitTime"`
}

// legacyTime is an RFC3339 string, a "YYYY-MM-DD" date, or a number of
// seconds since referenceDate.
type legacyTime struct {
	t        time.Time
	dateOnly bool
}

func (lt *legacyTime) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if len(s) > 0 && s[0] != '"' {
		secs, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid timestamp %s", s)
		}
		lt.t = referenceDate.Add(time.Duration(secs * float64(time.Second)))
		return nil
	}
	str, err := strconv.Unquote(s)
	if err != nil {
		return err
	}
	if t, err := time.Parse(time.RFC3339Nano, str); err == nil {
		lt.t = t
		return nil
	}
	d, err := calendar.ParseDay(str)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q", str)
	}
	lt.t, lt.dateOnly = d.Start(time.UTC), true
	return nil
}

func (lt *legacyTime) day(loc *time.Location) calendar.Day {
	if lt.dateOnly {
		return calendar.DayOf(lt.t)
	}
	return calendar.DayIn(lt.t, loc)
}

func decodeLegacyVisit(raw []byte, loc *time.Location) (*OfficeVisit, error) {
	var lv legacyVisit
	if err := json.Unmarshal(raw, &lv); err != nil {
		return nil, err
	}

	v := &OfficeVisit{
		ID:         legacyID(lv.ID),
		Events:     []OfficeEvent{},
		Coordinate: geo.NewCoordinate(lv.Coordinate.Latitude, lv.Coordinate.Longitude),
	}

	for _, e := range lv.Events {
		if e.EntryTime == nil {
			continue
		}
		ev := OfficeEvent{EntryTime: e.EntryTime.t}
		if e.ExitTime != nil {
			exit := e.ExitTime.t
			ev.ExitTime = &exit
		}
		v.Events = append(v.Events, ev)
	}

	if len(v.Events) == 0 && lv.EntryTime != nil {
		ev := OfficeEvent{EntryTime: lv.EntryTime.t}
		switch {
		case lv.ExitTime != nil:
			exit := lv.ExitTime.t
			ev.ExitTime = &exit
		case lv.Duration != nil && *lv.Duration >= 0:
			exit := ev.EntryTime.Add(time.Duration(*lv.Duration * float64(time.Second)))
			ev.ExitTime = &exit
		}
		v.Events = append(v.Events, ev)
	}

	switch {
	case lv.Date != nil:
		v.Date = lv.Date.day(loc)
	case len(v.Events) > 0:
		v.Date = calendar.DayIn(v.Events[0].EntryTime, loc)
	default:
		return nil, fmt.Errorf("visit has neither date nor events")
	}
	return v, nil
}

// legacyID keeps valid UUIDs and derives a stable one from anything else.
func legacyID(id string) uuid.UUID {
	if id == "" {
		return uuid.New()
	}
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(id))
}
