package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ScoreboardResponse is the body of the site API scoreboard endpoint.
type ScoreboardResponse struct {
	Events []Event `json:"events"`
}

// ScheduleResponse is the body of the site API team schedule endpoint.
type ScheduleResponse struct {
	Team   EventTeam `json:"team"`
	Events []Event   `json:"events"`
}

type Event struct {
	ID           string        `json:"id"`
	Date         string        `json:"date"`
	Name         string        `json:"name"`
	Status       *EventStatus  `json:"status"`
	Competitions []Competition `json:"competitions"`
}

type Competition struct {
	ID          string       `json:"id"`
	Date        string       `json:"date"`
	Status      *EventStatus `json:"status"`
	Competitors []Competitor `json:"competitors"`
}

type EventStatus struct {
	Type StatusType `json:"type"`
}

type StatusType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	State       string `json:"state"`
	Completed   bool   `json:"completed"`
	Description string `json:"description"`
}

type Competitor struct {
	ID       string    `json:"id"`
	HomeAway string    `json:"homeAway"`
	Winner   bool      `json:"winner"`
	Score    Score     `json:"score"`
	Team     EventTeam `json:"team"`
}

type EventTeam struct {
	ID               string `json:"id"`
	Location         string `json:"location"`
	Name             string `json:"name"`
	Abbreviation     string `json:"abbreviation"`
	DisplayName      string `json:"displayName"`
	ShortDisplayName string `json:"shortDisplayName"`
}

// Score accepts the shapes ESPN uses for a competitor score: a string on the
// scoreboard, an object with value/displayValue on team schedules, or nothing
// at all before tip-off. A value that cannot be read as an integer is kept in
// Raw and flagged Invalid instead of failing the whole response.
type Score struct {
	Present bool
	Invalid bool
	Value   int
	Raw     string
}

func (s *Score) UnmarshalJSON(data []byte) error {
	*s = Score{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		s.set(str)
	case '{':
		var obj struct {
			Value        *float64 `json:"value"`
			DisplayValue string   `json:"displayValue"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		if obj.DisplayValue != "" {
			s.set(obj.DisplayValue)
		} else if obj.Value != nil {
			s.set(strconv.FormatFloat(*obj.Value, 'f', -1, 64))
		}
	default:
		s.set(string(data))
	}

	return nil
}

func (s *Score) set(raw string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}

	s.Raw = raw
	s.Present = true

	v, err := strconv.Atoi(raw)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != float64(int(f)) {
			s.Invalid = true
			return
		}
		v = int(f)
	}
	if v < 0 {
		s.Invalid = true
		return
	}
	s.Value = v
}
