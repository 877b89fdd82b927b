// Package roster loads the static person to team draft assignment.
package roster

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/omarshaarawi/draftboard/internal/models"
	"github.com/omarshaarawi/draftboard/internal/teams"
	"gopkg.in/yaml.v3"
)

//go:embed default_roster.yaml
var defaultRoster []byte

var (
	ErrDuplicateTeam = errors.New("team drafted more than once")
	ErrEmptyPerson   = errors.New("person has no teams")
)

type file struct {
	People []personEntry `yaml:"people"`
}

type personEntry struct {
	Name  string      `yaml:"name"`
	Teams []teamEntry `yaml:"teams"`
}

type teamEntry struct {
	Name    string   `yaml:"name"`
	ESPNID  string   `yaml:"espn_id"`
	Aliases []string `yaml:"aliases"`
}

// Roster is a validated draft. Picks are kept in file order.
type Roster struct {
	picks  []models.DraftPick
	people []string
}

// Load reads and validates a roster file.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("roster %s: %w", path, err)
	}
	return r, nil
}

// Default returns the roster compiled into the binary.
func Default() (*Roster, error) {
	return Parse(defaultRoster)
}

func Parse(data []byte) (*Roster, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	if len(f.People) == 0 {
		return nil, errors.New("roster has no people")
	}

	r := &Roster{}
	people := make(map[string]bool)
	// claims maps every name or alias key to the team key it resolves to.
	claims := make(map[string]string)
	owners := make(map[string]string)
	names := make(map[string]string)
	espnOwners := make(map[string]string)

	for i, p := range f.People {
		person := strings.TrimSpace(p.Name)
		if person == "" {
			return nil, fmt.Errorf("person #%d has no name", i+1)
		}
		if people[strings.ToLower(person)] {
			return nil, fmt.Errorf("person %q listed more than once", person)
		}
		people[strings.ToLower(person)] = true

		if len(p.Teams) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyPerson, person)
		}

		for _, t := range p.Teams {
			name := strings.TrimSpace(t.Name)
			if name == "" {
				return nil, fmt.Errorf("%s has a team with no name", person)
			}

			key := teams.Key(name)
			if prev, ok := claims[key]; ok {
				return nil, fmt.Errorf("%w: %s claimed by %s and %s", ErrDuplicateTeam, name, owners[prev], person)
			}
			claims[key] = key
			owners[key] = person
			names[key] = name

			for _, alias := range t.Aliases {
				aliasKey := teams.Key(alias)
				if aliasKey == "" {
					return nil, fmt.Errorf("%s has an empty alias for %s", person, name)
				}
				if prev, ok := claims[aliasKey]; ok && prev != key {
					return nil, fmt.Errorf("%w: alias %q of %s (%s) also names %s (%s)", ErrDuplicateTeam, alias, name, person, names[prev], owners[prev])
				}
				claims[aliasKey] = key
			}

			espnID := strings.TrimSpace(t.ESPNID)
			if espnID != "" {
				if prev, ok := espnOwners[espnID]; ok {
					return nil, fmt.Errorf("%w: espn id %s claimed by %s and %s", ErrDuplicateTeam, espnID, prev, person)
				}
				espnOwners[espnID] = person
			}

			r.picks = append(r.picks, models.DraftPick{
				Person: person,
				Team: models.TeamIdentity{
					Key:     key,
					Name:    name,
					ESPNID:  espnID,
					Aliases: t.Aliases,
				},
			})
		}

		r.people = append(r.people, person)
	}

	return r, nil
}

func (r *Roster) Picks() []models.DraftPick {
	return append([]models.DraftPick(nil), r.picks...)
}

// People returns each person once, in roster order.
func (r *Roster) People() []string {
	return append([]string(nil), r.people...)
}

func (r *Roster) Teams() []models.TeamIdentity {
	ids := make([]models.TeamIdentity, len(r.picks))
	for i, p := range r.picks {
		ids[i] = p.Team
	}
	return ids
}

// Owners maps identity key to person.
func (r *Roster) Owners() map[string]string {
	owners := make(map[string]string, len(r.picks))
	for _, p := range r.picks {
		owners[p.Team.Key] = p.Person
	}
	return owners
}

// ESPNIDs returns the ESPN team ids in roster order and the names of the
// teams that have none.
func (r *Roster) ESPNIDs() (ids []string, missing []string) {
	for _, p := range r.picks {
		if p.Team.ESPNID == "" {
			missing = append(missing, p.Team.Name)
			continue
		}
		ids = append(ids, p.Team.ESPNID)
	}
	return ids, missing
}
