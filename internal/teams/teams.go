// Package teams resolves the team names reported by the feed to the identity
// keys used by the draft roster.
package teams

import (
	"sort"
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/omarshaarawi/draftboard/internal/models"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSuggestions = 3

var replacer = strings.NewReplacer(
	"&", " and ",
	".", "",
	"'", "",
	"’", "",
	"(", " ",
	")", " ",
	"-", " ",
)

// Key normalises a display name into an identity key: accents stripped,
// lowercased, punctuation removed and whitespace collapsed.
func Key(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	folded = replacer.Replace(strings.ToLower(folded))
	return strings.Join(strings.Fields(folded), " ")
}

type Resolver struct {
	byID   map[string]string
	byName map[string]string
	names  map[string]string
	order  []models.TeamIdentity
}

func NewResolver(identities []models.TeamIdentity) *Resolver {
	r := &Resolver{
		byID:   make(map[string]string),
		byName: make(map[string]string),
		names:  make(map[string]string),
		order:  identities,
	}

	for _, id := range identities {
		r.names[id.Key] = id.Name
		if id.ESPNID != "" {
			r.byID[id.ESPNID] = id.Key
		}
		r.byName[id.Key] = id.Key
		for _, alias := range id.Aliases {
			r.byName[Key(alias)] = id.Key
		}
	}

	return r
}

// Resolve returns ref with Key set. Roster teams are matched by ESPN id first,
// then by any of the feed's names against the roster name and aliases. Teams
// outside the roster are keyed on their location (or display name) and keep
// the feed's display name.
func (r *Resolver) Resolve(ref models.TeamRef) models.TeamRef {
	if key, ok := r.byID[ref.ID]; ok && ref.ID != "" {
		ref.Key = key
		ref.Name = r.names[key]
		return ref
	}

	for _, candidate := range []string{ref.Location, ref.ShortName, ref.Name} {
		if candidate == "" {
			continue
		}
		if key, ok := r.byName[Key(candidate)]; ok {
			ref.Key = key
			ref.Name = r.names[key]
			return ref
		}
	}

	if ref.Location != "" {
		ref.Key = Key(ref.Location)
	} else {
		ref.Key = Key(ref.Name)
	}
	return ref
}

// ResolveGames resolves both sides of every game.
func (r *Resolver) ResolveGames(games []models.Game) []models.Game {
	resolved := make([]models.Game, len(games))
	for i, g := range games {
		g.Home = r.Resolve(g.Home)
		g.Away = r.Resolve(g.Away)
		resolved[i] = g
	}
	return resolved
}

// Unmatched lists the roster teams that no game resolved to, with the closest
// feed names as suggestions. owner maps identity key to person.
func (r *Resolver) Unmatched(games []models.Game, owner map[string]string) []models.UnmatchedTeam {
	seen := make(map[string]bool)
	var feedNames []string
	for _, g := range games {
		for _, side := range []models.TeamRef{g.Home, g.Away} {
			if seen[side.Key] {
				continue
			}
			seen[side.Key] = true
			if _, ok := r.names[side.Key]; !ok {
				feedNames = append(feedNames, side.Name)
			}
		}
	}

	var unmatched []models.UnmatchedTeam
	for _, id := range r.order {
		if seen[id.Key] {
			continue
		}
		unmatched = append(unmatched, models.UnmatchedTeam{
			Team:        id.Name,
			Person:      owner[id.Key],
			Suggestions: Suggest(id.Name, feedNames),
		})
	}
	return unmatched
}

// Suggest returns up to three feed names that look like name.
func Suggest(name string, candidates []string) []string {
	ranks := fuzzy.RankFindNormalizedFold(name, candidates)
	sort.Sort(ranks)

	var out []string
	for _, rank := range ranks {
		out = append(out, rank.Target)
		if len(out) == maxSuggestions {
			return out
		}
	}
	if len(out) > 0 {
		return out
	}

	type scored struct {
		name       string
		similarity float64
	}
	var nearby []scored
	lower := strings.ToLower(name)
	for _, c := range candidates {
		cl := strings.ToLower(c)
		distance := fuzzy.LevenshteinDistance(lower, cl)
		maxLen := float64(max(len(lower), len(cl)))
		if maxLen == 0 {
			continue
		}
		similarity := 1 - float64(distance)/maxLen
		if similarity >= 0.6 {
			nearby = append(nearby, scored{name: c, similarity: similarity})
		}
	}
	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].similarity > nearby[j].similarity
	})
	for _, c := range nearby {
		out = append(out, c.name)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}
