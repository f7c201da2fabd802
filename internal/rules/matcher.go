package rules

import (
	"strings"

	"golang.org/x/text/cases"

	"autolist/internal/config"
)

// Kind describes how a rule satisfied a genre.
type Kind string

const (
	// KindExact is a case-normalized equality match.
	KindExact Kind = "exact"
	// KindRuleInGenre means the rule pattern is a substring of the genre
	// ("rock" catching "indie rock").
	KindRuleInGenre Kind = "partial_rule_in_genre"
	// KindGenreInRule means the genre is a substring of the rule pattern
	// ("pop" caught by a "dream pop" rule).
	KindGenreInRule Kind = "partial_genre_in_rule"
)

// Match reports which rule claimed a genre and where the track should go.
type Match struct {
	PlaylistID   string
	MatchedGenre string
	RuleGenre    string
	Kind         Kind
}

// Matcher holds the ordered rule set and match settings for one run.
type Matcher struct {
	rules         []config.Rule
	exactOnly     bool
	caseSensitive bool
	folder        cases.Caser
}

// NewMatcher builds a matcher from configuration. Rule order is priority
// order.
func NewMatcher(cfg *config.Config) *Matcher {
	return &Matcher{
		rules:         cfg.Rules,
		exactOnly:     cfg.Sorting.Match == config.MatchExact,
		caseSensitive: cfg.Sorting.CaseSensitive,
		folder:        cases.Fold(),
	}
}

// Len returns the number of configured rules.
func (m *Matcher) Len() int {
	return len(m.rules)
}

// Match walks genres in resolution order and rules in configuration order,
// returning the first satisfying pair, or nil when nothing matches.
func (m *Matcher) Match(genres []string) *Match {
	for _, genre := range genres {
		normalizedGenre := m.normalize(genre)
		if normalizedGenre == "" {
			continue
		}
		for _, rule := range m.rules {
			normalizedRule := m.normalize(rule.Genre)
			kind, ok := m.matchOne(normalizedGenre, normalizedRule)
			if !ok {
				continue
			}
			return &Match{
				PlaylistID:   rule.PlaylistID,
				MatchedGenre: genre,
				RuleGenre:    rule.Genre,
				Kind:         kind,
			}
		}
	}
	return nil
}

func (m *Matcher) matchOne(genre, rule string) (Kind, bool) {
	if m.exactOnly {
		if genre == rule {
			return KindExact, true
		}
		return "", false
	}
	if strings.Contains(genre, rule) {
		return KindRuleInGenre, true
	}
	if strings.Contains(rule, genre) {
		return KindGenreInRule, true
	}
	return "", false
}

func (m *Matcher) normalize(value string) string {
	value = strings.TrimSpace(value)
	if m.caseSensitive {
		return value
	}
	return m.folder.String(value)
}
