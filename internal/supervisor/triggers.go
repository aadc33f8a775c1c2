package supervisor

import (
	"fmt"
	"regexp"
	"strings"
)

// triggerSet evaluates a captured line against an application's restart
// triggers: literal substrings first, then regular expressions, first
// match wins (spec.md §4.5 step 3).
type triggerSet struct {
	literals []string
	regexes  []*regexp.Regexp
	patterns []string // regexes[i]'s source, for logging
}

func compileTriggers(keywords, keywordRegex []string) (*triggerSet, error) {
	ts := &triggerSet{literals: keywords}
	for _, pat := range keywordRegex {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("compile restart_keyword_regex %q: %w", pat, err)
		}
		ts.regexes = append(ts.regexes, re)
		ts.patterns = append(ts.patterns, pat)
	}
	return ts, nil
}

// match returns the matching trigger text and true on the first hit,
// literals in order first, then regexes in order.
func (ts *triggerSet) match(line string) (string, bool) {
	for _, lit := range ts.literals {
		if strings.Contains(line, lit) {
			return lit, true
		}
	}
	for i, re := range ts.regexes {
		if re.MatchString(line) {
			return ts.patterns[i], true
		}
	}
	return "", false
}
