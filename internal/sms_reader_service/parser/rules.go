package parser

import (
	"regexp"
	"strings"
)

// Matcher finds a single value inside a text.
type Matcher interface {
	Match(text string) (string, bool)
}

// Rule is one entry of an ordered RuleSet.
type Rule struct {
	Name      string
	Matcher   Matcher
	Normalize func(string) string
}

// RuleSet is evaluated in order; the first rule that matches wins.
type RuleSet []Rule

// Match is the outcome of evaluating a RuleSet. Rule is empty when nothing matched.
type Match struct {
	Value string
	Rule  string
}

// First returns the value captured by the first matching rule.
func (rs RuleSet) First(text string) (Match, bool) {
	for _, rule := range rs {
		value, ok := rule.Matcher.Match(text)
		if !ok {
			continue
		}
		if rule.Normalize != nil {
			value = rule.Normalize(value)
		}
		return Match{Value: value, Rule: rule.Name}, true
	}
	return Match{}, false
}

// patternMatcher returns the first capture group of a regular expression.
type patternMatcher struct {
	re *regexp.Regexp
}

// Pattern builds a Matcher from a regular expression with one capture group.
func Pattern(expr string) Matcher {
	return patternMatcher{re: regexp.MustCompile(expr)}
}

func (m patternMatcher) Match(text string) (string, bool) {
	groups := m.re.FindStringSubmatch(text)
	if len(groups) < 2 || groups[1] == "" {
		return "", false
	}
	return groups[1], true
}

// containsMatcher reports a fixed value when the uppercased text contains needle.
type containsMatcher struct {
	needle string
	value  string
}

// Contains builds a case-insensitive substring Matcher yielding value on success.
func Contains(needle, value string) Matcher {
	return containsMatcher{needle: strings.ToUpper(needle), value: value}
}

func (m containsMatcher) Match(text string) (string, bool) {
	if strings.Contains(strings.ToUpper(text), m.needle) {
		return m.value, true
	}
	return "", false
}

func stripThousands(s string) string {
	return strings.ReplaceAll(s, ",", "")
}
