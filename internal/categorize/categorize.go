// Package categorize guesses transaction categories from a YAML rules file.
//
// Guessing tries, in order: the user's exact rules, the user's contains
// rules, the shared rules, then the category names themselves as keywords.
package categorize

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/flarebyte/bankpull/internal/transaction"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// MatchType selects how a rule pattern is compared.
type MatchType string

const (
	MatchExact    MatchType = "EXACT"
	MatchContains MatchType = "CONTAINS"
)

// Category types.
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// Source names the step that produced a guess.
type Source string

const (
	SourceUserRule     Source = "USER_RULE"
	SourceGlobalMatch  Source = "GLOBAL_MATCH"
	SourceKeywordMatch Source = "KEYWORD_MATCH"
	SourceUnknown      Source = "UNKNOWN"
)

// minLearnLength is the shortest normalized label a rule is learned from.
const minLearnLength = 3

// Rule maps a normalized description pattern to a category.
type Rule struct {
	Pattern  string    `yaml:"pattern"`
	Match    MatchType `yaml:"match,omitempty"`
	Category string    `yaml:"category"`
}

// Category is a named category with its income/expense type.
type Category struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Rules is the content of a rules file.
type Rules struct {
	Rules      []Rule     `yaml:"rules"`
	Shared     []Rule     `yaml:"shared"`
	Categories []Category `yaml:"categories"`
}

// Guess is the outcome of Rules.Guess. Category is empty when Source is
// SourceUnknown.
type Guess struct {
	Category string
	Source   Source
}

var (
	longDigits = regexp.MustCompile(`[0-9]{3,}`)
	spaces     = regexp.MustCompile(`\s+`)
)

// NormalizeDescription lowercases s, drops runs of three or more digits
// (store and card numbers) and collapses whitespace.
func NormalizeDescription(s string) string {
	s = strings.ToLower(s)
	s = longDigits.ReplaceAllString(s, "")
	s = spaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Load reads a rules file. A missing file yields empty rules.
func Load(path string) (*Rules, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Rules{}, nil
		}
		return nil, err
	}
	return Parse(b)
}

// Parse decodes and validates rules file content.
func Parse(b []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("rules: %w", err)
	}
	for i := range r.Rules {
		if err := validateRule("rules", i, &r.Rules[i]); err != nil {
			return nil, err
		}
	}
	for i := range r.Shared {
		if err := validateRule("shared", i, &r.Shared[i]); err != nil {
			return nil, err
		}
	}
	for i, c := range r.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("rules: categories[%d]: name is required", i)
		}
		switch c.Type {
		case TypeIncome, TypeExpense:
		default:
			return nil, fmt.Errorf("rules: categories[%d]: type must be %q or %q", i, TypeIncome, TypeExpense)
		}
	}
	return &r, nil
}

func validateRule(section string, i int, r *Rule) error {
	if strings.TrimSpace(r.Pattern) == "" {
		return fmt.Errorf("rules: %s[%d]: pattern is required", section, i)
	}
	if strings.TrimSpace(r.Category) == "" {
		return fmt.Errorf("rules: %s[%d]: category is required", section, i)
	}
	switch r.Match {
	case "":
		r.Match = MatchContains
	case MatchExact, MatchContains:
	default:
		return fmt.Errorf("rules: %s[%d]: unknown match %q", section, i, r.Match)
	}
	return nil
}

// Guess returns the category for a transaction label. The amount sign picks
// which category names are tried as keywords.
func (r *Rules) Guess(label string, amount decimal.Decimal) Guess {
	clean := NormalizeDescription(label)
	if r == nil || clean == "" {
		return Guess{Source: SourceUnknown}
	}
	for _, rule := range r.Rules {
		if rule.Match == MatchExact && strings.ToLower(rule.Pattern) == clean {
			return Guess{Category: rule.Category, Source: SourceUserRule}
		}
	}
	for _, rule := range r.Rules {
		if rule.Match == MatchContains && strings.Contains(clean, strings.ToLower(rule.Pattern)) {
			return Guess{Category: rule.Category, Source: SourceUserRule}
		}
	}
	for _, rule := range r.Shared {
		if strings.Contains(clean, strings.ToLower(rule.Pattern)) {
			return Guess{Category: rule.Category, Source: SourceGlobalMatch}
		}
	}

	kind := TypeIncome
	if amount.IsNegative() {
		kind = TypeExpense
	}
	var names []string
	for _, c := range r.Categories {
		if c.Type == kind {
			names = append(names, c.Name)
		}
	}
	// Longest first so "Dining Out" wins over "Dining".
	sort.SliceStable(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
	for _, n := range names {
		if strings.Contains(clean, strings.ToLower(n)) {
			return Guess{Category: n, Source: SourceKeywordMatch}
		}
	}
	return Guess{Source: SourceUnknown}
}

// Apply fills the category of transactions that have none. Categories set
// by the backend are kept.
func (r *Rules) Apply(txs []transaction.Transaction) []transaction.Transaction {
	for i := range txs {
		if txs[i].Category != nil {
			continue
		}
		if g := r.Guess(txs[i].Label, txs[i].Amount); g.Source != SourceUnknown {
			txs[i].Category = transaction.StringPtr(g.Category)
		}
	}
	return txs
}

// Learn records that label belongs to category as a contains rule keyed by
// the normalized label. It reports false when the label is too short to
// learn from.
func (r *Rules) Learn(label, category string) (Rule, bool) {
	pattern := NormalizeDescription(label)
	if len(pattern) < minLearnLength || strings.TrimSpace(category) == "" {
		return Rule{}, false
	}
	rule := Rule{Pattern: pattern, Match: MatchContains, Category: category}
	for i := range r.Rules {
		if r.Rules[i].Pattern == pattern {
			r.Rules[i] = rule
			return rule, true
		}
	}
	r.Rules = append(r.Rules, rule)
	return rule, true
}
