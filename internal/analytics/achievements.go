package analytics

import (
	"fmt"
	"math"
	"slices"
)

type Category string

const (
	CategoryTasks Category = "tasks"
	CategoryTime  Category = "time"
)

type Tier string

const (
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
)

func (t Tier) rank() int {
	switch t {
	case TierGold:
		return 2
	case TierSilver:
		return 1
	}
	return 0
}

// Rule unlocks an achievement once a cumulative statistic reaches Threshold.
type Rule struct {
	Category    Category `toml:"category"`
	Tier        Tier     `toml:"tier"`
	Threshold   float64  `toml:"threshold"`
	Title       string   `toml:"title"`
	Description string   `toml:"description"`
}

func (r Rule) Validate() error {
	switch r.Category {
	case CategoryTasks, CategoryTime:
	default:
		return fmt.Errorf("achievement %q: unknown category %q", r.Title, r.Category)
	}
	if r.Tier.rank() == 0 {
		return fmt.Errorf("achievement %q: unknown tier %q", r.Title, r.Tier)
	}
	if r.Threshold <= 0 || math.IsNaN(r.Threshold) || math.IsInf(r.Threshold, 0) {
		return fmt.Errorf("achievement %q: threshold must be positive", r.Title)
	}
	if r.Title == "" {
		return fmt.Errorf("achievement in category %q has no title", r.Category)
	}
	return nil
}

// DefaultRules is the built-in achievement table.
func DefaultRules() []Rule {
	return []Rule{
		{Category: CategoryTasks, Tier: TierGold, Threshold: 10, Title: "Task Master", Description: "10+ completed tasks"},
		{Category: CategoryTasks, Tier: TierSilver, Threshold: 5, Title: "Task Achiever", Description: "5+ completed tasks"},
		{Category: CategoryTime, Tier: TierGold, Threshold: 40, Title: "Time Tracker Pro", Description: "40+ hours logged"},
	}
}

// Stats are the cumulative figures achievements are judged on.
type Stats struct {
	CompletedTasks int
	TotalHours     float64
}

func (s Stats) value(c Category) float64 {
	switch c {
	case CategoryTasks:
		return float64(s.CompletedTasks)
	case CategoryTime:
		return s.TotalHours
	}
	return 0
}

// Achievement is an unlocked rule.
type Achievement struct {
	Category    Category
	Tier        Tier
	Title       string
	Description string
}

// Evaluator holds a rule table grouped by category, each group ordered
// from the highest threshold down. It keeps no record of what was
// unlocked before; every call judges the stats it is given.
type Evaluator struct {
	categories []Category
	rules      map[Category][]Rule
}

func NewEvaluator(rules []Rule) (*Evaluator, error) {
	e := &Evaluator{rules: make(map[Category][]Rule)}
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, seen := e.rules[r.Category]; !seen {
			e.categories = append(e.categories, r.Category)
		}
		e.rules[r.Category] = append(e.rules[r.Category], r)
	}
	for _, c := range e.categories {
		slices.SortStableFunc(e.rules[c], func(a, b Rule) int {
			switch {
			case a.Threshold > b.Threshold:
				return -1
			case a.Threshold < b.Threshold:
				return 1
			}
			return b.Tier.rank() - a.Tier.rank()
		})
	}
	return e, nil
}

// Evaluate returns at most one achievement per category: the highest rule
// whose threshold is met. Categories are reported in rule-table order.
func (e *Evaluator) Evaluate(s Stats) []Achievement {
	var out []Achievement
	for _, c := range e.categories {
		v := s.value(c)
		for _, r := range e.rules[c] {
			if v >= r.Threshold {
				out = append(out, Achievement{
					Category:    r.Category,
					Tier:        r.Tier,
					Title:       r.Title,
					Description: r.Description,
				})
				break
			}
		}
	}
	return out
}
