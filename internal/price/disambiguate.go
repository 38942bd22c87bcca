package price

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Priority ranks where a candidate came from. Lower is more trustworthy.
type Priority int

const (
	PrioritySchema   Priority = iota // schema.org microdata / data-price attributes
	PriorityExplicit                 // curated price class names and marketplace selectors
	PriorityGeneric                  // "class or id contains price" catch-alls
)

// Candidate is one price read from one page element.
type Candidate struct {
	Price    Parsed
	Priority Priority
}

type distinct struct {
	price    Parsed
	priority Priority
	first    int
}

// MostLikely picks one price out of the candidates harvested from a page.
//
// The common case is the same price repeated in several nodes, which is
// returned directly. When the page disagrees with itself the most trusted
// selector category wins; inside that category the value nearest to the
// median of all candidates wins, so a single "was $X" figure cannot skew the
// result. Remaining ties go to the earliest candidate.
func MostLikely(cands []Candidate) (Parsed, bool) {
	if len(cands) == 0 {
		return Parsed{}, false
	}

	var values []distinct
	for i, c := range cands {
		found := false
		for j := range values {
			if values[j].price.Equal(c.Price) {
				if c.Priority < values[j].priority {
					values[j].priority = c.Priority
				}
				found = true
				break
			}
		}
		if !found {
			values = append(values, distinct{price: c.Price, priority: c.Priority, first: i})
		}
	}
	if len(values) == 1 {
		return values[0].price, true
	}

	best := values[0].priority
	for _, v := range values[1:] {
		if v.priority < best {
			best = v.priority
		}
	}
	var top []distinct
	for _, v := range values {
		if v.priority == best {
			top = append(top, v)
		}
	}
	if len(top) == 1 {
		return top[0].price, true
	}

	mid := median(cands)
	pick := top[0]
	pickDist := pick.price.Amount.Sub(mid).Abs()
	for _, v := range top[1:] {
		d := v.price.Amount.Sub(mid).Abs()
		if d.LessThan(pickDist) || (d.Equal(pickDist) && v.first < pick.first) {
			pick, pickDist = v, d
		}
	}
	return pick.price, true
}

func median(cands []Candidate) decimal.Decimal {
	amounts := make([]decimal.Decimal, len(cands))
	for i, c := range cands {
		amounts[i] = c.Price.Amount
	}
	sort.Slice(amounts, func(i, j int) bool { return amounts[i].LessThan(amounts[j]) })
	n := len(amounts)
	if n%2 == 1 {
		return amounts[n/2]
	}
	return amounts[n/2-1].Add(amounts[n/2]).Div(decimal.NewFromInt(2))
}
