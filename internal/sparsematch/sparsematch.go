// Package sparsematch finds the candidate whose condition patterns best
// fit a query, memoizing the answer per distinct query.
package sparsematch

import (
	"go.uber.org/zap"

	"github.com/Faultbox/drawstate/pkg/condition"
)

// noMatchInverse is larger than any real inverse count, so the first
// pattern examined always beats the starting score.
const noMatchInverse = 999

// Candidate is anything with an ordered list of condition patterns.
type Candidate interface {
	ConditionCount() int
	Condition(i int) condition.Flags
	Description() string
}

// Finder memoizes best-match lookups. The zero value is not usable; use New.
//
// Lookups mutate the memo, so a Finder must not be shared between
// goroutines without external locking.
type Finder[T Candidate] struct {
	memo map[condition.Flags]result[T]
	log  *zap.Logger
}

type result[T any] struct {
	best  T
	found bool
}

// New returns an empty Finder logging diagnostics to log.
func New[T Candidate](log *zap.Logger) *Finder[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Finder[T]{
		memo: make(map[condition.Flags]result[T]),
		log:  log,
	}
}

// TryGetCached returns the memoized answer for query. It reports false
// when query has not been searched yet or the search found nothing.
func (f *Finder[T]) TryGetCached(query condition.Flags) (T, bool) {
	r := f.memo[query]
	return r.best, r.found
}

// FindBest returns the candidate that best fits query.
//
// A pattern scores (intersection, inverse): the number of query bits it
// has, and the number of its own bits the query lacks. Higher
// intersection wins; on equal intersection, lower inverse wins. Within a
// candidate, later patterns are examined first. On an exact tie the
// earlier winner is kept.
//
// The result is memoized, including a miss.
func (f *Finder[T]) FindBest(candidates []T, query condition.Flags) (T, bool) {
	if r, ok := f.memo[query]; ok {
		return r.best, r.found
	}

	var (
		best        T
		bestDesc    string
		bestIndex   = -1
		found       bool
		bestInter   = 0
		bestInverse = noMatchInverse
		extraTies   = 0
		tieDesc     string
	)

	for ci, c := range candidates {
		for i := c.ConditionCount() - 1; i >= 0; i-- {
			pattern := c.Condition(i)
			inter := query.CountIntersection(pattern)
			inverse := query.CountInverseIntersection(pattern)

			switch {
			case inter > bestInter || (inter == bestInter && inverse < bestInverse):
				best, bestDesc, found = c, c.Description(), true
				bestInter, bestInverse = inter, inverse
				extraTies, tieDesc = 0, ""
				bestIndex = ci
			case found && inter == bestInter && inverse == bestInverse && ci != bestIndex:
				if extraTies == 0 {
					tieDesc = c.Description()
				}
				extraTies++
			}
		}
	}

	if extraTies > 0 {
		f.log.Warn("ambiguous condition match",
			zap.String("chosen", bestDesc),
			zap.String("tied", tieDesc),
			zap.Int("extra_matches", extraTies),
			zap.Stringer("query", query),
		)
	}
	if !found {
		f.log.Error("no condition state matches query; table lacks a default state",
			zap.Stringer("query", query),
			zap.Int("candidates", len(candidates)),
		)
	}

	f.memo[query] = result[T]{best: best, found: found}
	return best, found
}

// Clear drops every memoized answer.
func (f *Finder[T]) Clear() {
	clear(f.memo)
}

// Len returns the number of memoized queries.
func (f *Finder[T]) Len() int {
	return len(f.memo)
}
