package cache

import (
	"regexp"
	"time"
)

// Section queries embed dates computed from "now minus N days"
// (e.g. closed:>=2024-01-01), so the raw query changes between runs
// even though it means the same thing. Keys are normalized before
// hashing by replacing every date comparison clause with a fixed
// placeholder, and the original query's clauses are re-checked on read.

const datePlaceholder = "<date>"

var (
	dateClauseRe = regexp.MustCompile(
		`\b(created|updated|closed|merged):(?:>=|<=|>|<)?\d{4}-\d{2}-\d{2}(?:T\d{2}:\d{2}:\d{2}(?:Z|[+-]\d{2}:\d{2})?)?`)

	hasDateClauseRe = regexp.MustCompile(
		`\b(?:created|updated|closed|merged):(?:>=|<=|>|<)?\d{4}-\d{2}-\d{2}`)
)

// NormalizeQuery rewrites every date comparison clause in q to a fixed
// placeholder so that two queries differing only in embedded date
// literals map to the same cache key. Normalization is idempotent.
func NormalizeQuery(q string) string {
	return dateClauseRe.ReplaceAllString(q, "${1}:"+datePlaceholder)
}

// dateClausesFresh reports whether the date clauses in a cached query
// still mean what they meant at write time. Embedded dates are day
// granularity and derived from "today", so their meaning moves at UTC
// midnight: an entry written yesterday for closed:>=X is stale today
// even if its raw TTL has not elapsed.
func dateClausesFresh(query string, writtenAt, now time.Time) bool {
	if !hasDateClauseRe.MatchString(query) {
		return true
	}
	wy, wm, wd := writtenAt.UTC().Date()
	ny, nm, nd := now.UTC().Date()
	return wy == ny && wm == nm && wd == nd
}
