// Package query compiles a search profile into a Gmail query string.
package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/diasulisses/fiscal-fetch/internal/profile"
)

// DateRange is a parsed date window in Gmail's YYYY/MM/DD form.
type DateRange struct {
	After  string
	Before string
}

// ParseDateRange parses either a bare 4-digit year ("2024") or an ISO
// start:end pair ("2024-01-15:2024-06-30"). Anything else is a
// configuration error: an unbounded query must never be produced by
// accident.
func ParseDateRange(s string) (DateRange, error) {
	if strings.Contains(s, ":") {
		start, end, _ := strings.Cut(s, ":")
		st, err := time.Parse("2006-01-02", start)
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid date range %q: use YYYY-MM-DD:YYYY-MM-DD", s)
		}
		en, err := time.Parse("2006-01-02", end)
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid date range %q: use YYYY-MM-DD:YYYY-MM-DD", s)
		}
		return DateRange{After: st.Format("2006/01/02"), Before: en.Format("2006/01/02")}, nil
	}

	if len(s) == 4 {
		if _, err := time.Parse("2006", s); err == nil {
			return DateRange{After: s + "/01/01", Before: s + "/12/31"}, nil
		}
	}
	return DateRange{}, fmt.Errorf("unsupported date range %q: use YYYY or YYYY-MM-DD:YYYY-MM-DD", s)
}

// Build compiles a profile, a date range and the operator's own address
// into one Gmail search query. Senders and include keywords are
// OR-joined inside a parenthesized group, exclude keywords become
// negated quoted terms, and the query always carries has:attachment
// plus a not-from-self filter when selfEmail is known.
func Build(p *profile.Profile, dateRange, selfEmail string) (string, error) {
	window, err := ParseDateRange(dateRange)
	if err != nil {
		return "", err
	}

	var positive []string
	if len(p.FromSenders) > 0 {
		senders := make([]string, len(p.FromSenders))
		for i, s := range p.FromSenders {
			senders[i] = "from:" + s
		}
		positive = append(positive, "{"+strings.Join(senders, " OR ")+"}")
	}
	if len(p.IncludeKeywords) > 0 {
		keywords := make([]string, len(p.IncludeKeywords))
		for i, k := range p.IncludeKeywords {
			keywords[i] = fmt.Sprintf("%q", k)
		}
		positive = append(positive, strings.Join(keywords, " OR "))
	}

	var parts []string
	if len(positive) > 0 {
		parts = append(parts, "("+strings.Join(positive, " OR ")+")")
	}
	for _, k := range p.ExcludeKeywords {
		parts = append(parts, fmt.Sprintf("-%q", k))
	}
	parts = append(parts, "after:"+window.After, "before:"+window.Before, "has:attachment")
	if selfEmail != "" {
		parts = append(parts, "-from:"+selfEmail)
	}

	return strings.Join(parts, " "), nil
}
