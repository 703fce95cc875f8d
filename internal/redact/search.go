package redact

import (
	"github.com/rs/zerolog"

	"pdfscrub/internal/patterns"
)

// PagePlan is the set of regions to blank on one page.
type PagePlan struct {
	Header, Footer Rect

	// HeaderApplied and FooterApplied are set for every band of non-zero height.
	HeaderApplied bool
	FooterApplied bool

	// Matches are the pattern rectangles left after filtering, ordered by
	// (top, left).
	Matches []Rect

	// Suppressed counts match rectangles dropped for touching a band.
	Suppressed int
}

// Fills returns every rectangle to paint, bands first.
func (p PagePlan) Fills() []Rect {
	fills := make([]Rect, 0, len(p.Matches)+2)
	if p.HeaderApplied {
		fills = append(fills, p.Header)
	}
	if p.FooterApplied {
		fills = append(fills, p.Footer)
	}
	return append(fills, p.Matches...)
}

// Count is the number of redactions the plan applies.
func (p PagePlan) Count() int {
	return len(p.Fills())
}

// SearchPage runs every compiled pattern over the page text and returns the
// raw match rectangles. A pattern that fails on this page is reported in errs
// and contributes nothing; the remaining patterns still run.
func SearchPage(pt *PageText, compiled []patterns.Compiled) (rects []Rect, errs []error) {
	for _, c := range compiled {
		found, err := pt.Search(c.Re)
		if err != nil {
			errs = append(errs, &patterns.PatternError{
				Index:   -1,
				Source:  c.Entry.Source,
				Err:     err,
				Details: "search " + c.Expression,
			})
			continue
		}
		rects = append(rects, found...)
	}
	return rects, errs
}

// PlanPage decides what to blank on a page of the given size. Both bands are
// always applied, whatever the page draws in them. With no text layer
// (pt == nil) no patterns are searched.
func PlanPage(pt *PageText, width, height float64, cfg Config, compiled []patterns.Compiled, log zerolog.Logger) PagePlan {
	var plan PagePlan
	plan.Header, plan.Footer = FixedRegions(width, height, cfg.HeaderHeight, cfg.FooterHeight)
	plan.HeaderApplied = !plan.Header.IsEmpty()
	plan.FooterApplied = !plan.Footer.IsEmpty()

	if pt == nil {
		return plan
	}

	raw, errs := SearchPage(pt, compiled)
	for _, err := range errs {
		log.Warn().Err(err).Msg("Pattern skipped for page")
	}

	plan.Matches = FilterMatches(raw, plan.Header, plan.Footer)
	plan.Suppressed = len(raw) - len(plan.Matches)
	return plan
}
