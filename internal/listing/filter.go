package listing

import (
	"sort"
	"strings"

	"pawbook/internal/models"
)

// SortDirection controls rating order of the clinic list.
type SortDirection int

const (
	// SortDescending is the default: best-rated clinics first.
	SortDescending SortDirection = iota
	SortAscending
)

// Options describe one filter/sort request from a screen.
type Options struct {
	Query   string        // free text, matched against name or location
	Service string        // service tag, empty matches all
	Sort    SortDirection // rating order
}

// Filter returns the clinics to display for the given options. It never
// mutates its input, has no side effects and is recomputed from scratch on
// every call. The sort is stable: equal ratings keep their input order.
func Filter(clinics []models.Clinic, opts Options) []models.Clinic {
	query := strings.ToLower(strings.TrimSpace(opts.Query))

	out := make([]models.Clinic, 0, len(clinics))
	for _, c := range clinics {
		if !matchesQuery(&c, query) {
			continue
		}
		if !c.Offers(opts.Service) {
			continue
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if opts.Sort == SortAscending {
			return out[i].Rating < out[j].Rating
		}
		return out[i].Rating > out[j].Rating
	})

	return out
}

// matchesQuery is a case-insensitive substring match against name OR
// location; the empty query matches everything.
func matchesQuery(c *models.Clinic, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), query) ||
		strings.Contains(strings.ToLower(c.Location), query)
}
