package dispatch

import "strings"

// Filter narrows the board. Empty fields match everything; set fields combine with AND.
type Filter struct {
	Search string `json:"search,omitempty"`
	Status Status `json:"status,omitempty"`
	Date   string `json:"date,omitempty"`
}

// Match reports whether t passes every set criterion.
func (f Filter) Match(t Trip) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Date != "" && tripDay(t.TripDate) != f.Date {
		return false
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))
	if search == "" {
		return true
	}
	for _, field := range []string{t.VehicleNumber, t.RouteName, t.DriverName} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

// tripDay trims a timestamp to its YYYY-MM-DD prefix.
func tripDay(date string) string {
	if len(date) > 10 {
		return date[:10]
	}
	return date
}

// BoardRow is one trip plus the actions its status allows.
type BoardRow struct {
	Trip    Trip     `json:"trip"`
	Actions []Action `json:"actions"`
}

// Board is the trip list view.
type Board struct {
	Counts map[Status]int `json:"counts"`
	Total  int            `json:"total"`
	Filter Filter         `json:"filter"`
	Rows   []BoardRow     `json:"rows"`
}

// BuildBoard counts trips per status over the full list and returns the
// filtered rows. Counts ignore the filter.
func BuildBoard(trips []Trip, f Filter) Board {
	board := Board{
		Counts: make(map[Status]int, len(Statuses)),
		Total:  len(trips),
		Filter: f,
		Rows:   []BoardRow{},
	}
	for _, s := range Statuses {
		board.Counts[s] = 0
	}
	for _, t := range trips {
		board.Counts[t.Status]++
		if f.Match(t) {
			board.Rows = append(board.Rows, BoardRow{Trip: t, Actions: t.Status.Actions()})
		}
	}
	return board
}
