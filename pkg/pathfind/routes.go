package pathfind

import "errors"

// FixedRoute is a pre-authored, named sequence of stops
type FixedRoute struct {
	Name  string   `json:"name" koanf:"name"`
	Stops []string `json:"stops" koanf:"stops"`
}

// RouteCheck is the result of validating a fixed route against the live graph
type RouteCheck struct {
	Name     string   `json:"name"`
	Stops    []string `json:"stops"`
	Valid    bool     `json:"valid"`
	Distance float64  `json:"distance,omitempty"`
	BrokenAt []string `json:"brokenAt,omitempty"` // Offending pair when invalid
	Error    string   `json:"error,omitempty"`
}

// CheckRoutes validates every fixed route. Only valid routes should be offered to the user.
func (f *Finder) CheckRoutes(routes []FixedRoute) []RouteCheck {
	checks := make([]RouteCheck, 0, len(routes))
	for _, r := range routes {
		check := RouteCheck{Name: r.Name, Stops: r.Stops}

		dist, err := f.ValidateFixedRoute(r.Stops)
		if err != nil {
			check.Error = err.Error()
			var broken *BrokenRouteError
			if errors.As(err, &broken) {
				check.BrokenAt = []string{broken.From, broken.To}
			}
		} else {
			check.Valid = true
			check.Distance = dist
		}
		checks = append(checks, check)
	}
	return checks
}
