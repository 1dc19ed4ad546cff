package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/ritzau/campus-nav/pkg/engine"
	"github.com/ritzau/campus-nav/pkg/importer"
	"github.com/ritzau/campus-nav/pkg/pathfind"
)

var (
	bold   = color.New(color.Bold)
	red    = color.New(color.FgRed)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
)

// PrintRoute prints the shortest route between two locations, or why there is none
func PrintRoute(w io.Writer, from, to string, route pathfind.Route, err error) {
	bold.Fprintf(w, "Route %s -> %s\n", from, to)
	bold.Fprintln(w, strings.Repeat("=", len(from)+len(to)+10))

	if err != nil {
		red.Fprintf(w, "No route: %v\n", err)
		return
	}

	for i, stop := range route.Nodes {
		marker := "  "
		if i == 0 || i == len(route.Nodes)-1 {
			marker = "* "
		}
		cyan.Fprintf(w, "%s%d. %s\n", marker, i+1, stop)
	}
	fmt.Fprintln(w)
	green.Fprintf(w, "Distance: %s m (%d stops)\n", formatMetres(route.Distance), len(route.Nodes))
}

// PrintRouteChecks prints the recommended routes and whether each is walkable
func PrintRouteChecks(w io.Writer, checks []pathfind.RouteCheck) {
	bold.Fprintln(w, "Recommended routes")
	bold.Fprintln(w, "==================")

	valid := 0
	for _, c := range checks {
		if c.Valid {
			valid++
			green.Fprintf(w, "✓ %s", c.Name)
			fmt.Fprintf(w, " (%s m)\n", formatMetres(c.Distance))
		} else {
			red.Fprintf(w, "✗ %s\n", c.Name)
			if len(c.BrokenAt) == 2 {
				yellow.Fprintf(w, "    Broken between %s and %s\n", c.BrokenAt[0], c.BrokenAt[1])
			} else {
				yellow.Fprintf(w, "    %s\n", c.Error)
			}
		}
		fmt.Fprintf(w, "    %s\n", strings.Join(c.Stops, " -> "))
	}

	fmt.Fprintln(w)
	summary := green
	if valid < len(checks) {
		summary = yellow
	}
	summary.Fprintf(w, "Summary: %d/%d routes available\n", valid, len(checks))
}

// PrintImportSummary prints what an import changed
func PrintImportSummary(w io.Writer, s importer.Summary) {
	bold.Fprintf(w, "Import (%s)\n", s.Mode)
	fmt.Fprintf(w, "Locations: %d added, %d updated\n", s.NodesAdded, s.NodesUpdated)
	fmt.Fprintf(w, "Paths: %d added", s.EdgesAdded)
	if s.EdgesSkipped > 0 {
		yellow.Fprintf(w, ", %d duplicate(s) skipped", s.EdgesSkipped)
	}
	fmt.Fprintln(w)
	if s.DefaultsInjected > 0 {
		cyan.Fprintf(w, "Default positions used: %d\n", s.DefaultsInjected)
	}
}

// PrintStats prints the size and connectivity of the map
func PrintStats(w io.Writer, s engine.Stats) {
	bold.Fprintln(w, "Campus map")
	fmt.Fprintf(w, "Locations: %d\n", s.Locations)
	fmt.Fprintf(w, "Paths: %d\n", s.Paths)

	if len(s.Components) <= 1 {
		green.Fprintln(w, "All locations are connected")
		return
	}
	yellow.Fprintf(w, "%d separate parts:\n", len(s.Components))
	for _, part := range s.Components {
		fmt.Fprintf(w, "  %s\n", strings.Join(part, ", "))
	}
}

// formatMetres drops the fraction for whole distances
func formatMetres(d float64) string {
	if d == float64(int64(d)) {
		return fmt.Sprintf("%d", int64(d))
	}
	return fmt.Sprintf("%.1f", d)
}
