package stations

import (
	"github.com/golang/geo/r2"

	"github.com/banshee-data/dwell.report/internal/rtls"
)

// Assign maps one position to a station id. Stations are scanned in
// ascending id order and the first zone containing the point wins:
// where two circles overlap, the lower id takes the point even when
// the other centre is closer. The second return is false when the
// point lies outside every zone (in transit).
func Assign(p r2.Point, geometries []rtls.StationGeometry) (int, bool) {
	for _, g := range geometries {
		if g.Contains(p) {
			return g.ID, true
		}
	}
	return 0, false
}
