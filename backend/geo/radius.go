package geo

import (
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// Mean earth radius in meters.
const earthRadiusMeters = 6371008.8

func AngleFromMeters(m float64) s1.Angle {
	return s1.Angle(m / earthRadiusMeters)
}

func MetersFromAngle(a s1.Angle) float64 {
	return a.Radians() * earthRadiusMeters
}

// BBox is a latitude/longitude box in degrees. When WrapsLng is set the box
// crosses the antimeridian and covers LngMin..180 and -180..LngMax.
type BBox struct {
	LatMin   float64
	LatMax   float64
	LngMin   float64
	LngMax   float64
	WrapsLng bool
}

// Circle is a spherical cap around a center point.
type Circle struct {
	center s2.LatLng
	cap    s2.Cap
}

func NewCircle(lat, lng, meters float64) Circle {
	center := s2.LatLngFromDegrees(lat, lng)
	return Circle{
		center: center,
		cap:    s2.CapFromCenterAngle(s2.PointFromLatLng(center), AngleFromMeters(meters)),
	}
}

// Bounds returns the smallest lat/lng box containing the circle, used to
// narrow SQL candidates before the exact distance check.
func (c Circle) Bounds() BBox {
	rect := c.cap.RectBound()
	b := BBox{
		LatMin: s1.Angle(rect.Lat.Lo).Degrees(),
		LatMax: s1.Angle(rect.Lat.Hi).Degrees(),
	}
	if rect.Lng.IsFull() {
		b.LngMin, b.LngMax = -180, 180
		return b
	}
	b.LngMin = s1.Angle(rect.Lng.Lo).Degrees()
	b.LngMax = s1.Angle(rect.Lng.Hi).Degrees()
	b.WrapsLng = rect.Lng.IsInverted()
	return b
}

// DistanceMeters is the great-circle distance from the center.
func (c Circle) DistanceMeters(lat, lng float64) float64 {
	return MetersFromAngle(c.center.Distance(s2.LatLngFromDegrees(lat, lng)))
}

func (c Circle) Contains(lat, lng float64) bool {
	return c.cap.ContainsPoint(s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lng)))
}
