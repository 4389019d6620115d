package kernel

import "github.com/golang/geo/s2"

// BoundingBox is the smallest latitude/longitude rectangle covering a set of
// locations. The zero value is empty.
type BoundingBox struct {
	rect s2.Rect
	set  bool
}

// NewBoundingBox covers all given locations.
func NewBoundingBox(locations ...Location) BoundingBox {
	var box BoundingBox
	for _, loc := range locations {
		box = box.Extend(loc.LatLng())
	}
	return box
}

// Extend returns a box that also covers ll.
func (b BoundingBox) Extend(ll s2.LatLng) BoundingBox {
	if !b.set {
		return BoundingBox{rect: s2.RectFromLatLng(ll), set: true}
	}
	return BoundingBox{rect: b.rect.AddPoint(ll), set: true}
}

// Union returns a box covering both b and other.
func (b BoundingBox) Union(other BoundingBox) BoundingBox {
	switch {
	case !b.set:
		return other
	case !other.set:
		return b
	default:
		return BoundingBox{rect: b.rect.Union(other.rect), set: true}
	}
}

func (b BoundingBox) IsEmpty() bool {
	return !b.set
}

// Degrees returns [minLon, minLat, maxLon, maxLat], the order used by GeoJSON bbox.
func (b BoundingBox) Degrees() [4]float64 {
	if !b.set {
		return [4]float64{}
	}
	lo, hi := b.rect.Lo(), b.rect.Hi()
	return [4]float64{lo.Lng.Degrees(), lo.Lat.Degrees(), hi.Lng.Degrees(), hi.Lat.Degrees()}
}
