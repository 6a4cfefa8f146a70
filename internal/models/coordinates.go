package models

import (
	"fmt"
	"math"
)

// Coordinate is a WGS84 latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewCoordinate validates the ranges lat ∈ [-90, 90] and lng ∈ [-180, 180].
func NewCoordinate(lat, lng float64) (Coordinate, error) {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return Coordinate{}, fmt.Errorf("latitude %v out of range", lat)
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return Coordinate{}, fmt.Errorf("longitude %v out of range", lng)
	}
	return Coordinate{Lat: lat, Lng: lng}, nil
}

// ProjectedPoint is a position in EPSG:32632 (UTM zone 32N), in meters.
type ProjectedPoint struct {
	Easting  float64
	Northing float64
}

// AxisOrder says which of the two numbers printed on a detail page is the
// easting and which the northing.
type AxisOrder string

const (
	EastingNorthing AxisOrder = "easting_northing"
	NorthingEasting AxisOrder = "northing_easting"
)

func ParseAxisOrder(s string) (AxisOrder, error) {
	switch o := AxisOrder(s); o {
	case EastingNorthing, NorthingEasting:
		return o, nil
	default:
		return "", fmt.Errorf("unknown axis order %q (want %q or %q)", s, EastingNorthing, NorthingEasting)
	}
}

// Point assigns the pair (first, second), in page order, to projected axes.
func (o AxisOrder) Point(first, second float64) ProjectedPoint {
	if o == NorthingEasting {
		return ProjectedPoint{Easting: second, Northing: first}
	}
	return ProjectedPoint{Easting: first, Northing: second}
}
