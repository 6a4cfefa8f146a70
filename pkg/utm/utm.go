// Package utm converts between WGS84 geographic coordinates and Universal
// Transverse Mercator grid coordinates using the Krüger series in the third
// flattening, which stays well below a millimetre of error inside a zone.
package utm

import (
	"errors"
	"fmt"
	"math"
)

const (
	semiMajorAxis    = 6378137.0
	flattening       = 1 / 298.257223563
	scaleFactor      = 0.9996
	falseEasting     = 500000.0
	southernNorthing = 10000000.0

	// Grid limits used to reject input that cannot belong to a zone.
	maxEasting  = 1000000.0
	maxNorthing = 9400000.0
)

// ErrOutOfDomain is returned for grid coordinates that cannot lie in the zone.
var ErrOutOfDomain = errors.New("utm: coordinates outside zone domain")

// Transformer holds the precomputed constants for one zone. It is immutable
// after construction and safe for concurrent use.
type Transformer struct {
	north         bool
	centralLon    float64
	falseNorthing float64
	radius        float64 // k0 * A, the scaled rectifying radius
	n             float64
	alpha         [3]float64
	beta          [3]float64
	delta         [3]float64
}

// New returns a Transformer for the given zone (1..60) and hemisphere.
func New(zone int, north bool) (*Transformer, error) {
	if zone < 1 || zone > 60 {
		return nil, fmt.Errorf("utm: invalid zone %d", zone)
	}
	n := flattening / (2 - flattening)
	n2, n3 := n*n, n*n*n
	A := semiMajorAxis / (1 + n) * (1 + n2/4 + n2*n2/64)

	t := &Transformer{
		north:      north,
		centralLon: float64(zone*6-183) * math.Pi / 180,
		radius:     scaleFactor * A,
		n:          n,
		alpha:      [3]float64{n/2 - 2*n2/3 + 5*n3/16, 13*n2/48 - 3*n3/5, 61 * n3 / 240},
		beta:       [3]float64{n/2 - 2*n2/3 + 37*n3/96, n2/48 + n3/15, 17 * n3 / 480},
		delta:      [3]float64{2*n - 2*n2/3 - 2*n3, 7*n2/3 - 8*n3/5, 56 * n3 / 15},
	}
	if !north {
		t.falseNorthing = southernNorthing
	}
	return t, nil
}

// Zone32N is EPSG:32632, the grid used by the Aachen heritage registry.
func Zone32N() *Transformer {
	t, _ := New(32, true)
	return t
}

// Inverse converts grid coordinates in meters to latitude and longitude in
// decimal degrees.
func (t *Transformer) Inverse(easting, northing float64) (lat, lon float64, err error) {
	upper := maxNorthing
	if !t.north {
		upper = southernNorthing
	}
	if !finite(easting) || !finite(northing) ||
		easting < 0 || easting > maxEasting ||
		northing < 0 || northing > upper {
		return 0, 0, fmt.Errorf("%w: easting=%v northing=%v", ErrOutOfDomain, easting, northing)
	}

	xi := (northing - t.falseNorthing) / t.radius
	eta := (easting - falseEasting) / t.radius

	xiP, etaP := xi, eta
	for j := 0; j < 3; j++ {
		k := float64(2 * (j + 1))
		xiP -= t.beta[j] * math.Sin(k*xi) * math.Cosh(k*eta)
		etaP -= t.beta[j] * math.Cos(k*xi) * math.Sinh(k*eta)
	}

	chi := math.Asin(math.Sin(xiP) / math.Cosh(etaP))
	phi := chi
	for j := 0; j < 3; j++ {
		phi += t.delta[j] * math.Sin(float64(2*(j+1))*chi)
	}
	lambda := t.centralLon + math.Atan2(math.Sinh(etaP), math.Cos(xiP))

	return phi * 180 / math.Pi, normalizeLon(lambda * 180 / math.Pi), nil
}

// Forward converts latitude and longitude in decimal degrees to grid
// coordinates of this zone. It does not check that the point lies in the zone.
func (t *Transformer) Forward(lat, lon float64) (easting, northing float64) {
	phi := lat * math.Pi / 180
	lambda := lon*math.Pi/180 - t.centralLon

	c := 2 * math.Sqrt(t.n) / (1 + t.n)
	tau := math.Sinh(math.Atanh(math.Sin(phi)) - c*math.Atanh(c*math.Sin(phi)))
	xiP := math.Atan2(tau, math.Cos(lambda))
	etaP := math.Atanh(math.Sin(lambda) / math.Sqrt(1+tau*tau))

	xi, eta := xiP, etaP
	for j := 0; j < 3; j++ {
		k := float64(2 * (j + 1))
		xi += t.alpha[j] * math.Sin(k*xiP) * math.Cosh(k*etaP)
		eta += t.alpha[j] * math.Cos(k*xiP) * math.Sinh(k*etaP)
	}
	return falseEasting + t.radius*eta, t.falseNorthing + t.radius*xi
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func normalizeLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}
