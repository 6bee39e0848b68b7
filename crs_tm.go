package tollzone

import (
	"math"

	"github.com/wroge/wgs84"
)

// transverseMercator is Gauss-Krueger projection evaluated with Krueger series up to 4th order of third flattening.
// Sub-millimeter within UTM / Gauss-Krueger zone widths. Latitude of origin is always equator.
// Implements wgs84.Projection
type transverseMercator struct {
	lon0          float64 // central meridian, degrees
	k0            float64
	falseEasting  float64
	falseNorthing float64
}

// krueger holds series coefficients of a spheroid
type krueger struct {
	rectifyingRadius float64
	e                float64
	alpha            [4]float64
	beta             [4]float64
	delta            [4]float64
}

func newKrueger(s wgs84.Spheroid) krueger {
	f := 1.0 / s.Fi()
	n := f / (2 - f)
	n2 := n * n
	n3 := n2 * n
	n4 := n3 * n
	return krueger{
		rectifyingRadius: s.A() / (1 + n) * (1 + n2/4 + n4/64),
		e:                math.Sqrt(f * (2 - f)),
		alpha: [4]float64{
			n/2 - 2*n2/3 + 5*n3/16 + 41*n4/180,
			13*n2/48 - 3*n3/5 + 557*n4/1440,
			61*n3/240 - 103*n4/140,
			49561 * n4 / 161280,
		},
		beta: [4]float64{
			n/2 - 2*n2/3 + 37*n3/96 - n4/360,
			n2/48 + n3/15 - 437*n4/1440,
			17*n3/480 - 37*n4/840,
			4397 * n4 / 161280,
		},
		delta: [4]float64{
			2*n - 2*n2/3 - 2*n3 + 116*n4/45,
			7*n2/3 - 8*n3/5 - 227*n4/45,
			56*n3/15 - 136*n4/35,
			4279 * n4 / 630,
		},
	}
}

// FromLonLat projects longitude/latitude (degrees, on the given spheroid) to easting/northing
func (tm transverseMercator) FromLonLat(lon, lat float64, s wgs84.Spheroid) (float64, float64) {
	kr := newKrueger(s)
	phi := lat * math.Pi / 180
	lam := (lon - tm.lon0) * math.Pi / 180

	sinPhi := math.Sin(phi)
	t := math.Sinh(math.Atanh(sinPhi) - kr.e*math.Atanh(kr.e*sinPhi))
	xiP := math.Atan2(t, math.Cos(lam))
	etaP := math.Atanh(math.Sin(lam) / math.Sqrt(1+t*t))

	xi, eta := xiP, etaP
	for j, a := range kr.alpha {
		k := 2 * float64(j+1)
		xi += a * math.Sin(k*xiP) * math.Cosh(k*etaP)
		eta += a * math.Cos(k*xiP) * math.Sinh(k*etaP)
	}
	scale := tm.k0 * kr.rectifyingRadius
	return tm.falseEasting + scale*eta, tm.falseNorthing + scale*xi
}

// ToLonLat converts easting/northing back to longitude/latitude (degrees)
func (tm transverseMercator) ToLonLat(east, north float64, s wgs84.Spheroid) (float64, float64) {
	kr := newKrueger(s)
	scale := tm.k0 * kr.rectifyingRadius
	xi := (north - tm.falseNorthing) / scale
	eta := (east - tm.falseEasting) / scale

	xiP, etaP := xi, eta
	for j, b := range kr.beta {
		k := 2 * float64(j+1)
		xiP -= b * math.Sin(k*xi) * math.Cosh(k*eta)
		etaP -= b * math.Cos(k*xi) * math.Sinh(k*eta)
	}
	chi := math.Asin(math.Sin(xiP) / math.Cosh(etaP))
	lam := math.Atan2(math.Sinh(etaP), math.Cos(xiP))

	phi := chi
	for j, d := range kr.delta {
		phi += d * math.Sin(2*float64(j+1)*chi)
	}
	return tm.lon0 + lam*180/math.Pi, phi * 180 / math.Pi
}

func transverseMercatorSystem(datum wgs84.Datum, lon0, k0, falseEasting, falseNorthing float64) wgs84.ProjectedReferenceSystem {
	return wgs84.ProjectedReferenceSystem{
		Datum: datum,
		Projection: transverseMercator{
			lon0:          lon0,
			k0:            k0,
			falseEasting:  falseEasting,
			falseNorthing: falseNorthing,
		},
	}
}
