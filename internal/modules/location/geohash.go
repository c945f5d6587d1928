// Package location ingests driver position pings and maintains the
// geographic index used by dispatch.
package location

import "strings"

const geohashBase32 = "0123456789bcdefghjkmnpqrstuvwxyz"

// CellPrecision is the geohash length stored on location records. Coarser
// cells are prefixes of it, so one stored string serves every search radius.
const CellPrecision = 7

// Encode returns the geohash of a coordinate at the given precision.
func Encode(lat, lng float64, precision int) string {
	latLo, latHi := -90.0, 90.0
	lngLo, lngHi := -180.0, 180.0

	var sb strings.Builder
	ch := 0
	bit := 0
	even := true
	for sb.Len() < precision {
		if even {
			mid := (lngLo + lngHi) / 2
			if lng >= mid {
				ch |= 1 << (4 - bit)
				lngLo = mid
			} else {
				lngHi = mid
			}
		} else {
			mid := (latLo + latHi) / 2
			if lat >= mid {
				ch |= 1 << (4 - bit)
				latLo = mid
			} else {
				latHi = mid
			}
		}
		even = !even
		if bit < 4 {
			bit++
		} else {
			sb.WriteByte(geohashBase32[ch])
			bit = 0
			ch = 0
		}
	}
	return sb.String()
}

// Decode returns the center of a geohash cell and the cell's half-width and
// half-height in degrees.
func Decode(cell string) (lat, lng, latErr, lngErr float64) {
	latLo, latHi := -90.0, 90.0
	lngLo, lngHi := -180.0, 180.0

	even := true
	for _, c := range cell {
		idx := strings.IndexRune(geohashBase32, c)
		if idx < 0 {
			break
		}
		for bit := 4; bit >= 0; bit-- {
			set := idx&(1<<bit) != 0
			if even {
				mid := (lngLo + lngHi) / 2
				if set {
					lngLo = mid
				} else {
					lngHi = mid
				}
			} else {
				mid := (latLo + latHi) / 2
				if set {
					latLo = mid
				} else {
					latHi = mid
				}
			}
			even = !even
		}
	}
	return (latLo + latHi) / 2, (lngLo + lngHi) / 2,
		(latHi - latLo) / 2, (lngHi - lngLo) / 2
}

// Neighbors returns the up-to-8 cells surrounding a cell at the same
// precision. Longitude wraps across the antimeridian; cells that would fall
// past the poles are dropped.
func Neighbors(cell string) []string {
	lat, lng, latErr, lngErr := Decode(cell)
	dLat := latErr * 2
	dLng := lngErr * 2

	out := make([]string, 0, 8)
	seen := map[string]bool{cell: true}
	for _, dy := range []float64{-1, 0, 1} {
		for _, dx := range []float64{-1, 0, 1} {
			if dy == 0 && dx == 0 {
				continue
			}
			nLat := lat + dy*dLat
			if nLat <= -90 || nLat >= 90 {
				continue
			}
			nLng := wrapLng(lng + dx*dLng)
			n := Encode(nLat, nLng, len(cell))
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}

// CoverCells returns the cell containing p and its ring of neighbors at the
// precision suited to radiusKm — the bounded candidate scan dispatch uses
// instead of a full driver table walk.
func CoverCells(lat, lng, radiusKm float64) []string {
	p := PrecisionForRadiusKm(radiusKm)
	center := Encode(lat, lng, p)
	return append([]string{center}, Neighbors(center)...)
}

// PrecisionForRadiusKm picks the geohash precision whose cell size keeps a
// center-plus-neighbors scan covering the given radius.
func PrecisionForRadiusKm(radiusKm float64) int {
	switch {
	case radiusKm <= 0.6:
		return 6 // ~1.2 x 0.6 km cells
	case radiusKm <= 2.5:
		return 5 // ~4.9 x 4.9 km cells
	case radiusKm <= 20:
		return 4 // ~39 x 19.5 km cells
	default:
		return 3
	}
}

func wrapLng(lng float64) float64 {
	for lng < -180 {
		lng += 360
	}
	for lng >= 180 {
		lng -= 360
	}
	return lng
}
