// Enums are separated into their own package so that configuration, engine
// and command packages can share them without pulling each other in. Generated
// code lives next to this file (go tool go-enum).
package common

// Layout direction of a stylesheet.
// ENUM(ltr, rtl)
type Direction int

// Opposite returns the complement direction.
func (d Direction) Opposite() Direction {
	switch d {
	case DirectionLtr:
		return DirectionRtl
	case DirectionRtl:
		return DirectionLtr
	default:
		// this should never happen
		panic("unsupported direction requested")
	}
}

// Specification of how a missing directional SVG counterpart is synthesized.
// ENUM(transform, rasterize)
type SVGMirrorMode int
