// Package bidi resolves layout direction profiles and expands directional
// token references in stylesheet sources.
//
// A source is ordinary stylesheet text which names one of four directional
// tokens where a physical side or direction would otherwise be hard-coded:
//
//	.media {
//	  float: $default-float;
//	  padding-#{$opposite-float}: 10px;
//	  background-image: url("images/arrow-#{$default-float}.png");
//	}
//
// Expanding the source once per direction produces the concrete left-to-right
// and right-to-left stylesheets.
package bidi

import (
	"fmt"

	"bidic/common"
)

// Token names recognized in stylesheet sources.
const (
	TokenDefaultFloat      = "default-float"
	TokenOppositeFloat     = "opposite-float"
	TokenDefaultDirection  = "default-direction"
	TokenOppositeDirection = "opposite-direction"
)

// TokenNames returns all recognized token names.
func TokenNames() []string {
	return []string{
		TokenDefaultFloat,
		TokenOppositeFloat,
		TokenDefaultDirection,
		TokenOppositeDirection,
	}
}

// Profile is the resolved set of token bindings for one layout direction.
// Profiles are plain values, constructed once per direction and never
// modified afterwards.
type Profile struct {
	Direction         common.Direction
	DefaultFloat      string
	OppositeFloat     string
	DefaultDirection  string
	OppositeDirection string
}

// ResolveProfile returns the token bindings for the requested direction.
func ResolveProfile(d common.Direction) (Profile, error) {
	switch d {
	case common.DirectionLtr:
		return Profile{
			Direction:         common.DirectionLtr,
			DefaultFloat:      "left",
			OppositeFloat:     "right",
			DefaultDirection:  common.DirectionLtr.String(),
			OppositeDirection: common.DirectionRtl.String(),
		}, nil
	case common.DirectionRtl:
		return Profile{
			Direction:         common.DirectionRtl,
			DefaultFloat:      "right",
			OppositeFloat:     "left",
			DefaultDirection:  common.DirectionRtl.String(),
			OppositeDirection: common.DirectionLtr.String(),
		}, nil
	default:
		return Profile{}, fmt.Errorf("%s is %w", d, common.ErrInvalidDirection)
	}
}

// MustResolveProfile is like ResolveProfile and panics on invalid direction.
func MustResolveProfile(d common.Direction) Profile {
	p, err := ResolveProfile(d)
	if err != nil {
		panic(err)
	}
	return p
}

// Lookup returns the value bound to the given token name.
func (p Profile) Lookup(name string) (string, bool) {
	switch name {
	case TokenDefaultFloat:
		return p.DefaultFloat, true
	case TokenOppositeFloat:
		return p.OppositeFloat, true
	case TokenDefaultDirection:
		return p.DefaultDirection, true
	case TokenOppositeDirection:
		return p.OppositeDirection, true
	}
	return "", false
}

// Float resolves a logical float keyword against the profile. The left and
// right keywords map through the default and opposite float bindings, any
// other keyword is a literal CSS value and is returned unchanged.
func (p Profile) Float(keyword string) string {
	switch keyword {
	case "left":
		return p.DefaultFloat
	case "right":
		return p.OppositeFloat
	default:
		return keyword
	}
}

// TextAlign resolves a logical text-align keyword against the profile. Same
// mapping rules as Float.
func (p Profile) TextAlign(keyword string) string {
	return p.Float(keyword)
}
