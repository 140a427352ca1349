// Package config reads rotor and blade builds from INI parameter files and
// program defaults from the environment.
//
// A parameter file has the sections [rotor], [blade], [hub], [shroud] and
// [build]. Every key is optional and defaults to the builders' defaults.
// Unknown sections and keys are rejected. The hub spans the rotor, so
// [hub] tot_length is the same value as [rotor] tot_length and either may
// be given.
//
//	[rotor]
//	n_blades = 5
//	tot_length = 3
//
//	[blade]
//	profile_type = NACA
//	lead_angle_factor = 3
//
//	[build]
//	fillet_radius = 0.01
package config

import (
	"fmt"
	"math"

	"github.com/soypat/axial"
	"github.com/soypat/axial/blade"
	"github.com/soypat/axial/hub"
	"github.com/soypat/axial/rotor"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/ini.v1"
)

// UnknownKeyError reports a section or key the parameter file may not hold.
// Key is empty for an unknown section.
type UnknownKeyError struct {
	Section string
	Key     string
}

func (e *UnknownKeyError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("config: unknown section [%s]", e.Section)
	}
	return fmt.Sprintf("config: unknown key %q in [%s]", e.Key, e.Section)
}

func (e *UnknownKeyError) Unwrap() error { return axial.ErrInvalidInput }

var known = map[string][]string{
	"rotor": {"n_blades", "tot_length", "max_radius", "blade_clearance"},
	"blade": {
		"profile_type", "blade_length", "thickness", "camber_position",
		"min_radius", "max_radius", "axis", "origin",
		"lead_angle_factor", "camber_angle",
	},
	"hub": {
		"type", "tot_length", "radius", "front_length", "back_length", "front_angle", "back_angle",
		"front_fillet_radius", "back_fillet_radius", "facets",
	},
	"shroud": {"shroud_thickness", "shroud_slant_angle", "in_fillet_radius", "out_fillet_radius"},
	"build":  {"u_points", "v_points", "seams", "fillet_radius", "backoff_factor", "backoff_floor"},
}

// Config is a parsed parameter file.
type Config struct {
	// Rotor is the full rotor build. Its blade dimensions are derived from
	// the rotor and hub, so blade_length, min_radius, max_radius, axis and
	// origin of [blade] only affect Blade.
	Rotor rotor.Parameters
	// Blade is a standalone blade build.
	Blade    blade.Parameters
	Sampling blade.Sampling
	// FilletRadius is the requested blade fillet radius, zero for none.
	FilletRadius float64
	Backoff      rotor.Backoff
}

// Default returns the configuration of an empty parameter file.
func Default() *Config {
	return &Config{
		Rotor:        rotor.DefaultParameters(),
		Blade:        blade.DefaultParameters(),
		Sampling:     blade.DefaultSampling(),
		FilletRadius: 0.01,
		Backoff:      rotor.DefaultBackoff(),
	}
}

// Load reads the parameter file at path.
func Load(path string) (*Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return parse(f)
}

// Parse reads a parameter file from memory.
func Parse(data []byte) (*Config, error) {
	f, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("config: %v: %w", err, axial.ErrInvalidInput)
	}
	return parse(f)
}

func parse(f *ini.File) (*Config, error) {
	if err := checkKeys(f); err != nil {
		return nil, err
	}
	c := Default()
	r := reader{f: f}

	rp := &c.Rotor
	r.int("rotor", "n_blades", &rp.Blades)
	rotorLength := r.float("rotor", "tot_length", &rp.Length)
	r.float("rotor", "max_radius", &rp.MaxRadius)
	r.float("rotor", "blade_clearance", &rp.Clearance)

	bp := &c.Blade
	if r.kind("blade", "profile_type", &bp.Kind) {
		rp.Kind = bp.Kind
	}
	r.float("blade", "blade_length", &bp.Length)
	if r.float("blade", "thickness", &bp.Thickness) {
		rp.Thickness = bp.Thickness
	}
	if r.float("blade", "camber_position", &bp.CamberPosition) {
		rp.CamberPosition = bp.CamberPosition
	}
	r.float("blade", "min_radius", &bp.MinRadius)
	r.float("blade", "max_radius", &bp.MaxRadius)
	r.vec("blade", "axis", &bp.Axis)
	r.vec("blade", "origin", &bp.Origin)
	var factor float64
	if r.float("blade", "lead_angle_factor", &factor) {
		bp.LeadAngle = LeadAngle(factor)
		rp.LeadAngle = bp.LeadAngle
	}
	var camber float64
	if r.float("blade", "camber_angle", &camber) {
		bp.CamberAngle = ConstantAngle(camber)
		rp.CamberAngle = bp.CamberAngle
	}

	hp := &rp.Hub
	r.hubKind("hub", "type", &hp.Kind)
	// The hub spans the whole rotor.
	var hubLength float64
	if r.float("hub", "tot_length", &hubLength) {
		if rotorLength && hubLength != rp.Length {
			r.fail("hub", "tot_length", fmt.Errorf("%g differs from [rotor] tot_length %g", hubLength, rp.Length))
		} else {
			rp.Length = hubLength
		}
	}
	r.float("hub", "radius", &hp.Radius)
	r.float("hub", "front_length", &hp.FrontLength)
	r.float("hub", "back_length", &hp.BackLength)
	r.float("hub", "front_angle", &hp.FrontAngle)
	r.float("hub", "back_angle", &hp.BackAngle)
	r.float("hub", "front_fillet_radius", &hp.FrontFillet)
	r.float("hub", "back_fillet_radius", &hp.BackFillet)
	r.int("hub", "facets", &hp.Facets)

	r.float("shroud", "shroud_thickness", &rp.ShroudThickness)
	r.float("shroud", "shroud_slant_angle", &rp.Slant)
	r.float("shroud", "in_fillet_radius", &rp.ShroudInFillet)
	r.float("shroud", "out_fillet_radius", &rp.ShroudOutFillet)

	r.int("build", "u_points", &c.Sampling.UPoints)
	r.int("build", "v_points", &c.Sampling.VPoints)
	r.floats("build", "seams", &c.Sampling.Seams)
	r.float("build", "fillet_radius", &c.FilletRadius)
	r.float("build", "backoff_factor", &c.Backoff.Factor)
	r.float("build", "backoff_floor", &c.Backoff.Floor)
	if r.err != nil {
		return nil, r.err
	}
	return c, nil
}

// Validate checks every build of c.
func (c *Config) Validate() error {
	if err := c.Rotor.Validate(); err != nil {
		return err
	}
	if err := c.Rotor.HubParameters().Validate(); err != nil {
		return err
	}
	if err := c.Rotor.ShroudParameters().Validate(); err != nil {
		return err
	}
	if err := c.Blade.Validate(); err != nil {
		return err
	}
	if !(c.FilletRadius >= 0) {
		return fmt.Errorf("config: fillet radius %g: %w", c.FilletRadius, axial.ErrInvalidInput)
	}
	return c.Backoff.Validate()
}

// LeadAngle returns the leading edge angle atan(factor*r).
func LeadAngle(factor float64) blade.AngleFunc {
	return func(r float64) float64 { return math.Atan(factor * r) }
}

// ConstantAngle returns a camber angle independent of radius.
func ConstantAngle(a float64) blade.AngleFunc {
	return func(float64) float64 { return a }
}

func checkKeys(f *ini.File) error {
	for _, sec := range f.Sections() {
		name := sec.Name()
		keys, ok := known[name]
		if !ok {
			if name == ini.DefaultSection && len(sec.Keys()) == 0 {
				continue
			}
			if name == ini.DefaultSection {
				return &UnknownKeyError{Section: name, Key: sec.Keys()[0].Name()}
			}
			return &UnknownKeyError{Section: name}
		}
	next:
		for _, k := range sec.Keys() {
			for _, kn := range keys {
				if k.Name() == kn {
					continue next
				}
			}
			return &UnknownKeyError{Section: name, Key: k.Name()}
		}
	}
	return nil
}

// reader stores values of present keys and keeps the first malformed one.
type reader struct {
	f   *ini.File
	err error
}

func (r *reader) key(section, name string) *ini.Key {
	if r.err != nil {
		return nil
	}
	sec, err := r.f.GetSection(section)
	if err != nil || !sec.HasKey(name) {
		return nil
	}
	return sec.Key(name)
}

func (r *reader) fail(section, name string, err error) {
	r.err = fmt.Errorf("config: [%s] %s: %v: %w", section, name, err, axial.ErrInvalidInput)
}

func (r *reader) float(section, name string, dst *float64) bool {
	k := r.key(section, name)
	if k == nil {
		return false
	}
	v, err := k.Float64()
	if err != nil {
		r.fail(section, name, err)
		return false
	}
	*dst = v
	return true
}

func (r *reader) int(section, name string, dst *int) bool {
	k := r.key(section, name)
	if k == nil {
		return false
	}
	v, err := k.Int()
	if err != nil {
		r.fail(section, name, err)
		return false
	}
	*dst = v
	return true
}

func (r *reader) floats(section, name string, dst *[]float64) bool {
	k := r.key(section, name)
	if k == nil {
		return false
	}
	v, err := k.StrictFloat64s(",")
	if err != nil {
		r.fail(section, name, err)
		return false
	}
	*dst = v
	return true
}

func (r *reader) vec(section, name string, dst *r3.Vec) bool {
	var v []float64
	if !r.floats(section, name, &v) {
		return false
	}
	if len(v) != 3 {
		r.fail(section, name, fmt.Errorf("want 3 components, got %d", len(v)))
		return false
	}
	*dst = r3.Vec{X: v[0], Y: v[1], Z: v[2]}
	return true
}

func (r *reader) kind(section, name string, dst *axial.ProfileKind) bool {
	k := r.key(section, name)
	if k == nil {
		return false
	}
	v, ok := axial.ParseProfileKind(k.String())
	if !ok {
		r.fail(section, name, fmt.Errorf("unknown profile type %q", k.String()))
		return false
	}
	*dst = v
	return true
}

func (r *reader) hubKind(section, name string, dst *hub.Kind) bool {
	k := r.key(section, name)
	if k == nil {
		return false
	}
	v, ok := hub.ParseKind(k.String())
	if !ok {
		r.fail(section, name, fmt.Errorf("unknown hub type %q", k.String()))
		return false
	}
	*dst = v
	return true
}
