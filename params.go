package axial

// Geometric tolerances used throughout the build.
const (
	// FuseTol is the fuzzy value used when fusing rotor parts.
	FuseTol = 5e-4
	// BladeApproxTol is the target tolerance of blade surface approximation.
	BladeApproxTol = 1e-4
	// FixSolidPrecision is the precision of the final solid repair pass.
	FixSolidPrecision = 1e-4
	// FixFacePrecision is the precision used to repair cap faces.
	FixFacePrecision = 1e-6
	// InterpTol is the tolerance of exact interpolation.
	InterpTol = 1e-6
	// MakeFaceTol is the tolerance used when bounding a face by its surface.
	MakeFaceTol = 1e-6
	// BladeCapRadiusTol is the radial tolerance for classifying edges as lying
	// on a cap or fillet radius.
	BladeCapRadiusTol = 1e-6
	// SewStartTol is the initial sewing tolerance which doubles on each failed
	// attempt, at most SewMaxTries times.
	SewStartTol = 1e-6
	SewMaxTries = 20
	// SewWarnTol is the sewing tolerance above which a warning is logged.
	SewWarnTol = 1e-3
)

// ProfileKind selects the thickness law of an airfoil section.
type ProfileKind int

const (
	// Flat is a flat plate with elliptical leading and trailing edges.
	Flat ProfileKind = iota
	// NACA is the NACA 4-digit thickness law.
	NACA
)

func (k ProfileKind) String() string {
	switch k {
	case Flat:
		return "flat"
	case NACA:
		return "NACA"
	}
	return "unknown"
}

// ParseProfileKind parses the names produced by ProfileKind.String,
// case-insensitive for "naca".
func ParseProfileKind(s string) (ProfileKind, bool) {
	switch s {
	case "flat", "FLAT", "Flat", "0":
		return Flat, true
	case "naca", "NACA", "Naca", "1":
		return NACA, true
	}
	return 0, false
}
