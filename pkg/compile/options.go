package compile

import "fmt"

// CompatibilityMode selects behaviors that differ between editions of the
// language.
type CompatibilityMode uint8

// Compatibility modes.
const (
	// Latest follows the current edition.
	Latest CompatibilityMode = iota
	// ECMAScript3 makes a regexp literal evaluate to the same object every
	// time its site is evaluated.
	ECMAScript3
)

var compatibilityModeNames = [...]string{"latest", "es3"}

func (m CompatibilityMode) String() string {
	if int(m) < len(compatibilityModeNames) {
		return compatibilityModeNames[m]
	}
	return fmt.Sprintf("!(compatibility mode %d)", uint8(m))
}

// ParseCompatibilityMode parses the name of a compatibility mode.
func ParseCompatibilityMode(s string) (CompatibilityMode, error) {
	switch s {
	case "", "latest":
		return Latest, nil
	case "es3", "ecmascript3":
		return ECMAScript3, nil
	}
	return Latest, fmt.Errorf("unknown compatibility mode %q", s)
}

// CompilerOptions are the options recognized by the compiler.
type CompilerOptions struct {
	// ForceStrictMode compiles every unit as strict code.
	ForceStrictMode bool
	// CompatibilityMode selects edition-dependent behavior.
	CompatibilityMode CompatibilityMode
	// EnableILAnalysis verifies generated programs and logs their
	// disassembly.
	EnableILAnalysis bool
}
