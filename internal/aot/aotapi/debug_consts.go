package aotapi

// These consts gate the compiler's own internal debug tracing. Instead of
// defining them next to each call site, they live here so toggling one is a
// single-line edit rather than a search across the package.

// ----- Debug logging -----
// Must be disabled by default; flip only when debugging a specific failure.

const (
	FrontEndLoggingEnabled = false
	SSALoggingEnabled      = false
)

// ----- Output prints -----

const (
	PrintSSA          = false
	PrintOptimizedSSA = false
)

// ----- Validations -----
// Enabled by default; the cost of walking the IR once more is small next to
// catching a malformed SSA graph before it reaches the packager.

const (
	SSAValidationEnabled = true
)
