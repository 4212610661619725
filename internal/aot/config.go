package aot

import (
	"github.com/mstoykov/envconfig"
	"github.com/pkg/errors"
)

// OptLevel is the coarse optimisation-level knob spec.md §4.1/§9 allows
// ("sourcing or choice of optimiser passes beyond exposing a coarse level
// knob" is explicitly out of scope; the knob itself is in scope).
type OptLevel int

const (
	OptLevelNone OptLevel = iota
	OptLevelLess
	OptLevelDefault
	OptLevelAggressive
)

func (o OptLevel) String() string {
	switch o {
	case OptLevelNone:
		return "none"
	case OptLevelLess:
		return "less"
	case OptLevelDefault:
		return "default"
	case OptLevelAggressive:
		return "aggressive"
	default:
		return "unknown"
	}
}

// OutputFormat selects the Executable Packager's output shape (spec.md §4.4).
type OutputFormat int

const (
	// OutputUniversalWasm appends a "wasmedge" custom section to the
	// original Wasm bytes (spec.md §6.2).
	OutputUniversalWasm OutputFormat = iota
	// OutputSharedObject emits a standalone platform-native object.
	OutputSharedObject
)

// CompilerConfig collects every knob the Compiler/Packager read, populated
// three ways in increasing priority: zero-value defaults, environment
// variables (via SPEC_FULL.md §A.3's envconfig binding), then explicit
// functional options passed to NewCompiler. Struct tags name the
// AOTC_-prefixed environment variable grafana-k6's own config style uses.
type CompilerConfig struct {
	OptLevel OptLevel `envconfig:"AOTC_OPT_LEVEL"`

	// ForceGeneric skips the host-CPU feature query entirely and lowers
	// every feature-gated opcode (nearest, swizzle, q15mulr_sat, avgr,
	// ext_add_pairwise, ...) to its portable fallback (SPEC_FULL.md §C.2).
	ForceGeneric bool `envconfig:"AOTC_FORCE_GENERIC"`

	// GasMetering is recorded here but not read by the compiler: compiled
	// functions carry no gas cost tags whichever way it is set.
	GasMetering bool `envconfig:"AOTC_GAS_METERING"`

	// InterruptChecks is recorded here but not read: the interpreter checks
	// the stop_token at every block entry whichever way it is set.
	InterruptChecks bool `envconfig:"AOTC_INTERRUPT_CHECKS"`

	// Output selects universal-binary vs shared-object packaging.
	Output OutputFormat `envconfig:"AOTC_OUTPUT_FORMAT"`

	// TargetOS/TargetCPU override the host platform for cross-compilation;
	// empty means "compile for the running host."
	TargetOS  OSTag  `envconfig:"AOTC_TARGET_OS"`
	TargetCPU CPUTag `envconfig:"AOTC_TARGET_CPU"`
}

// DefaultCompilerConfig returns the zero-value-sane baseline: default
// optimisation, gas metering and interrupt checks on, universal-binary
// output, host OS/CPU auto-detected.
func DefaultCompilerConfig() CompilerConfig {
	return CompilerConfig{
		OptLevel:        OptLevelDefault,
		GasMetering:     true,
		InterruptChecks: true,
		Output:          OutputUniversalWasm,
		TargetOS:        hostOSTag(),
		TargetCPU:       hostCPUTag(),
	}
}

// LoadCompilerConfigFromEnv starts from DefaultCompilerConfig and overlays
// any AOTC_* environment variable that is set, per SPEC_FULL.md §A.3's
// "env vars via mstoykov/envconfig, in increasing priority over defaults"
// rule. CLI flags or functional options, applied by the caller afterward,
// take the highest priority of the three.
func LoadCompilerConfigFromEnv() (CompilerConfig, error) {
	cfg := DefaultCompilerConfig()
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, errors.Wrap(err, "aot: loading CompilerConfig from environment")
	}
	return cfg, nil
}

// Option is a functional option applied to a CompilerConfig, the highest
// priority of the three config sources spec.md §A.3 describes.
type Option func(*CompilerConfig)

// WithOptLevel overrides the optimisation level.
func WithOptLevel(l OptLevel) Option { return func(c *CompilerConfig) { c.OptLevel = l } }

// WithForceGeneric forces (or un-forces) generic-target codegen.
func WithForceGeneric(v bool) Option { return func(c *CompilerConfig) { c.ForceGeneric = v } }

// WithGasMetering sets CompilerConfig.GasMetering, which the compiler does
// not read.
func WithGasMetering(v bool) Option { return func(c *CompilerConfig) { c.GasMetering = v } }

// WithInterruptChecks sets CompilerConfig.InterruptChecks, which the
// interpreter does not read.
func WithInterruptChecks(v bool) Option { return func(c *CompilerConfig) { c.InterruptChecks = v } }

// WithOutputFormat selects universal-binary vs shared-object packaging.
func WithOutputFormat(f OutputFormat) Option { return func(c *CompilerConfig) { c.Output = f } }

// WithTarget overrides the target OS/CPU for cross-compilation.
func WithTarget(os OSTag, cpu CPUTag) Option {
	return func(c *CompilerConfig) { c.TargetOS, c.TargetCPU = os, cpu }
}
