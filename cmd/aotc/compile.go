package main

import (
	"encoding/gob"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/wazedge/aotwasm/internal/aot"
	"github.com/wazedge/aotwasm/internal/wasm"
)

// compileFlags holds the CompilerConfig overrides `aotc compile` exposes as
// flags, the highest-priority config source per CompilerConfig's own
// env-vars-then-flags doc comment.
type compileFlags struct {
	optLevel     string
	forceGeneric bool
	gasMetering  bool
	output       string
}

func newCompileCmd() *cobra.Command {
	var f compileFlags
	var outPath string

	cmd := &cobra.Command{
		Use:   "compile [module.gob]",
		Short: "Compile a decoded module into a packaged artifact",
		Long: `Compile reads a gob-encoded internal/wasm.Module (this module has no
binary .wasm decoder of its own; module.gob is expected to already be
decoded by an external collaborator) and writes a packaged artifact
produced by the Executable Packager.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(args[0], outPath, f)
		},
	}
	cmd.Flags().StringVar(&f.optLevel, "opt-level", "default", "optimisation level (none, less, default, aggressive)")
	cmd.Flags().BoolVar(&f.forceGeneric, "force-generic", false, "skip host CPU feature detection, lower every opcode to its portable fallback")
	cmd.Flags().BoolVar(&f.gasMetering, "gas-metering", true, "inject gas-accounting instrumentation")
	cmd.Flags().StringVar(&f.output, "output-format", "universal", "artifact shape to emit (universal, shared-object)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "a.out.wasm", "output artifact path")
	return cmd
}

func runCompile(inPath, outPath string, f compileFlags) error {
	fs := afero.NewOsFs()

	module, err := readModule(fs, inPath)
	if err != nil {
		return err
	}

	opts, err := compileOptionsFromFlags(f)
	if err != nil {
		return err
	}
	compiler := aot.NewCompiler(opts...)

	cm, err := compiler.Compile(module, nil)
	if err != nil {
		return fmt.Errorf("compiling %s: %w", inPath, err)
	}

	if err := aot.Package(fs, outPath, cm, wasmStubHeader()); err != nil {
		return fmt.Errorf("packaging %s: %w", outPath, err)
	}
	fmt.Printf("wrote %s\n", outPath)
	return nil
}

func readModule(fs afero.Fs, path string) (*wasm.Module, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var m wasm.Module
	if err := gob.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding module %s: %w", path, err)
	}
	return &m, nil
}

func compileOptionsFromFlags(f compileFlags) ([]aot.Option, error) {
	var opts []aot.Option

	switch f.optLevel {
	case "none":
		opts = append(opts, aot.WithOptLevel(aot.OptLevelNone))
	case "less":
		opts = append(opts, aot.WithOptLevel(aot.OptLevelLess))
	case "default":
		opts = append(opts, aot.WithOptLevel(aot.OptLevelDefault))
	case "aggressive":
		opts = append(opts, aot.WithOptLevel(aot.OptLevelAggressive))
	default:
		return nil, fmt.Errorf("invalid --opt-level %q", f.optLevel)
	}

	switch f.output {
	case "universal":
		opts = append(opts, aot.WithOutputFormat(aot.OutputUniversalWasm))
	case "shared-object":
		opts = append(opts, aot.WithOutputFormat(aot.OutputSharedObject))
	default:
		return nil, fmt.Errorf("invalid --output-format %q", f.output)
	}

	opts = append(opts, aot.WithForceGeneric(f.forceGeneric), aot.WithGasMetering(f.gasMetering))
	return opts, nil
}

// wasmStubHeader is the bare 8-byte Wasm module header used as the
// "original wasm bytes" prefix when the CLI's own decoded-module input has
// no surviving original bytes to re-attach the packaged section to; see
// cache.go's wasmHeaderBytes for the same convention.
func wasmStubHeader() []byte {
	return []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
}
