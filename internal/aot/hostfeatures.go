package aot

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// OSTag is the 1-byte OS tag spec.md §6.2 embeds in the universal-binary
// custom section.
type OSTag byte

const (
	OSTagUnknown OSTag = 0
	OSTagLinux   OSTag = 1
	OSTagMacOS   OSTag = 2
	OSTagWindows OSTag = 3
)

func (t OSTag) String() string {
	switch t {
	case OSTagLinux:
		return "linux"
	case OSTagMacOS:
		return "macos"
	case OSTagWindows:
		return "windows"
	default:
		return "unknown"
	}
}

// CPUTag is the 1-byte CPU tag spec.md §6.2 embeds in the universal-binary
// custom section.
type CPUTag byte

const (
	CPUTagUnknown CPUTag = 0
	CPUTagX86_64  CPUTag = 1
	CPUTagAarch64 CPUTag = 2
	CPUTagRiscv64 CPUTag = 3
	CPUTagArmv7   CPUTag = 4
)

func (t CPUTag) String() string {
	switch t {
	case CPUTagX86_64:
		return "x86_64"
	case CPUTagAarch64:
		return "aarch64"
	case CPUTagRiscv64:
		return "riscv64"
	case CPUTagArmv7:
		return "armv7"
	default:
		return "unknown"
	}
}

func hostOSTag() OSTag {
	switch runtime.GOOS {
	case "linux":
		return OSTagLinux
	case "darwin":
		return OSTagMacOS
	case "windows":
		return OSTagWindows
	default:
		return OSTagUnknown
	}
}

func hostCPUTag() CPUTag {
	switch runtime.GOARCH {
	case "amd64":
		return CPUTagX86_64
	case "arm64":
		return CPUTagAarch64
	case "riscv64":
		return CPUTagRiscv64
	case "arm":
		return CPUTagArmv7
	default:
		return CPUTagUnknown
	}
}

// HostFeatures is the parsed boolean feature-flag set spec.md §4.1 says
// gates faster lowerings for nearest, swizzle, q15mul-sat, avgr and
// ext-add-pairwise: "xop, sse4.1, ssse3, sse2 on x86-64; neon on aarch64".
// Queried via golang.org/x/sys/cpu (SPEC_FULL.md §B) rather than hand-rolled
// CPUID asm.
type HostFeatures struct {
	XOP    bool
	SSE41  bool
	SSSE3  bool
	SSE2   bool
	NEON   bool
	Native bool // false when queried with ForceGeneric, in which case every flag above is false.
}

// QueryHostFeatures inspects the running process's CPU via golang.org/x/sys/cpu.
// When forceGeneric is true the query is skipped entirely and every flag is
// false, exactly as spec.md §4.1 requires ("skipped if a 'generic' binary is
// requested").
func QueryHostFeatures(forceGeneric bool) HostFeatures {
	if forceGeneric {
		return HostFeatures{}
	}
	f := HostFeatures{Native: true}
	switch runtime.GOARCH {
	case "amd64":
		f.SSE2 = cpu.X86.HasSSE2
		f.SSSE3 = cpu.X86.HasSSSE3
		f.SSE41 = cpu.X86.HasSSE41
		// XOP has no golang.org/x/sys/cpu field (AMD-only, long obsolete);
		// the pack's cpu package never exposes it, so it is conservatively
		// always reported false rather than guessed from another flag.
		f.XOP = false
	case "arm64":
		f.NEON = cpu.ARM64.HasASIMD
	}
	return f
}
