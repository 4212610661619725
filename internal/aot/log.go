package aot

import "github.com/sirupsen/logrus"

// log is the package-local logger every Compiler/Packager/Loader call site
// uses instead of importing logrus directly (spec.md §A.1). cmd/aotc may
// call SetLogger to route output through its own configured logrus.Logger
// (e.g. to change format/level from a CLI flag).
var log = logrus.NewEntry(logrus.StandardLogger())

// SetLogger replaces the package-local logger, e.g. from cmd/aotc after
// parsing --log-level/--log-format.
func SetLogger(l *logrus.Logger) { log = logrus.NewEntry(l) }

// logFunctionCompiled emits the per-function debug line spec.md §A.1
// requires: function index, body size, instruction count, elapsed time.
func logFunctionCompiled(funcIdx int, bodySize, instrCount int, elapsedNanos int64) {
	log.WithFields(logrus.Fields{
		"func_index": funcIdx,
		"body_bytes": bodySize,
		"instrs":     instrCount,
		"elapsed_ns": elapsedNanos,
	}).Debug("compiled function")
}

// logArtifactPackaged emits the per-artifact info line spec.md §A.1
// requires: target OS/CPU, artifact size, universal vs shared-object.
func logArtifactPackaged(osTag OSTag, cpuTag CPUTag, sizeBytes int, universal bool) {
	log.WithFields(logrus.Fields{
		"os":        osTag.String(),
		"cpu":       cpuTag.String(),
		"size":      sizeBytes,
		"universal": universal,
	}).Info("packaged artifact")
}
