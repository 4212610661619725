package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/wazedge/aotwasm/internal/aot"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [artifact]",
		Short: "Load a packaged artifact and print a summary of its module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args[0])
		},
	}
}

func runInspect(path string) error {
	fs := afero.NewOsFs()
	compiler := aot.NewCompiler()

	cm, err := aot.LoadArtifact(fs, path, compiler, nil)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	m := cm.Module
	fmt.Printf("types:       %d\n", len(m.TypeSection))
	fmt.Printf("functions:   %d (%d imported, %d local)\n", m.NumFunctions(), m.NumImportedFunctions, len(m.FunctionSection))
	fmt.Printf("memories:    %d\n", m.NumMemories())
	fmt.Printf("tables:      %d\n", m.NumTables())
	fmt.Printf("globals:     %d\n", m.NumGlobals())
	fmt.Printf("exports:     %d\n", len(m.ExportSection))
	fmt.Printf("has entry:   %v\n", cm.EntryPoint != nil)
	return nil
}
