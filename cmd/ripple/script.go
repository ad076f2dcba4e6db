package main

import (
	"fmt"
	"path/filepath"

	"github.com/risor-io/risor/object"
	"github.com/spf13/cobra"

	"github.com/jward/ripple/internal/runtime"
)

func (a *app) scriptCmd() *cobra.Command {
	var eval string
	cmd := &cobra.Command{
		Use:   "script [file.risor] [args...]",
		Short: "Run a Risor script against the graph",
		Long: `Runs a Risor script with the query surface bound as globals: find, where_defined,
entities_in_file, callers, implementors, users, blast_radius, impact and stats.
Remaining arguments are available to the script as the args list. The value of
the last expression is printed as the result.`,
		Example: `  ripple script --eval 'len(blast_radius("create"))'
  ripple script scripts/risky.risor connect`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if eval == "" && len(args) == 0 {
				return a.outputError("script", fmt.Errorf("requires a script file or --eval"))
			}

			e, err := a.openEngine(cmd.Context())
			if err != nil {
				return a.outputError("script", err)
			}

			src := eval
			scriptPath := ""
			scriptArgs := args
			if eval == "" {
				if scriptPath, err = filepath.Abs(args[0]); err != nil {
					return a.outputError("script", fmt.Errorf("resolving script path %q: %w", args[0], err))
				}
				scriptArgs = args[1:]
			}

			rt := runtime.NewRuntime(e, filepath.Dir(scriptPath), runtime.WithRuntimeLogger(a.logger))
			if scriptPath != "" {
				if src, err = rt.LoadScript(scriptPath); err != nil {
					return a.outputError("script", err)
				}
			}

			list := make([]object.Object, 0, len(scriptArgs))
			for _, arg := range scriptArgs {
				list = append(list, object.NewString(arg))
			}
			result, err := rt.Eval(cmd.Context(), src, map[string]any{"args": object.NewList(list)})
			if err != nil {
				return a.outputError("script", err)
			}
			return a.output(CLIResult{Command: "script", Results: result})
		},
	}
	cmd.Flags().StringVar(&eval, "eval", "", "inline Risor source to run instead of a file")
	return cmd
}
