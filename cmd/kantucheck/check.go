// Copyright 2026 The Kantucore Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kantu-lang/kantucore/internal/check"
	"github.com/kantu-lang/kantucore/internal/kantujson"
	"github.com/kantu-lang/kantucore/internal/term"
)

var fullTransparency string

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <program.json>",
		Short: "Infer the type of a program tree's expression against its bindings",
		Long: `check reads a JSON-serialized program (an initial binding stack plus
the expression to type-check, both already name-resolved) and reports
any check{} assertion warnings on stderr first, followed by either the
inferred type or the first type error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args[0])
		},
	}
	cmd.Flags().StringVar(&fullTransparency, "transparency", "*", "transparency token the checker uses for its own internal normalization probes")
	return cmd
}

// transparencyPredicate is the CLI's own minimal stand-in for the
// upstream module/visibility resolver spec.md §6 leaves external to the
// core: two tokens are compatible if they're equal, or either side is
// the wildcard "*". This is glue for the JSON driver only, not a core
// semantics decision (see DESIGN.md).
func transparencyPredicate(have, required any) bool {
	if have == "*" || required == "*" {
		return true
	}
	return have == required
}

func runCheck(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var prog kantujson.Program
	if err := json.Unmarshal(data, &prog); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}

	reg := term.New()
	ctx, expr, err := kantujson.Build(reg, &prog)
	if err != nil {
		return fmt.Errorf("building program: %w", err)
	}

	typ, warnings, checkErr := check.TypeCheck(reg, ctx, fullTransparency, transparencyPredicate, expr)

	out := cmd.OutOrStdout()
	for _, w := range warnings.All() {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w.String())
	}
	if checkErr != nil {
		return checkErr
	}

	fmt.Fprintf(out, "ok: inferred type = %s\n", typ.String())
	return nil
}
