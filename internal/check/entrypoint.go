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

package check

import (
	"github.com/kantu-lang/kantucore/internal/diag"
	"github.com/kantu-lang/kantucore/internal/normalize"
	"github.com/kantu-lang/kantucore/internal/semantic"
	"github.com/kantu-lang/kantucore/internal/term"
	"github.com/kantu-lang/kantucore/internal/typeenv"
)

// TypeCheck is the single entry point an external driver (cmd/kantucheck,
// or any other embedder) needs: given an already-bound Context and the
// expression to check, it builds the collaborators a checking session
// shares and infers e's type, returning any warnings collected along the
// way (spec.md §6 draws the line here: everything upstream of Context
// construction, including binder resolution, is out of this core's
// scope).
func TypeCheck(reg *term.Registry, ctx *typeenv.Context, fullTransparency typeenv.Transparency, pred typeenv.TransparencyPredicate, e term.ExprID) (term.ExprID, *diag.Warnings, *diag.Error) {
	eqc := semantic.New(reg)
	nz := normalize.New(reg, eqc, pred)
	c := New(reg, eqc, nz, fullTransparency)
	sc := typeenv.NewSubstContext()
	t, err := c.Infer(ctx, sc, e)
	return t, c.Warnings, err
}
