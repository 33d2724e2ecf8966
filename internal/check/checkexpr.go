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
	"github.com/kantu-lang/kantucore/internal/term"
	"github.com/kantu-lang/kantucore/internal/typeenv"
)

// inferCheckExpr implements spec.md §4.7: every assertion is processed
// purely for its side effect on c.Warnings (never an error), and the
// Check expression's own type is whatever its Output's type is.
func (c *Checker) inferCheckExpr(ctx *typeenv.Context, sc *typeenv.SubstContext, e term.ExprID, target *term.ExprID) (term.ExprID, *diag.Error) {
	r := c.Reg
	ck := r.GetCheck(e.Chk)
	for _, aid := range r.GetAssertionList(ck.Assertions) {
		a := r.GetAssertion(aid)
		c.processAssertion(ctx, sc, a, target)
	}
	return c.dispatch(ctx, sc, ck.Output, target)
}

// resolveGoal substitutes the active coercion target for a literal
// `goal` side of an assertion, warning WarnNoGoalExists when none is
// active.
func (c *Checker) resolveGoal(side term.ExprID, isGoal bool, target *term.ExprID) (term.ExprID, bool) {
	if !isGoal {
		return side, true
	}
	if target == nil {
		c.Warnings.Add(diag.NewWarning(diag.WarnNoGoalExists, side, "`goal` used with no active coercion target"))
		return term.ExprID{}, false
	}
	return *target, true
}

func (c *Checker) processAssertion(ctx *typeenv.Context, sc *typeenv.SubstContext, a *term.Assertion, target *term.ExprID) {
	if a.RHSIsUnknown {
		c.Warnings.Add(diag.NewWarning(diag.WarnUnknownRHS, a.RHS, "right-hand side is `?`"))
		return
	}
	lhs, ok := c.resolveGoal(a.LHS, a.LHSIsGoal, target)
	if !ok {
		return
	}
	rhs, ok := c.resolveGoal(a.RHS, a.RHSIsGoal, target)
	if !ok {
		return
	}

	switch a.Kind {
	case term.AssertTypeOf:
		c.processTypeOfAssertion(ctx, sc, lhs, rhs)
	case term.AssertNormalForm:
		c.processNormalFormAssertion(ctx, sc, lhs, rhs)
	}
}

func (c *Checker) processTypeOfAssertion(ctx *typeenv.Context, sc *typeenv.SubstContext, e, t term.ExprID) {
	lhsType, lerr := c.Infer(ctx, sc, e)
	if lerr != nil {
		c.Warnings.Add(diag.NewWarning(diag.WarnAssertionFailedToTypeCheck, e, "left-hand side fails to type-check: %s", lerr.Message))
		return
	}
	if _, terr := c.Infer(ctx, sc, t); terr != nil {
		c.Warnings.Add(diag.NewWarning(diag.WarnAssertionFailedToTypeCheck, t, "asserted type fails to type-check: %s", terr.Message))
		return
	}
	if c.isType1(ctx, t) {
		c.Warnings.Add(diag.NewWarning(diag.WarnAssertionTypeIsType1, t, "asserted type evaluates to Type1"))
		return
	}
	rewritten := c.Nz.Normalize(ctx, c.FullTransparency, c.rewriteWithPending(sc, lhsType))
	normT := c.Nz.Normalize(ctx, c.FullTransparency, t)
	if !c.Eqc.Equal(rewritten, normT) {
		c.Warnings.Add(diag.NewWarning(diag.WarnTypeMismatch, e, "rewritten inferred type disagrees with the asserted type"))
	}
}

func (c *Checker) processNormalFormAssertion(ctx *typeenv.Context, sc *typeenv.SubstContext, e, t term.ExprID) {
	if _, err := c.Infer(ctx, sc, e); err != nil {
		c.Warnings.Add(diag.NewWarning(diag.WarnAssertionFailedToTypeCheck, e, "left-hand side fails to type-check: %s", err.Message))
		return
	}
	if _, err := c.Infer(ctx, sc, t); err != nil {
		c.Warnings.Add(diag.NewWarning(diag.WarnAssertionFailedToTypeCheck, t, "right-hand side fails to type-check: %s", err.Message))
		return
	}
	normE := c.Nz.Normalize(ctx, c.FullTransparency, e)
	rewritten := c.Nz.Normalize(ctx, c.FullTransparency, c.rewriteWithPending(sc, normE))
	normT := c.Nz.Normalize(ctx, c.FullTransparency, t)
	if !c.Eqc.Equal(rewritten, normT) {
		c.Warnings.Add(diag.NewWarning(diag.WarnNormalFormMismatch, e, "normal form disagrees with the right-hand side after applying pending equations"))
	}
}
