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

// Package check is the bidirectional type checker (spec.md §4.6–§4.7):
// for every expression it either infers a type or checks the expression
// against an optional coercion target, threading a mutable Context and
// SubstContext exactly as the normalizer does, and collecting non-fatal
// diagnostics into a Warnings stream.
package check

import (
	"github.com/kantu-lang/kantucore/internal/diag"
	"github.com/kantu-lang/kantucore/internal/normalize"
	"github.com/kantu-lang/kantucore/internal/semantic"
	"github.com/kantu-lang/kantucore/internal/subst"
	"github.com/kantu-lang/kantucore/internal/term"
	"github.com/kantu-lang/kantucore/internal/typeenv"
)

// Checker bundles the collaborators a checking session shares (spec.md
// §4.6 "Common environment"): the registry, the structural-equality
// checker, the normalizer it drives for whnf/nf probes, the
// transparency it uses for its own internal normalization calls, and
// the warning sink `check{}` blocks write into.
type Checker struct {
	Reg *term.Registry
	Eqc *semantic.Checker
	Nz  *normalize.Normalizer

	// FullTransparency is the permission level the checker itself uses
	// when it needs a term in normal form to make a structural decision
	// (e.g. "is this type Type0 or Type1", "is this a variant
	// application"). The core type checker does not itself model
	// per-declaration visibility policy (spec.md §6 leaves that to an
	// upstream bind/visibility pass); it simply needs *a* transparency
	// permissive enough to see through every alias it created itself
	// during checking, so callers hand in the most permissive token
	// their TransparencyPredicate recognizes.
	FullTransparency typeenv.Transparency

	Warnings *diag.Warnings
}

// New returns a Checker over the given collaborators.
func New(reg *term.Registry, eqc *semantic.Checker, nz *normalize.Normalizer, fullTransparency typeenv.Transparency) *Checker {
	return &Checker{Reg: reg, Eqc: eqc, Nz: nz, FullTransparency: fullTransparency, Warnings: &diag.Warnings{}}
}

// Infer returns the type an expression has, with no coercion target.
func (c *Checker) Infer(ctx *typeenv.Context, sc *typeenv.SubstContext, e term.ExprID) (term.ExprID, *diag.Error) {
	return c.dispatch(ctx, sc, e, nil)
}

// Check verifies e has (or is assignable to) target, returning target on
// success.
func (c *Checker) Check(ctx *typeenv.Context, sc *typeenv.SubstContext, e term.ExprID, target term.ExprID) (term.ExprID, *diag.Error) {
	return c.dispatch(ctx, sc, e, &target)
}

// dispatch is the single entry point both Infer and Check fall through,
// so the tainted-error discipline (spec.md §7: snapshot depth on entry,
// truncate on any error exit) and the target-assignability test live in
// exactly one place.
func (c *Checker) dispatch(ctx *typeenv.Context, sc *typeenv.SubstContext, e term.ExprID, target *term.ExprID) (term.ExprID, *diag.Error) {
	ctxDepth, scDepth := ctx.Len(), sc.Len()
	actual, err := c.inferNode(ctx, sc, e, target)
	if err != nil {
		ctx.Truncate(ctxDepth)
		sc.Truncate(scDepth)
		return term.ExprID{}, err
	}
	if target == nil {
		return actual, nil
	}
	if c.assignable(ctx, sc, actual, *target) {
		return *target, nil
	}
	ctx.Truncate(ctxDepth)
	sc.Truncate(scDepth)
	return term.ExprID{}, diag.TypeMismatch(e, *target, actual)
}

// inferNode is the per-kind dispatch. target is non-nil exactly when the
// caller wants a check rather than a bare infer; most kinds ignore it
// and let dispatch's own assignability test above decide, but Match and
// Check both need the target threaded into their own recursive logic
// (spec.md §4.6.3 steps 4-6, §4.7's "rewritten inferred type").
func (c *Checker) inferNode(ctx *typeenv.Context, sc *typeenv.SubstContext, e term.ExprID, target *term.ExprID) (term.ExprID, *diag.Error) {
	switch e.Kind {
	case term.KindName:
		n := c.Reg.GetName(e.Name)
		return ctx.GetType(n.DBIndex), nil

	case term.KindForall:
		return c.inferForall(ctx, sc, e)

	case term.KindFun:
		return c.inferFun(ctx, sc, e)

	case term.KindCall:
		return c.inferCall(ctx, sc, e)

	case term.KindMatch:
		return c.inferMatch(ctx, sc, e, target)

	case term.KindCheck:
		return c.inferCheckExpr(ctx, sc, e, target)

	case term.KindTodo:
		// `todo` stands for an admitted obligation; it type-checks
		// against anything, including itself when inferred bare.
		if target != nil {
			return *target, nil
		}
		return e, nil

	default:
		panic("check: invalid ExprID")
	}
}

// requireUniverse demands that t (already inferred to have type nt) is
// one of the two universes (spec.md §4.6.1 "must be Type0 or Type1").
func (c *Checker) requireUniverse(ctx *typeenv.Context, t, nt term.ExprID) *diag.Error {
	norm := c.Nz.Normalize(ctx, c.FullTransparency, nt)
	if c.Eqc.Equal(norm, ctx.Type0()) || c.Eqc.Equal(norm, ctx.Type1()) {
		return nil
	}
	return diag.New(diag.KindIllegalTypeExpression, t, "expected Type0 or Type1")
}

// isType1 reports whether e normalizes to the Type1 universe, used by
// §4.7's "T evaluates to Type1" warning condition.
func (c *Checker) isType1(ctx *typeenv.Context, e term.ExprID) bool {
	return c.Eqc.Equal(c.Nz.Normalize(ctx, c.FullTransparency, e), ctx.Type1())
}

// asApplication splits e into (callee, dense args) if e is a Call.
func (c *Checker) asApplication(e term.ExprID) (head term.ExprID, args []term.ExprID, isCall bool) {
	if e.Kind != term.KindCall {
		return e, nil, false
	}
	call := c.Reg.GetCall(e.Call)
	return call.Callee, c.Reg.Args(call.Args), true
}

func (c *Checker) isVariantHead(ctx *typeenv.Context, head term.ExprID) bool {
	return head.Kind == term.KindName && ctx.GetDefinitionKind(c.Reg.GetName(head.Name).DBIndex) == typeenv.DefVariant
}

func (c *Checker) isADTHead(ctx *typeenv.Context, head term.ExprID) bool {
	return head.Kind == term.KindName && ctx.GetDefinitionKind(c.Reg.GetName(head.Name).DBIndex) == typeenv.DefADT
}

// isEmptyADT reports whether e's head denotes an ADT declared with zero
// variants (spec.md §4.6.5 "L is empty").
func (c *Checker) isEmptyADT(ctx *typeenv.Context, e term.ExprID) bool {
	head, _, _ := c.asApplication(e)
	if head.Kind != term.KindName {
		return false
	}
	names, ok := ctx.GetADTVariantNames(c.Reg.GetName(head.Name).DBIndex)
	return ok && len(names) == 0
}

// assignable implements spec.md §4.6.5: L assignable to R iff L is
// empty or L,R are structurally equal, with dependent fusion
// ("backfuse") bridging the gap when L and R share recursive structure
// (same variant or same ADT application) that differs only in
// sub-positions a surrounding match's own equations are expected to
// explain. A genuine arity mismatch under a shared head is the one case
// fusion itself treats as a hard failure (an invariant violation, not a
// normal type error); every other non-identical leaf pair is accepted
// as a standing equation and recorded on the innermost open arm, per
// "non-exploded substitution pairs are added to the arm's pending
// equations" — assignable() itself never fails once decomposition
// bottoms out cleanly, matching a pattern common to dependently-typed
// checkers that treat scrutinee-derived index equalities as assumed
// rather than independently re-derived (see DESIGN.md).
func (c *Checker) assignable(ctx *typeenv.Context, sc *typeenv.SubstContext, l, r term.ExprID) bool {
	if c.Eqc.Equal(l, r) {
		return true
	}
	if c.isEmptyADT(ctx, l) {
		return true
	}
	_, pairs, ok := c.decompose(ctx, l, r)
	if !ok {
		return false
	}
	if len(pairs) > 0 && sc.Len() > 0 {
		frames := sc.Frames()
		frames[len(frames)-1].Pending = append(frames[len(frames)-1].Pending, pairs...)
	}
	return true
}

// decompose is the recursive backfuse decomposition. exploded is true
// once a same-shape-different-head mismatch is found anywhere in the
// recursion (the arm is unreachable and every pair collected so far,
// above and below that point, is moot). ok is false only on an arity
// mismatch between two applications of the same head.
func (c *Checker) decompose(ctx *typeenv.Context, l, r term.ExprID) (exploded bool, pairs []typeenv.DynamicSubstitution, ok bool) {
	if c.Eqc.Equal(l, r) {
		return false, nil, true
	}
	lHead, lArgs, lCall := c.asApplication(l)
	rHead, rArgs, rCall := c.asApplication(r)
	if !lCall {
		lHead, lArgs = l, nil
	}
	if !rCall {
		rHead, rArgs = r, nil
	}

	lVariant, rVariant := c.isVariantHead(ctx, lHead), c.isVariantHead(ctx, rHead)
	if lVariant && rVariant {
		if !c.Eqc.Equal(lHead, rHead) {
			return true, nil, true
		}
		return c.decomposeArgs(ctx, lArgs, rArgs)
	}
	lAdt, rAdt := c.isADTHead(ctx, lHead), c.isADTHead(ctx, rHead)
	if lAdt && rAdt {
		if !c.Eqc.Equal(lHead, rHead) {
			return true, nil, true
		}
		return c.decomposeArgs(ctx, lArgs, rArgs)
	}
	return false, []typeenv.DynamicSubstitution{{Left: l, Right: r}}, true
}

func (c *Checker) decomposeArgs(ctx *typeenv.Context, l, r []term.ExprID) (bool, []typeenv.DynamicSubstitution, bool) {
	if len(l) != len(r) {
		return false, nil, false
	}
	var pairs []typeenv.DynamicSubstitution
	for i := range l {
		exploded, sub, ok := c.decompose(ctx, l[i], r[i])
		if !ok {
			return false, nil, false
		}
		if exploded {
			return true, nil, true
		}
		pairs = append(pairs, sub...)
	}
	return false, pairs, true
}

// rewriteWithPending applies every pending equation currently open on
// sc (outermost frame first) to e, one subst.One call per pair, in the
// direction each pair's pickDirection heuristic selects. Each pair is
// applied once, in order: the pairs are not rewritten by one another
// and the result is not iterated to a fixed point. It is the "on
// demand" rewrite spec.md §4.6.5 describes and that §4.7's "rewritten
// inferred type" consumes.
func (c *Checker) rewriteWithPending(sc *typeenv.SubstContext, e term.ExprID) term.ExprID {
	for _, frame := range sc.Frames() {
		for _, pair := range frame.Pending {
			from, to := c.pickDirection(pair)
			e = subst.One(c.Reg, c.Eqc, e, subst.Substitution{From: from, To: to})
		}
	}
	return e
}

// pickDirection chooses the concrete substitution direction for one
// pending pair (spec.md §4.6.5's two-step heuristic): prefer rewriting
// an inclusive sub-term occurrence to its containing term's partner,
// else rewrite whichever side has the numerically smaller minimum free
// De Bruijn index.
func (c *Checker) pickDirection(pair typeenv.DynamicSubstitution) (from, to term.ExprID) {
	if c.containsSubterm(pair.Right, pair.Left) {
		return pair.Right, pair.Left
	}
	if c.containsSubterm(pair.Left, pair.Right) {
		return pair.Left, pair.Right
	}
	if minFreeIndex(c.Reg, pair.Left) <= minFreeIndex(c.Reg, pair.Right) {
		return pair.Left, pair.Right
	}
	return pair.Right, pair.Left
}
