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
	"github.com/kantu-lang/kantucore/internal/subst"
	"github.com/kantu-lang/kantucore/internal/term"
	"github.com/kantu-lang/kantucore/internal/typeenv"
)

// inferCall implements spec.md §4.6.2.
func (c *Checker) inferCall(ctx *typeenv.Context, sc *typeenv.SubstContext, e term.ExprID) (term.ExprID, *diag.Error) {
	r := c.Reg
	call := r.GetCall(e.Call)

	calleeType, err := c.Infer(ctx, sc, call.Callee)
	if err != nil {
		return term.ExprID{}, err
	}
	normCalleeType := c.Nz.Normalize(ctx, c.FullTransparency, calleeType)
	if normCalleeType.Kind != term.KindForall {
		return term.ExprID{}, diag.New(diag.KindIllegalCallee, call.Callee, "callee type is not a Forall")
	}
	fa := r.GetForall(normCalleeType.Fall)
	params := r.Params(fa.Params)
	arity := len(params)

	if (call.Args.Kind == term.ArgsLabeled) != (fa.Params.Kind == term.ArgsLabeled) {
		return term.ExprID{}, diag.New(diag.KindLabelednessMismatch, e, "argument labeledness does not match the callee's parameters")
	}

	argExprs, err := c.paramOrderedArgs(e, params, call.Args, fa.Params.Kind)
	if err != nil {
		return term.ExprID{}, err
	}

	checked := make([]term.ExprID, 0, arity)
	for i, pid := range params {
		p := r.GetParam(pid)
		expected := c.expectedParamType(p.Type, checked, int32(i))
		if _, err := c.Check(ctx, sc, argExprs[i], expected); err != nil {
			return term.ExprID{}, err
		}
		checked = append(checked, c.Nz.Normalize(ctx, c.FullTransparency, argExprs[i]))
	}

	resultType := c.expectedParamType(fa.Output, checked, int32(arity))
	return resultType, nil
}

// expectedParamType substitutes the running-index earlier arguments
// into a declared type that lives under `index` binders (param i's
// declared type, or the Forall's own Output once all `arity` params are
// checked), following the same upshift-then-downshift arithmetic as
// beta/iota reduction: the j-th earlier argument replaces the Name at
// DBIndex `index-1-j`, upshifted by `index` so it is valid under that
// many binders, and the whole substituted result is downshifted back by
// `index` once every reference to an earlier param is gone.
func (c *Checker) expectedParamType(declared term.ExprID, checkedArgs []term.ExprID, index int32) term.ExprID {
	if index == 0 {
		return declared
	}
	r := c.Reg
	substs := make([]subst.Substitution, index)
	for j := int32(0); j < index; j++ {
		substs[j] = subst.Substitution{
			From: term.ExprOfName(r.AddName(term.Name{DBIndex: index - 1 - j})),
			To:   term.Upshift(r, checkedArgs[j], index, 0),
		}
	}
	substituted := subst.All(r, c.Eqc, declared, substs)
	downshifted, shiftErr := term.Downshift(r, substituted, index, 0)
	if shiftErr != nil {
		panic("check: call substitution result still references a removed binder: " + shiftErr.Error())
	}
	return downshifted
}

// paramOrderedArgs returns the call's argument expressions reordered to
// match the callee's declared parameter order. For a positional call
// this is a no-op arity check; for a labeled call it verifies two-way
// label coverage (spec.md §4.6.2 step 2) and silently permutes.
func (c *Checker) paramOrderedArgs(callExpr term.ExprID, params []term.ParamID, args term.ArgList, kind term.ArgListKind) ([]term.ExprID, *diag.Error) {
	r := c.Reg
	if kind == term.ArgsPositional {
		exprs := r.GetExprList(args.Positional)
		if len(exprs) != len(params) {
			return nil, diag.New(diag.KindArityMismatch, callExpr, "expected %d positional arguments, got %d", len(params), len(exprs))
		}
		return exprs, nil
	}

	labelOf := make([]string, len(params))
	paramLabelSet := make(map[string]bool, len(params))
	for i, pid := range params {
		label := r.GetParam(pid).Label
		labelOf[i] = label
		paramLabelSet[label] = true
	}
	byLabel := make(map[string]term.ExprID, len(params))
	for _, laid := range r.GetLabeledArgList(args.Labeled) {
		la := r.GetLabeledArg(laid)
		byLabel[la.Label] = la.Value
		if !paramLabelSet[la.Label] {
			return nil, diag.New(diag.KindExtraneousLabel, callExpr, "argument label %q does not name a parameter", la.Label)
		}
	}
	out := make([]term.ExprID, len(params))
	for i, label := range labelOf {
		v, ok := byLabel[label]
		if !ok {
			return nil, diag.New(diag.KindMissingLabel, callExpr, "missing argument for label %q", label)
		}
		out[i] = v
	}
	return out, nil
}
