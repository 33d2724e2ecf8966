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

// Package normalize is the call-by-need normalizer (spec.md §4.5): beta,
// variant-directed iota, and transparency-gated delta reduction to
// normal forms, gated by the structural-recursion guard on recursive Fun
// unfolding (spec.md §4.5.1).
package normalize

import (
	"github.com/kantu-lang/kantucore/internal/semantic"
	"github.com/kantu-lang/kantucore/internal/subst"
	"github.com/kantu-lang/kantucore/internal/term"
	"github.com/kantu-lang/kantucore/internal/typeenv"
)

// Normalizer holds the collaborators the evaluator needs: the registry
// it rewrites through, the structural-equality checker it may consult,
// and the (external) predicate deciding whether one transparency
// suffices to unfold a given alias.
type Normalizer struct {
	Reg  *term.Registry
	Eqc  *semantic.Checker
	Pred typeenv.TransparencyPredicate
}

// New returns a Normalizer over the given collaborators.
func New(reg *term.Registry, eqc *semantic.Checker, pred typeenv.TransparencyPredicate) *Normalizer {
	return &Normalizer{Reg: reg, Eqc: eqc, Pred: pred}
}

// Normalize reduces e to a normal form under ctx, requiring at least
// `required` transparency to unfold an alias. The spec's "internal
// offset-context wrapper" (§4.5 State) is realized here by pushing and
// popping directly on the real Context: pushing uninterpreted entries
// for binders the normalizer itself descends under and always popping
// them again before returning, which is observably identical to an
// overlay and keeps Context's own lookup-with-lift logic as the single
// source of truth (see DESIGN.md).
func (nz *Normalizer) Normalize(ctx *typeenv.Context, required typeenv.Transparency, e term.ExprID) term.ExprID {
	r := nz.Reg
	switch e.Kind {
	case term.KindName:
		n := r.GetName(e.Name)
		if value, transparency, ok := ctx.GetAliasValue(n.DBIndex); ok {
			if nz.Pred(transparency, required) {
				// Alias values are always stored already normalized.
				return value
			}
		}
		return e

	case term.KindCall:
		return nz.normalizeCall(ctx, required, e)

	case term.KindFun:
		return nz.normalizeFun(ctx, required, e)

	case term.KindMatch:
		return nz.normalizeMatch(ctx, required, e)

	case term.KindForall:
		return nz.normalizeForall(ctx, required, e)

	case term.KindCheck:
		ck := *r.GetCheck(e.Chk)
		ck.Output = nz.Normalize(ctx, required, ck.Output)
		return term.ExprOfCheck(r.AddCheck(ck))

	case term.KindTodo:
		return e

	default:
		panic("normalize: invalid ExprID")
	}
}

func (nz *Normalizer) normalizeCall(ctx *typeenv.Context, required typeenv.Transparency, e term.ExprID) term.ExprID {
	r := nz.Reg
	c := *r.GetCall(e.Call)
	callee := nz.Normalize(ctx, required, c.Callee)
	args, argExprs := nz.normalizeArgs(ctx, required, c.Args)
	c.Callee, c.Args = callee, args

	if callee.Kind == term.KindFun {
		fn := r.GetFun(callee.Fun)
		// A Fun with no dashed parameter is non-recursive and always
		// applicable; one with a dashed parameter is applicable only once
		// that argument normalizes to a variant expression (spec.md
		// §4.5.1).
		if dashed, hasDashed := dashedArgValue(r, fn, c.Args, argExprs); !hasDashed || isVariantExpression(ctx, r, dashed) {
			return nz.betaReduce(ctx, required, callee.Fun, fn, c.Args, argExprs)
		}
	}
	return term.ExprOfCall(r.AddCall(c))
}

// dashedArgValue returns the normalized argument bound to fn's dashed
// parameter, if any. ok is false if fn has no dashed parameter.
func dashedArgValue(r *term.Registry, fn *term.Fun, args term.ArgList, argExprs []term.ExprID) (term.ExprID, bool) {
	params := r.Params(fn.Params)
	if fn.Params.Kind == term.ArgsPositional {
		for i, pid := range params {
			if r.GetParam(pid).IsDashed {
				return argExprs[i], true
			}
		}
		return term.ExprID{}, false
	}
	var dashedLabel string
	found := false
	for _, pid := range params {
		if p := r.GetParam(pid); p.IsDashed {
			dashedLabel, found = p.Label, true
			break
		}
	}
	if !found {
		return term.ExprID{}, false
	}
	for _, laid := range r.GetLabeledArgList(args.Labeled) {
		la := r.GetLabeledArg(laid)
		if la.Label == dashedLabel {
			return la.Value, true
		}
	}
	return term.ExprID{}, false
}

// isVariantExpression reports whether e, after normalization, is a bare
// variant constructor or a variant constructor applied to arguments
// (spec.md §4.5.1).
func isVariantExpression(ctx *typeenv.Context, r *term.Registry, e term.ExprID) bool {
	switch e.Kind {
	case term.KindName:
		n := r.GetName(e.Name)
		return ctx.GetDefinitionKind(n.DBIndex) == typeenv.DefVariant
	case term.KindCall:
		return isVariantExpression(ctx, r, r.GetCall(e.Call).Callee)
	default:
		return false
	}
}

// betaReduce applies fn to args: {self-name -> shifted self, each param
// name -> corresponding arg}, substitutes the body, downshifts, and
// continues normalizing (spec.md §4.5 "Call ... apply"). The body is
// pushed under its params first and the self-binder last (mirroring
// normalizeFun below and subst.go's own Fun case), so inside the body
// self sits at index 0 and the i-th declared parameter (0-indexed) sits
// at index `arity-i`; every replacement value originates outside all
// arity+1 binders and must be upshifted by that full amount. argExprs is
// in call-site order, which for a labeled call need not match fn's own
// declared parameter order, so it is reordered by paramOrderedArgs
// before being zipped against declaration-order indices (mirroring
// caseOrderedArgs's treatment of a match arm's constructor arguments).
func (nz *Normalizer) betaReduce(ctx *typeenv.Context, required typeenv.Transparency, fnID term.FunID, fn *term.Fun, args term.ArgList, argExprs []term.ExprID) term.ExprID {
	r := nz.Reg
	orderedArgs := paramOrderedArgs(r, fn, args, argExprs)
	arity := int32(len(orderedArgs))
	total := arity + 1
	selfExpr := term.ExprOfFun(fnID)
	substs := make([]subst.Substitution, 0, total)
	substs = append(substs, subst.Substitution{
		From: term.ExprOfName(r.AddName(term.Name{DBIndex: 0})),
		To:   term.Upshift(r, selfExpr, total, 0),
	})
	for i, argExpr := range orderedArgs {
		dbIndex := arity - int32(i)
		substs = append(substs, subst.Substitution{
			From: term.ExprOfName(r.AddName(term.Name{DBIndex: dbIndex})),
			To:   term.Upshift(r, argExpr, total, 0),
		})
	}
	substituted := subst.All(r, nz.Eqc, fn.Body, substs)
	downshifted, err := term.Downshift(r, substituted, total, 0)
	if err != nil {
		panic("normalize: beta reduction result still references a removed binder: " + err.Error())
	}
	return nz.Normalize(ctx, required, downshifted)
}

// paramOrderedArgs reorders argExprs (already-normalized, in call-site
// order) to match fn's declared parameter order. A positional call's
// arguments are already in that order; a labeled call's need not be, so
// each is looked up by label against fn's declared parameters, exactly
// as caseOrderedArgs reorders a match arm's constructor arguments.
func paramOrderedArgs(r *term.Registry, fn *term.Fun, args term.ArgList, argExprs []term.ExprID) []term.ExprID {
	if fn.Params.Kind == term.ArgsPositional {
		return argExprs
	}
	byLabel := make(map[string]term.ExprID, len(argExprs))
	for i, laid := range r.GetLabeledArgList(args.Labeled) {
		byLabel[r.GetLabeledArg(laid).Label] = argExprs[i]
	}
	params := r.Params(fn.Params)
	out := make([]term.ExprID, len(params))
	for i, pid := range params {
		out[i] = byLabel[r.GetParam(pid).Label]
	}
	return out
}

func (nz *Normalizer) normalizeArgs(ctx *typeenv.Context, required typeenv.Transparency, a term.ArgList) (term.ArgList, []term.ExprID) {
	r := nz.Reg
	if a.Kind == term.ArgsPositional {
		ids := r.GetExprList(a.Positional)
		out := make([]term.ExprID, len(ids))
		for i, id := range ids {
			out[i] = nz.Normalize(ctx, required, id)
		}
		return r.PositionalArgs(out), out
	}
	ids := r.GetLabeledArgList(a.Labeled)
	newIDs := make([]term.LabeledArgID, len(ids))
	out := make([]term.ExprID, len(ids))
	for i, id := range ids {
		la := *r.GetLabeledArg(id)
		la.Value = nz.Normalize(ctx, required, la.Value)
		out[i] = la.Value
		newIDs[i] = r.AddLabeledArg(la)
	}
	return r.LabeledArgs(newIDs), out
}

func (nz *Normalizer) normalizeFun(ctx *typeenv.Context, required typeenv.Transparency, e term.ExprID) term.ExprID {
	r := nz.Reg
	fn := *r.GetFun(e.Fun)
	params := r.Params(fn.Params)
	newParams := make([]term.ParamID, len(params))
	pushed := 0
	for i, pid := range params {
		p := *r.GetParam(pid)
		p.Type = nz.Normalize(ctx, required, p.Type)
		newParams[i] = r.AddParam(p)
		ctx.Push(typeenv.Entry{Type: p.Type, Def: typeenv.Definition{Kind: typeenv.DefUninterpreted}})
		pushed++
	}
	fn.ReturnType = nz.Normalize(ctx, required, fn.ReturnType)

	ctx.Push(typeenv.Entry{Type: term.ExprOfTodo(r.AddTodo(term.Todo{})), Def: typeenv.Definition{Kind: typeenv.DefUninterpreted}})
	pushed++
	fn.Body = nz.Normalize(ctx, required, fn.Body)

	ctx.PopN(pushed)
	fn.Params = rebuildParamList(r, fn.Params.Kind, newParams)
	return term.ExprOfFun(r.AddFun(fn))
}

func (nz *Normalizer) normalizeForall(ctx *typeenv.Context, required typeenv.Transparency, e term.ExprID) term.ExprID {
	r := nz.Reg
	fa := *r.GetForall(e.Fall)
	params := r.Params(fa.Params)
	newParams := make([]term.ParamID, len(params))
	for i, pid := range params {
		p := *r.GetParam(pid)
		p.Type = nz.Normalize(ctx, required, p.Type)
		newParams[i] = r.AddParam(p)
		ctx.Push(typeenv.Entry{Type: p.Type, Def: typeenv.Definition{Kind: typeenv.DefUninterpreted}})
	}
	fa.Output = nz.Normalize(ctx, required, fa.Output)
	ctx.PopN(len(params))
	fa.Params = rebuildParamList(r, fa.Params.Kind, newParams)
	return term.ExprOfForall(r.AddForall(fa))
}

func rebuildParamList(r *term.Registry, kind term.ArgListKind, params []term.ParamID) term.ParamList {
	if kind == term.ArgsPositional {
		return r.PositionalParams(params)
	}
	return r.LabeledParams(params)
}

func (nz *Normalizer) normalizeMatch(ctx *typeenv.Context, required typeenv.Transparency, e term.ExprID) term.ExprID {
	r := nz.Reg
	m := *r.GetMatch(e.Mtch)
	matchee := nz.Normalize(ctx, required, m.Matchee)
	m.Matchee = matchee

	if variantName, callArgs, ok := asVariantCall(ctx, r, matchee); ok {
		caseID, caseArity, found := findCase(r, m.Cases, variantName)
		if !found {
			panic("normalize: match on variant " + variantName + " with no matching case (checker invariant violated)")
		}
		mc := r.GetMatchCase(caseID)
		if mc.IsImpossible {
			panic("normalize: reached an `impossible` case at runtime (checker invariant violated)")
		}
		variantArgs := caseOrderedArgs(r, mc.Params, callArgs, caseArity)
		substs := make([]subst.Substitution, caseArity)
		for j := 0; j < caseArity; j++ {
			dbIndex := int32(caseArity - 1 - j)
			substs[j] = subst.Substitution{
				From: term.ExprOfName(r.AddName(term.Name{DBIndex: dbIndex})),
				To:   term.Upshift(r, variantArgs[j], int32(caseArity), 0),
			}
		}
		substituted := subst.All(r, nz.Eqc, mc.Output, substs)
		downshifted, err := term.Downshift(r, substituted, int32(caseArity), 0)
		if err != nil {
			panic("normalize: iota reduction result still references a removed binder: " + err.Error())
		}
		return nz.Normalize(ctx, required, downshifted)
	}

	// Stuck: normalize every case output under its own parameters.
	caseIDs := r.GetMatchCaseList(m.Cases)
	newCaseIDs := make([]term.MatchCaseID, len(caseIDs))
	for i, cid := range caseIDs {
		mc := *r.GetMatchCase(cid)
		if !mc.IsImpossible {
			arity := caseParamArity(mc.Params, mc.HasParams)
			for k := 0; k < arity; k++ {
				ctx.Push(typeenv.Entry{Type: term.ExprOfTodo(r.AddTodo(term.Todo{})), Def: typeenv.Definition{Kind: typeenv.DefUninterpreted}})
			}
			mc.Output = nz.Normalize(ctx, required, mc.Output)
			ctx.PopN(arity)
		}
		newCaseIDs[i] = r.AddMatchCase(mc)
	}
	if len(newCaseIDs) > 0 {
		m.Cases = r.AddMatchCaseList(newCaseIDs)
	}
	return term.ExprOfMatch(r.AddMatch(m))
}

func caseParamArity(p term.CaseParamList, has bool) int {
	if !has {
		return 0
	}
	if p.Kind == term.ArgsPositional {
		return p.Positional.Len()
	}
	return p.Labeled.Len()
}

// asVariantCall reports whether e is a (possibly applied) variant
// constructor, returning its declared name and, if applied, its raw
// call argument list (which may be labeled, in call-site order).
func asVariantCall(ctx *typeenv.Context, r *term.Registry, e term.ExprID) (name string, args term.ArgList, ok bool) {
	switch e.Kind {
	case term.KindName:
		n := r.GetName(e.Name)
		if vname, isVariant := ctx.GetVariantName(n.DBIndex); isVariant {
			return vname, term.ArgList{}, true
		}
		return "", term.ArgList{}, false
	case term.KindCall:
		c := r.GetCall(e.Call)
		if c.Callee.Kind != term.KindName {
			return "", term.ArgList{}, false
		}
		n := r.GetName(c.Callee.Name)
		vname, isVariant := ctx.GetVariantName(n.DBIndex)
		if !isVariant {
			return "", term.ArgList{}, false
		}
		return vname, c.Args, true
	default:
		return "", term.ArgList{}, false
	}
}

// caseOrderedArgs returns the matchee's constructor arguments reordered
// to match the case's own parameter order: positionally by index for a
// positional case, or by label lookup for a uniquely-labeled one (the
// call's labeled-argument order need not match the case's declared
// parameter order).
func caseOrderedArgs(r *term.Registry, caseParams term.CaseParamList, callArgs term.ArgList, arity int) []term.ExprID {
	out := make([]term.ExprID, arity)
	if arity == 0 {
		return out
	}
	if caseParams.Kind == term.ArgsPositional {
		exprs := r.GetExprList(callArgs.Positional)
		copy(out, exprs)
		return out
	}
	labelOf := make([]string, arity)
	for j, pid := range r.GetParamList(caseParams.Labeled) {
		labelOf[j] = r.GetParam(pid).Label
	}
	byLabel := make(map[string]term.ExprID, arity)
	for _, laid := range r.GetLabeledArgList(callArgs.Labeled) {
		la := r.GetLabeledArg(laid)
		byLabel[la.Label] = la.Value
	}
	for j, label := range labelOf {
		out[j] = byLabel[label]
	}
	return out
}

func findCase(r *term.Registry, cases term.ListID[term.MatchCaseID], variantName string) (term.MatchCaseID, int, bool) {
	for _, cid := range r.GetMatchCaseList(cases) {
		mc := r.GetMatchCase(cid)
		if mc.VariantName == variantName {
			return cid, caseParamArity(mc.Params, mc.HasParams), true
		}
	}
	return term.MatchCaseID{}, 0, false
}
