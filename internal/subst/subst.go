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

// Package subst is the capture-avoiding substitution engine (spec.md
// §4.4): whole-term rewrites `from ↦ to` performed by De Bruijn
// arithmetic rather than renaming, under the interned term registry.
package subst

import (
	"github.com/kantu-lang/kantucore/internal/semantic"
	"github.com/kantu-lang/kantucore/internal/term"
)

// Substitution is one `from ↦ to` rewrite. Both From and To are interned
// term ids living at the same binding depth as the rewrite target.
type Substitution struct {
	From, To term.ExprID
}

// All applies substitutions left-to-right to target (`subst_all`), one
// substitution at a time. It is one pass, not a fixpoint.
func All(reg *term.Registry, eqc *semantic.Checker, target term.ExprID, substs []Substitution) term.ExprID {
	for _, s := range substs {
		target = one(reg, eqc, target, s)
	}
	return target
}

// One applies a single substitution.
func One(reg *term.Registry, eqc *semantic.Checker, target term.ExprID, s Substitution) term.ExprID {
	return one(reg, eqc, target, s)
}

func upshift(reg *term.Registry, s Substitution, amount int32) Substitution {
	if amount == 0 {
		return s
	}
	return Substitution{
		From: term.Upshift(reg, s.From, amount, 0),
		To:   term.Upshift(reg, s.To, amount, 0),
	}
}

func one(reg *term.Registry, eqc *semantic.Checker, target term.ExprID, s Substitution) term.ExprID {
	// Equality short-circuit (§4.3 via §4.4): if the current subterm
	// already equals `from`, replace it outright and skip recursion.
	if eqc.Equal(target, s.From) {
		return s.To
	}

	switch target.Kind {
	case term.KindName:
		// A Name only ever matches via the equality short-circuit above;
		// it has no children to recurse into.
		return target

	case term.KindCall:
		c := *reg.GetCall(target.Call)
		c.Callee = one(reg, eqc, c.Callee, s)
		c.Args = substArgList(reg, eqc, c.Args, s)
		return term.ExprOfCall(reg.AddCall(c))

	case term.KindFun:
		fn := *reg.GetFun(target.Fun)
		params, arity := substParamList(reg, eqc, fn.Params, s)
		bumped := upshift(reg, s, arity)
		fn.ReturnType = one(reg, eqc, fn.ReturnType, bumped)
		fn.Body = one(reg, eqc, fn.Body, upshift(reg, bumped, 1))
		fn.Params = params
		return term.ExprOfFun(reg.AddFun(fn))

	case term.KindMatch:
		m := *reg.GetMatch(target.Mtch)
		m.Matchee = one(reg, eqc, m.Matchee, s)
		caseIDs := reg.GetMatchCaseList(m.Cases)
		newCaseIDs := make([]term.MatchCaseID, len(caseIDs))
		for i, cid := range caseIDs {
			mc := *reg.GetMatchCase(cid)
			arity := caseArity(mc.Params, mc.HasParams)
			bumped := upshift(reg, s, int32(arity))
			if !mc.IsImpossible {
				mc.Output = one(reg, eqc, mc.Output, bumped)
			}
			newCaseIDs[i] = reg.AddMatchCase(mc)
		}
		if len(newCaseIDs) > 0 {
			m.Cases = reg.AddMatchCaseList(newCaseIDs)
		}
		return term.ExprOfMatch(reg.AddMatch(m))

	case term.KindForall:
		fa := *reg.GetForall(target.Fall)
		params, arity := substParamList(reg, eqc, fa.Params, s)
		fa.Output = one(reg, eqc, fa.Output, upshift(reg, s, arity))
		fa.Params = params
		return term.ExprOfForall(reg.AddForall(fa))

	case term.KindCheck:
		ck := *reg.GetCheck(target.Chk)
		aids := reg.GetAssertionList(ck.Assertions)
		newAids := make([]term.AssertionID, len(aids))
		for i, aid := range aids {
			a := *reg.GetAssertion(aid)
			if !a.LHSIsGoal {
				a.LHS = one(reg, eqc, a.LHS, s)
			}
			if !a.RHSIsGoal && !a.RHSIsUnknown {
				a.RHS = one(reg, eqc, a.RHS, s)
			}
			newAids[i] = reg.AddAssertion(a)
		}
		if len(newAids) > 0 {
			ck.Assertions = reg.AddAssertionList(newAids)
		}
		ck.Output = one(reg, eqc, ck.Output, s)
		return term.ExprOfCheck(reg.AddCheck(ck))

	case term.KindTodo:
		return target

	default:
		panic("subst: invalid ExprID")
	}
}

func caseArity(p term.CaseParamList, has bool) int {
	if !has {
		return 0
	}
	if p.Kind == term.ArgsPositional {
		return p.Positional.Len()
	}
	return p.Labeled.Len()
}

func substArgList(reg *term.Registry, eqc *semantic.Checker, a term.ArgList, s Substitution) term.ArgList {
	if a.Kind == term.ArgsPositional {
		ids := reg.GetExprList(a.Positional)
		out := make([]term.ExprID, len(ids))
		for i, id := range ids {
			out[i] = one(reg, eqc, id, s)
		}
		return reg.PositionalArgs(out)
	}
	ids := reg.GetLabeledArgList(a.Labeled)
	out := make([]term.LabeledArgID, len(ids))
	for i, id := range ids {
		la := *reg.GetLabeledArg(id)
		// Labeled-argument subtlety (§4.4): an implicit `:label` argument
		// refers to a Name by its own De Bruijn index. If substitution
		// rewrites exactly that name, the argument is promoted to an
		// explicit one carrying the substituted value.
		if la.Implicit && eqc.Equal(la.Value, s.From) {
			la.Implicit = false
		}
		la.Value = one(reg, eqc, la.Value, s)
		out[i] = reg.AddLabeledArg(la)
	}
	return reg.LabeledArgs(out)
}

// substParamList mirrors term's own shift traversal: the i-th parameter's
// type is substituted under a substitution bumped by i, since it may
// refer to the i parameters declared before it.
func substParamList(reg *term.Registry, eqc *semantic.Checker, p term.ParamList, s Substitution) (term.ParamList, int32) {
	ids := reg.Params(p)
	out := make([]term.ParamID, len(ids))
	for i, id := range ids {
		param := *reg.GetParam(id)
		bumped := upshift(reg, s, int32(i))
		param.Type = one(reg, eqc, param.Type, bumped)
		if param.LabelClause.Kind != term.KindInvalid {
			param.LabelClause = one(reg, eqc, param.LabelClause, bumped)
		}
		out[i] = reg.AddParam(param)
	}
	arity := int32(len(ids))
	if p.Kind == term.ArgsPositional {
		return reg.PositionalParams(out), arity
	}
	return reg.LabeledParams(out), arity
}
