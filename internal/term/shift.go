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

package term

import "fmt"

// ShiftError distinguishes a failed shift from every other error kind
// the checker raises (spec.md §7: "Downshift-too-small ... indicates an
// upstream bug, not a user error").
type ShiftError struct {
	Index, Cutoff, Amount int32
}

func (e *ShiftError) Error() string {
	return fmt.Sprintf("term: index %d too small to downshift by %d below cutoff %d", e.Index, e.Amount, e.Cutoff)
}

// shiftFn is a parametric De Bruijn index transform (spec.md §4.2).
type shiftFn interface {
	apply(index, cutoff int32) (int32, error)
}

type upshiftFn struct{ amount int32 }

func (f upshiftFn) apply(index, cutoff int32) (int32, error) {
	if index >= cutoff {
		return index + f.amount, nil
	}
	return index, nil
}

type downshiftFn struct{ amount int32 }

func (f downshiftFn) apply(index, cutoff int32) (int32, error) {
	if index < cutoff {
		return index, nil
	}
	if index < cutoff+f.amount {
		return 0, &ShiftError{Index: index, Cutoff: cutoff, Amount: f.amount}
	}
	return index - f.amount, nil
}

// bishiftFn rotates a contiguous band: the top Len slots (those in
// [cutoff, cutoff+Len)) move down to just below Pivot, while the middle
// Pivot-Len slots slide up by Len. Indices >= cutoff+Pivot or < cutoff
// are unchanged (spec.md §4.2 "Bishift").
type bishiftFn struct{ length, pivot int32 }

func (f bishiftFn) apply(index, cutoff int32) (int32, error) {
	rel := index - cutoff
	switch {
	case rel < 0 || rel >= f.pivot:
		return index, nil
	case rel < f.length:
		// one of the top Len slots: move down to just below pivot.
		return cutoff + (f.pivot - f.length) + rel, nil
	default:
		// one of the middle Pivot-Len slots: slide up (toward 0) by Len.
		return cutoff + rel - f.length, nil
	}
}

// Upshift returns a term with every free De Bruijn index at or above
// cutoff increased by amount. Upshift never fails.
func Upshift(r *Registry, e ExprID, amount int32, cutoff int32) ExprID {
	out, err := shiftExpr(r, e, upshiftFn{amount: amount}, cutoff)
	if err != nil {
		panic(fmt.Sprintf("term: upshift is infallible, got %v", err))
	}
	return out
}

// Downshift returns a term with every free De Bruijn index at or above
// cutoff decreased by amount. It fails with *ShiftError if some free
// index falls inside [cutoff, cutoff+amount) — i.e. it refers to a
// binder being removed.
func Downshift(r *Registry, e ExprID, amount int32, cutoff int32) (ExprID, error) {
	return shiftExpr(r, e, downshiftFn{amount: amount}, cutoff)
}

// Bishift inserts `length` new bindings below `pivot` pre-existing ones
// without disturbing higher frames; used by match-arm parameterization
// to thread synthetic case bindings beneath existing matchee bindings
// (spec.md §4.2).
func Bishift(r *Registry, e ExprID, length, pivot int32, cutoff int32) ExprID {
	out, err := shiftExpr(r, e, bishiftFn{length: length, pivot: pivot}, cutoff)
	if err != nil {
		panic(fmt.Sprintf("term: bishift is infallible, got %v", err))
	}
	return out
}

func shiftExpr(r *Registry, e ExprID, f shiftFn, cutoff int32) (ExprID, error) {
	switch e.Kind {
	case KindName:
		n := *r.GetName(e.Name)
		shifted, err := f.apply(n.DBIndex, cutoff)
		if err != nil {
			return ExprID{}, err
		}
		n.DBIndex = shifted
		return ExprOfName(r.AddName(n)), nil

	case KindCall:
		c := *r.GetCall(e.Call)
		callee, err := shiftExpr(r, c.Callee, f, cutoff)
		if err != nil {
			return ExprID{}, err
		}
		args, err := shiftArgList(r, c.Args, f, cutoff)
		if err != nil {
			return ExprID{}, err
		}
		c.Callee, c.Args = callee, args
		return ExprOfCall(r.AddCall(c)), nil

	case KindFun:
		fn := *r.GetFun(e.Fun)
		params, arity, err := shiftParamList(r, fn.Params, f, cutoff)
		if err != nil {
			return ExprID{}, err
		}
		retType, err := shiftExpr(r, fn.ReturnType, f, cutoff+arity)
		if err != nil {
			return ExprID{}, err
		}
		// Fun bodies bump by arity+1 for the self-reference.
		body, err := shiftExpr(r, fn.Body, f, cutoff+arity+1)
		if err != nil {
			return ExprID{}, err
		}
		fn.Params, fn.ReturnType, fn.Body = params, retType, body
		return ExprOfFun(r.AddFun(fn)), nil

	case KindMatch:
		m := *r.GetMatch(e.Mtch)
		matchee, err := shiftExpr(r, m.Matchee, f, cutoff)
		if err != nil {
			return ExprID{}, err
		}
		caseIDs := r.GetMatchCaseList(m.Cases)
		newCaseIDs := make([]MatchCaseID, len(caseIDs))
		for i, cid := range caseIDs {
			mc := *r.GetMatchCase(cid)
			caseArity := 0
			if mc.HasParams {
				var params CaseParamList
				var err2 error
				params, caseArity, err2 = shiftCaseParamList(r, mc.Params, f, cutoff)
				if err2 != nil {
					return ExprID{}, err2
				}
				mc.Params = params
			}
			if !mc.IsImpossible {
				out, err2 := shiftExpr(r, mc.Output, f, cutoff+int32(caseArity))
				if err2 != nil {
					return ExprID{}, err2
				}
				mc.Output = out
			}
			newCaseIDs[i] = r.AddMatchCase(mc)
		}
		m.Matchee = matchee
		if len(newCaseIDs) > 0 {
			m.Cases = r.AddMatchCaseList(newCaseIDs)
		}
		return ExprOfMatch(r.AddMatch(m)), nil

	case KindForall:
		fa := *r.GetForall(e.Fall)
		params, arity, err := shiftParamList(r, fa.Params, f, cutoff)
		if err != nil {
			return ExprID{}, err
		}
		output, err := shiftExpr(r, fa.Output, f, cutoff+arity)
		if err != nil {
			return ExprID{}, err
		}
		fa.Params, fa.Output = params, output
		return ExprOfForall(r.AddForall(fa)), nil

	case KindCheck:
		ck := *r.GetCheck(e.Chk)
		aids := r.GetAssertionList(ck.Assertions)
		newAids := make([]AssertionID, len(aids))
		for i, aid := range aids {
			a := *r.GetAssertion(aid)
			if !a.LHSIsGoal {
				lhs, err := shiftExpr(r, a.LHS, f, cutoff)
				if err != nil {
					return ExprID{}, err
				}
				a.LHS = lhs
			}
			if !a.RHSIsGoal && !a.RHSIsUnknown {
				rhs, err := shiftExpr(r, a.RHS, f, cutoff)
				if err != nil {
					return ExprID{}, err
				}
				a.RHS = rhs
			}
			newAids[i] = r.AddAssertion(a)
		}
		output, err := shiftExpr(r, ck.Output, f, cutoff)
		if err != nil {
			return ExprID{}, err
		}
		ck.Output = output
		if len(newAids) > 0 {
			ck.Assertions = r.AddAssertionList(newAids)
		}
		return ExprOfCheck(r.AddCheck(ck)), nil

	case KindTodo:
		return e, nil

	default:
		panic(fmt.Sprintf("term: shiftExpr of invalid ExprID %v", e))
	}
}

func shiftArgList(r *Registry, a ArgList, f shiftFn, cutoff int32) (ArgList, error) {
	if a.Kind == ArgsPositional {
		ids := r.GetExprList(a.Positional)
		out := make([]ExprID, len(ids))
		for i, id := range ids {
			shifted, err := shiftExpr(r, id, f, cutoff)
			if err != nil {
				return ArgList{}, err
			}
			out[i] = shifted
		}
		return r.PositionalArgs(out), nil
	}
	ids := r.GetLabeledArgList(a.Labeled)
	out := make([]LabeledArgID, len(ids))
	for i, id := range ids {
		la := *r.GetLabeledArg(id)
		shifted, err := shiftExpr(r, la.Value, f, cutoff)
		if err != nil {
			return ArgList{}, err
		}
		la.Value = shifted
		out[i] = r.AddLabeledArg(la)
	}
	return r.LabeledArgs(out), nil
}

// shiftParamList shifts each parameter's type under the binders
// introduced by the parameters before it, then returns the shifted list
// and its arity.
func shiftParamList(r *Registry, p ParamList, f shiftFn, cutoff int32) (ParamList, int32, error) {
	ids := r.Params(p)
	out := make([]ParamID, len(ids))
	for i, id := range ids {
		param := *r.GetParam(id)
		ty, err := shiftExpr(r, param.Type, f, cutoff+int32(i))
		if err != nil {
			return ParamList{}, 0, err
		}
		param.Type = ty
		if param.LabelClause.Kind != KindInvalid {
			lc, err := shiftExpr(r, param.LabelClause, f, cutoff+int32(i))
			if err != nil {
				return ParamList{}, 0, err
			}
			param.LabelClause = lc
		}
		out[i] = r.AddParam(param)
	}
	arity := int32(len(ids))
	if p.Kind == ArgsPositional {
		return r.PositionalParams(out), arity, nil
	}
	return r.LabeledParams(out), arity, nil
}

func shiftCaseParamList(r *Registry, c CaseParamList, f shiftFn, cutoff int32) (CaseParamList, int, error) {
	// Case parameters have no declared types of their own to shift (their
	// types come from the variant being matched); only downstream uses in
	// the case output are affected, which the caller shifts separately.
	if c.Kind == ArgsPositional {
		return c, c.Positional.Len(), nil
	}
	return c, c.Labeled.Len(), nil
}
