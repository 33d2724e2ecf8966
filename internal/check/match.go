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

// inferMatch implements the dependent-match preconditions and per-case
// loop of spec.md §4.6.3.
func (c *Checker) inferMatch(ctx *typeenv.Context, sc *typeenv.SubstContext, e term.ExprID, target *term.ExprID) (term.ExprID, *diag.Error) {
	r := c.Reg
	m := r.GetMatch(e.Mtch)

	matcheeType, err := c.Infer(ctx, sc, m.Matchee)
	if err != nil {
		return term.ExprID{}, err
	}
	normMatcheeType := c.Nz.Normalize(ctx, c.FullTransparency, matcheeType)
	adtHead, _, _ := c.asApplication(normMatcheeType)
	if !c.isADTHead(ctx, adtHead) {
		return term.ExprID{}, diag.New(diag.KindNonADTMatchee, m.Matchee, "matchee type is not an ADT expression")
	}
	variantNames, _ := ctx.GetADTVariantNames(r.GetName(adtHead.Name).DBIndex)

	caseIDs := r.GetMatchCaseList(m.Cases)
	if err := checkCaseBijection(r, e, caseIDs, variantNames); err != nil {
		return term.ExprID{}, err
	}
	if len(caseIDs) == 0 {
		return matcheeType, nil
	}

	normMatchee := c.Nz.Normalize(ctx, c.FullTransparency, m.Matchee)

	var matchType term.ExprID
	haveType := false
	for _, cid := range caseIDs {
		mc := r.GetMatchCase(cid)
		if mc.IsImpossible {
			continue
		}
		caseType, err := c.checkMatchCase(ctx, sc, mc, normMatchee, normMatcheeType, target)
		if err != nil {
			return term.ExprID{}, err
		}
		if !haveType {
			matchType, haveType = caseType, true
			continue
		}
		if target == nil && !c.assignable(ctx, sc, caseType, matchType) && !c.assignable(ctx, sc, matchType, caseType) {
			return term.ExprID{}, diag.TypeMismatch(e, matchType, caseType)
		}
	}
	if !haveType {
		return matcheeType, nil
	}
	return matchType, nil
}

func checkCaseBijection(r *term.Registry, e term.ExprID, caseIDs []term.MatchCaseID, variantNames []string) *diag.Error {
	seen := make(map[string]bool, len(caseIDs))
	variantSet := make(map[string]bool, len(variantNames))
	for _, vn := range variantNames {
		variantSet[vn] = true
	}
	for _, cid := range caseIDs {
		mc := r.GetMatchCase(cid)
		if seen[mc.VariantName] {
			return diag.New(diag.KindDuplicateCase, e, "duplicate case for variant %q", mc.VariantName)
		}
		seen[mc.VariantName] = true
		if !variantSet[mc.VariantName] {
			return diag.New(diag.KindExtraneousCase, e, "case names variant %q which the matchee's ADT does not declare", mc.VariantName)
		}
	}
	for _, vn := range variantNames {
		if !seen[vn] {
			return diag.New(diag.KindMissingCase, e, "missing case for variant %q", vn)
		}
	}
	return nil
}

// checkMatchCase implements spec.md §4.6.3 steps 1-6 for a single arm.
func (c *Checker) checkMatchCase(ctx *typeenv.Context, sc *typeenv.SubstContext, mc *term.MatchCase, normMatchee, normMatcheeType term.ExprID, target *term.ExprID) (term.ExprID, *diag.Error) {
	variantDbIndex, ok := ctx.FindVariant(mc.VariantName)
	if !ok {
		return term.ExprID{}, diag.New(diag.KindExtraneousCase, mc.Output, "no variant named %q is in scope", mc.VariantName)
	}

	pushed, paramMatchee, paramMatcheeType, perr := c.parameterizeVariant(ctx, variantDbIndex, mc.Params, mc.HasParams)
	if perr != nil {
		return term.ExprID{}, perr
	}

	sc.Push(ctx.Len(), []typeenv.DynamicSubstitution{
		{Left: term.Upshift(c.Reg, normMatchee, int32(pushed), 0), Right: paramMatchee},
		{Left: term.Upshift(c.Reg, normMatcheeType, int32(pushed), 0), Right: paramMatcheeType},
	})
	defer sc.Pop()
	defer ctx.PopN(pushed)

	// Case-output substitutions renaming labeled-case params to their
	// variant-parameter positions (spec.md §4.6.3 step 3) are already
	// absorbed by the push order parameterizeVariant established: the
	// case's own declared params are always pushed last/innermost, in
	// their own declaration order, so mc.Output's references to them
	// already land on the right slots without rewriting. The output binds
	// only those declared params, so its references to the enclosing
	// scope are lifted over any omitted-label placeholders pushed beneath.
	output := mc.Output
	if declared := caseParamArity(mc); pushed > declared {
		output = term.Upshift(c.Reg, output, int32(pushed-declared), int32(declared))
	}

	if target != nil {
		shifted := term.Upshift(c.Reg, *target, int32(pushed), 0)
		if _, err := c.Check(ctx, sc, output, shifted); err != nil {
			return term.ExprID{}, err
		}
		return *target, nil
	}

	outType, err := c.Infer(ctx, sc, output)
	if err != nil {
		return term.ExprID{}, err
	}
	downshifted, serr := term.Downshift(c.Reg, outType, int32(pushed), 0)
	if serr != nil {
		return term.ExprID{}, diag.New(diag.KindAmbiguousOutputType, mc.Output, "case output type depends on a case parameter")
	}
	return downshifted, nil
}

// parameterizeVariant implements spec.md §4.6.4. It returns how many
// context entries it pushed (the caller pops them), a synthetic
// "parameterized matchee" term, and its type.
func (c *Checker) parameterizeVariant(ctx *typeenv.Context, variantDbIndex int32, caseParams term.CaseParamList, caseHasParams bool) (pushed int, paramMatchee, paramMatcheeType term.ExprID, err *diag.Error) {
	r := c.Reg
	variantType := ctx.GetType(variantDbIndex)
	variantNameExpr := term.ExprOfName(r.AddName(term.Name{DBIndex: variantDbIndex}))

	if variantType.Kind != term.KindForall {
		// Nullary variant: no push; the parameterized matchee is the
		// bare variant Name, its type is the variant's declared type.
		return 0, variantNameExpr, variantType, nil
	}

	fa := r.GetForall(variantType.Fall)
	variantParams := r.Params(fa.Params)

	if fa.Params.Kind == term.ArgsPositional {
		return c.parameterizePositionalVariant(ctx, variantNameExpr, fa, variantParams, caseParams, caseHasParams)
	}
	return c.parameterizeLabeledVariant(ctx, variantNameExpr, fa, variantParams, caseParams)
}

func (c *Checker) parameterizePositionalVariant(ctx *typeenv.Context, variantNameExpr term.ExprID, fa *term.Forall, variantParams []term.ParamID, caseParams term.CaseParamList, caseHasParams bool) (int, term.ExprID, term.ExprID, *diag.Error) {
	r := c.Reg
	arity := len(variantParams)
	if caseHasParams {
		got := 0
		if caseParams.Kind == term.ArgsPositional {
			got = caseParams.Positional.Len()
		}
		if got != arity {
			return 0, term.ExprID{}, term.ExprID{}, diag.New(diag.KindArityMismatch, variantNameExpr, "case declares %d parameters, variant has %d", got, arity)
		}
	} else if arity != 0 {
		return 0, term.ExprID{}, term.ExprID{}, diag.New(diag.KindArityMismatch, variantNameExpr, "case declares no parameters, variant has %d", arity)
	}

	for _, pid := range variantParams {
		p := r.GetParam(pid)
		ctx.Push(typeenv.Entry{Type: p.Type, Def: typeenv.Definition{Kind: typeenv.DefUninterpreted}})
	}
	args := make([]term.ExprID, arity)
	for k := 0; k < arity; k++ {
		args[k] = term.ExprOfName(r.AddName(term.Name{DBIndex: int32(arity - 1 - k)}))
	}
	matchee := variantNameExpr
	if arity > 0 {
		matchee = term.ExprOfCall(r.AddCall(term.Call{
			Callee: term.Upshift(r, variantNameExpr, int32(arity), 0),
			Args:   r.PositionalArgs(args),
		}))
	}
	// fa.Output already lives under exactly `arity` binders in
	// declaration order, the same order we just pushed in, so no
	// renaming substitution is needed here (see the labeled case below,
	// where it is).
	return arity, matchee, fa.Output, nil
}

func (c *Checker) parameterizeLabeledVariant(ctx *typeenv.Context, variantNameExpr term.ExprID, fa *term.Forall, variantParams []term.ParamID, caseParams term.CaseParamList) (int, term.ExprID, term.ExprID, *diag.Error) {
	r := c.Reg
	variantArity := len(variantParams)

	var caseParamIDs []term.ParamID
	if caseParams.Kind == term.ArgsLabeled {
		caseParamIDs = r.GetParamList(caseParams.Labeled)
	}
	caseArity := len(caseParamIDs)

	caseLabels := make(map[string]bool, caseArity)
	for _, pid := range caseParamIDs {
		caseLabels[r.GetParam(pid).Label] = true
	}
	variantLabels := make(map[string]bool, variantArity)
	for _, pid := range variantParams {
		variantLabels[r.GetParam(pid).Label] = true
	}
	for label := range caseLabels {
		if !variantLabels[label] {
			return 0, term.ExprID{}, term.ExprID{}, diag.New(diag.KindExtraneousLabel, variantNameExpr, "case names label %q, which the variant does not declare", label)
		}
	}
	if !caseParams.TripleDot && len(caseLabels) != len(variantLabels) {
		return 0, term.ExprID{}, term.ExprID{}, diag.New(diag.KindMissingLabel, variantNameExpr, "case does not cover every one of the variant's labels")
	}

	// Push order: omitted-label placeholders first (outer), then the
	// case's own declared params last (inner), in the case's own
	// declaration order, so the case output's existing De Bruijn
	// indices land on the right slots (see caseOrderedArgs in
	// internal/normalize for the matching iota-reduction convention).
	omitted := make([]term.ParamID, 0, variantArity-caseArity)
	for _, pid := range variantParams {
		if !caseLabels[r.GetParam(pid).Label] {
			omitted = append(omitted, pid)
		}
	}
	total := len(omitted) + caseArity
	for _, pid := range omitted {
		ctx.Push(typeenv.Entry{Type: r.GetParam(pid).Type, Def: typeenv.Definition{Kind: typeenv.DefUninterpreted}})
	}
	labelOfVariantParam := make(map[term.ParamID]string, variantArity)
	variantTypeOf := make(map[string]term.ExprID, variantArity)
	for _, pid := range variantParams {
		p := r.GetParam(pid)
		labelOfVariantParam[pid] = p.Label
		variantTypeOf[p.Label] = p.Type
	}
	for _, pid := range caseParamIDs {
		label := r.GetParam(pid).Label
		ctx.Push(typeenv.Entry{Type: variantTypeOf[label], Def: typeenv.Definition{Kind: typeenv.DefUninterpreted}})
	}

	labelToDBIndex := make(map[string]int32, variantArity)
	for k, pid := range omitted {
		labelToDBIndex[r.GetParam(pid).Label] = int32(total - 1 - k)
	}
	for j, pid := range caseParamIDs {
		k := len(omitted) + j
		labelToDBIndex[r.GetParam(pid).Label] = int32(total - 1 - k)
	}

	labeledArgs := make([]term.LabeledArgID, 0, variantArity)
	for _, pid := range variantParams {
		label := labelOfVariantParam[pid]
		labeledArgs = append(labeledArgs, r.AddLabeledArg(term.LabeledArg{
			Label: label,
			Value: term.ExprOfName(r.AddName(term.Name{DBIndex: labelToDBIndex[label]})),
		}))
	}
	matchee := variantNameExpr
	if variantArity > 0 {
		matchee = term.ExprOfCall(r.AddCall(term.Call{
			Callee: term.Upshift(r, variantNameExpr, int32(total), 0),
			Args:   r.LabeledArgs(labeledArgs),
		}))
	}

	// fa.Output is expressed in the variant's own declared parameter
	// order; our push order differs whenever any label was omitted or the
	// case lists its labels in another order, so (unlike the positional
	// case) a renaming substitution is required. Each param is first sent
	// to a fresh index above the band, so no rename is caught by a later
	// one, and the band is then shifted back down.
	va := int32(variantArity)
	substs := make([]subst.Substitution, 0, variantArity)
	for p, pid := range variantParams {
		original := va - 1 - int32(p)
		renamed := labelToDBIndex[r.GetParam(pid).Label]
		substs = append(substs, subst.Substitution{
			From: term.ExprOfName(r.AddName(term.Name{DBIndex: original})),
			To:   term.ExprOfName(r.AddName(term.Name{DBIndex: renamed + va})),
		})
	}
	renamedOutput := subst.All(r, c.Eqc, term.Upshift(r, fa.Output, va, va), substs)
	paramMatcheeType, serr := term.Downshift(r, renamedOutput, va, 0)
	if serr != nil {
		panic("check: renamed variant output still references a variant param: " + serr.Error())
	}

	return total, matchee, paramMatcheeType, nil
}
