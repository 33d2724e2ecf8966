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
	"testing"

	"github.com/go-quicktest/qt"
	"github.com/google/go-cmp/cmp"
	"github.com/kr/pretty"

	"github.com/kantu-lang/kantucore/internal/diag"
	"github.com/kantu-lang/kantucore/internal/normalize"
	"github.com/kantu-lang/kantucore/internal/semantic"
	"github.com/kantu-lang/kantucore/internal/term"
	"github.com/kantu-lang/kantucore/internal/typeenv"
)

func alwaysUnfold(have, required typeenv.Transparency) bool { return true }

func newChecker(reg *term.Registry) *Checker {
	eqc := semantic.New(reg)
	nz := normalize.New(reg, eqc, alwaysUnfold)
	return New(reg, eqc, nz, nil)
}

// pushNat declares a Nat ADT with variants Z (nullary) and S (one Nat
// parameter) and returns the Name referencing Nat at the resulting
// depth, pushing ADT, Z and S in the same order normalize_test.go uses
// for its own ADT fixture. At the returned depth S is index 0, Z is
// index 1 and Nat is index 2.
func pushNat(reg *term.Registry, ctx *typeenv.Context) term.ExprID {
	ctx.Push(typeenv.Entry{Type: ctx.Type0(), Def: typeenv.Definition{Kind: typeenv.DefADT, ADTVariantNames: []string{"Z", "S"}}})
	natAtADTDepth := term.ExprOfName(reg.AddName(term.Name{DBIndex: 0}))

	ctx.Push(typeenv.Entry{Type: natAtADTDepth, Def: typeenv.Definition{Kind: typeenv.DefVariant, VariantName: "Z"}})

	// S's type is stored relative to the depth just after Z was pushed,
	// where Nat is index 1; under S's own parameter it is index 2.
	nParam := reg.AddParam(term.Param{Name: "n", Type: term.ExprOfName(reg.AddName(term.Name{DBIndex: 1}))})
	sOutput := term.ExprOfName(reg.AddName(term.Name{DBIndex: 2}))
	sType := term.ExprOfForall(reg.AddForall(term.Forall{
		Params: reg.PositionalParams([]term.ParamID{nParam}),
		Output: sOutput,
	}))
	ctx.Push(typeenv.Entry{Type: sType, Def: typeenv.Definition{Kind: typeenv.DefVariant, VariantName: "S"}})

	return term.ExprOfName(reg.AddName(term.Name{DBIndex: 2}))
}

func TestInferForallReturnsType0(t *testing.T) {
	reg := term.New()
	ctx := typeenv.New(reg)
	sc := typeenv.NewSubstContext()
	c := newChecker(reg)

	param := reg.AddParam(term.Param{Name: "x", Type: ctx.Type0()})
	fa := term.ExprOfForall(reg.AddForall(term.Forall{
		Params: reg.PositionalParams([]term.ParamID{param}),
		Output: ctx.Type0(),
	}))

	got, err := c.Infer(ctx, sc, fa)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(got, ctx.Type0()))
}

func TestInferFunReturnsForallType(t *testing.T) {
	reg := term.New()
	ctx := typeenv.New(reg)
	sc := typeenv.NewSubstContext()
	c := newChecker(reg)

	param := reg.AddParam(term.Param{Name: "x", Type: ctx.Type0()})
	fn := term.ExprOfFun(reg.AddFun(term.Fun{
		Params:     reg.PositionalParams([]term.ParamID{param}),
		ReturnType: ctx.Type0(),
		Body:       term.ExprOfName(reg.AddName(term.Name{DBIndex: 1})), // x, under self
		SelfName:   "self",
	}))

	got, err := c.Infer(ctx, sc, fn)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(got.Kind, term.KindForall))

	wantParam := reg.AddParam(term.Param{Name: "x", Type: ctx.Type0()})
	want := term.ExprOfForall(reg.AddForall(term.Forall{
		Params: reg.PositionalParams([]term.ParamID{wantParam}),
		Output: ctx.Type0(),
	}))
	qt.Assert(t, qt.IsTrue(c.Eqc.Equal(got, want)))
}

// TestInferCallWithLabeledArgsPermutedAndDependent builds a dependent
// projection `fun fst(first: Type0, second: first): first { first }` and
// calls it with its labeled arguments reversed, exercising both the
// label-coverage permutation and the substitution arithmetic in
// call.go's expectedParamType.
func TestInferCallWithLabeledArgsPermutedAndDependent(t *testing.T) {
	reg := term.New()
	ctx := typeenv.New(reg)
	sc := typeenv.NewSubstContext()
	c := newChecker(reg)

	natName := pushNat(reg, ctx)
	zName := term.ExprOfName(reg.AddName(term.Name{DBIndex: 1})) // Z, just below S

	firstParam := reg.AddParam(term.Param{Name: "first", Label: "first", Type: ctx.Type0()})
	secondParam := reg.AddParam(term.Param{Name: "second", Label: "second", Type: term.ExprOfName(reg.AddName(term.Name{DBIndex: 0}))})
	fn := term.ExprOfFun(reg.AddFun(term.Fun{
		Params:     reg.LabeledParams([]term.ParamID{firstParam, secondParam}),
		ReturnType: term.ExprOfName(reg.AddName(term.Name{DBIndex: 1})), // first, params-only scope
		Body:       term.ExprOfName(reg.AddName(term.Name{DBIndex: 2})), // first, self+params scope
		SelfName:   "fst",
	}))

	secondArg := reg.AddLabeledArg(term.LabeledArg{Label: "second", Value: zName})
	firstArg := reg.AddLabeledArg(term.LabeledArg{Label: "first", Value: natName})
	call := term.ExprOfCall(reg.AddCall(term.Call{
		Callee: fn,
		Args:   reg.LabeledArgs([]term.LabeledArgID{secondArg, firstArg}),
	}))

	got, err := c.Infer(ctx, sc, call)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsTrue(c.Eqc.Equal(got, natName)))
}

// TestInferMatchOnNatReturnsNat checks a full-coverage dependent match
// over Nat's two variants, both arms yielding Nat.
func TestInferMatchOnNatReturnsNat(t *testing.T) {
	reg := term.New()
	ctx := typeenv.New(reg)
	sc := typeenv.NewSubstContext()
	c := newChecker(reg)

	natName := pushNat(reg, ctx)
	zName := term.ExprOfName(reg.AddName(term.Name{DBIndex: 1}))
	sName := term.ExprOfName(reg.AddName(term.Name{DBIndex: 0}))

	succOfZero := term.ExprOfCall(reg.AddCall(term.Call{
		Callee: sName,
		Args:   reg.PositionalArgs([]term.ExprID{zName}),
	}))

	sParam := reg.AddParam(term.Param{Name: "n", Type: natName})
	sCase := reg.AddMatchCase(term.MatchCase{
		VariantName: "S",
		HasParams:   true,
		Params:      term.CaseParamList{Kind: term.ArgsPositional, Positional: reg.AddParamList([]term.ParamID{sParam})},
		Output:      term.ExprOfName(reg.AddName(term.Name{DBIndex: 0})), // n, the case's own param
	})
	zCase := reg.AddMatchCase(term.MatchCase{
		VariantName: "Z",
		Output:      zName,
	})

	match := term.ExprOfMatch(reg.AddMatch(term.Match{
		Matchee: succOfZero,
		Cases:   reg.AddMatchCaseList([]term.MatchCaseID{sCase, zCase}),
	}))

	got, err := c.Infer(ctx, sc, match)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsTrue(c.Eqc.Equal(got, natName)))
}

// TestCheckExprAssertionWarnsOnTypeMismatch exercises a `check{}` block
// whose single type assertion is false, verifying the mismatch is
// recorded as a warning (never an error) and the block's own type is
// still its output's type.
func TestCheckExprAssertionWarnsOnTypeMismatch(t *testing.T) {
	reg := term.New()
	ctx := typeenv.New(reg)
	sc := typeenv.NewSubstContext()
	c := newChecker(reg)

	natName := pushNat(reg, ctx)
	zName := term.ExprOfName(reg.AddName(term.Name{DBIndex: 1}))

	assertion := reg.AddAssertion(term.Assertion{
		Kind: term.AssertTypeOf,
		LHS:  zName,
		RHS:  ctx.Type0(), // wrong: Z has type Nat, not Type0
	})
	ck := term.ExprOfCheck(reg.AddCheck(term.Check{
		Assertions: reg.AddAssertionList([]term.AssertionID{assertion}),
		Output:     zName,
	}))

	got, err := c.Infer(ctx, sc, ck)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsTrue(c.Eqc.Equal(got, natName)))
	qt.Assert(t, qt.Equals(c.Warnings.Len(), 1))

	gotWarning := c.Warnings.All()[0]
	if diff := cmp.Diff(diag.WarnTypeMismatch.String(), gotWarning.Kind.String()); diff != "" {
		t.Errorf("warning kind mismatch (-want +got):\n%s", diff)
		t.Logf("warning dump:\n%# v", pretty.Formatter(gotWarning))
	}
}
