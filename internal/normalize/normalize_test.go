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

package normalize

import (
	"testing"

	"github.com/go-quicktest/qt"
	"github.com/google/go-cmp/cmp"
	"github.com/kr/pretty"

	"github.com/kantu-lang/kantucore/internal/semantic"
	"github.com/kantu-lang/kantucore/internal/term"
	"github.com/kantu-lang/kantucore/internal/typeenv"
)

func alwaysUnfold(have, required typeenv.Transparency) bool { return true }

func newNormalizer(reg *term.Registry) *Normalizer {
	return New(reg, semantic.New(reg), alwaysUnfold)
}

// identity builds `fun self(x: Type0): Type0 { x }`, a non-recursive Fun
// with no dashed parameter: it must always beta-reduce when applied.
// Inside the body, self is bound at index 0 (innermost) and the single
// parameter x at index 1, per the Fun push order in normalizeFun.
func identity(reg *term.Registry, ctx *typeenv.Context) term.ExprID {
	paramType := ctx.Type0()
	param := reg.AddParam(term.Param{Name: "x", Type: paramType})
	body := term.ExprOfName(reg.AddName(term.Name{DBIndex: 1}))
	fn := reg.AddFun(term.Fun{
		Params:     reg.PositionalParams([]term.ParamID{param}),
		ReturnType: term.ExprOfName(reg.AddName(term.Name{DBIndex: 1})), // Type0, under x
		Body:       body,
		SelfName:   "self",
	})
	return term.ExprOfFun(fn)
}

func TestNormalizeBetaReducesNonRecursiveApplication(t *testing.T) {
	reg := term.New()
	ctx := typeenv.New(reg)
	nz := newNormalizer(reg)

	fn := identity(reg, ctx)
	arg := ctx.Type0()
	call := term.ExprOfCall(reg.AddCall(term.Call{
		Callee: fn,
		Args:   reg.PositionalArgs([]term.ExprID{arg}),
	}))

	got := nz.Normalize(ctx, nil, call)
	qt.Assert(t, qt.Equals(got, arg))
}

func TestNormalizeLeavesAliasFoldedUnderInsufficientTransparency(t *testing.T) {
	reg := term.New()
	ctx := typeenv.New(reg)
	never := func(have, required typeenv.Transparency) bool { return false }
	nz := New(reg, semantic.New(reg), never)

	aliasValue := ctx.Type0()
	ctx.Push(typeenv.Entry{
		Type: ctx.Type1(),
		Def:  typeenv.Definition{Kind: typeenv.DefAlias, AliasValue: aliasValue, AliasTransparency: "private"},
	})
	name := term.ExprOfName(reg.AddName(term.Name{DBIndex: 0}))

	got := nz.Normalize(ctx, "public", name)
	qt.Assert(t, qt.Equals(got, name))
}

// TestNormalizeMatchReducesOnVariantMatchee builds `match S(Z) { S(n) => n, Z => Z }` over a tiny
// two-variant ADT (Z nullary, S unary), and checks that normalization
// performs the iota reduction and returns the unwrapped argument.
func TestNormalizeMatchReducesOnVariantMatchee(t *testing.T) {
	reg := term.New()
	ctx := typeenv.New(reg)
	nz := newNormalizer(reg)

	ctx.Push(typeenv.Entry{Type: ctx.Type0(), Def: typeenv.Definition{Kind: typeenv.DefADT, ADTVariantNames: []string{"Z", "S"}}})
	adtName := term.ExprOfName(reg.AddName(term.Name{DBIndex: 0}))

	ctx.Push(typeenv.Entry{Type: adtName, Def: typeenv.Definition{Kind: typeenv.DefVariant, VariantName: "Z"}})
	ctx.Push(typeenv.Entry{Type: adtName, Def: typeenv.Definition{Kind: typeenv.DefVariant, VariantName: "S"}})
	// Both variants are now pushed (S on top of Z); construct their Name
	// references at this final depth, where S is innermost (index 0) and
	// Z sits just below it (index 1).
	succName := term.ExprOfName(reg.AddName(term.Name{DBIndex: 0}))
	zeroName := term.ExprOfName(reg.AddName(term.Name{DBIndex: 1}))

	succOfZero := term.ExprOfCall(reg.AddCall(term.Call{
		Callee: succName,
		Args:   reg.PositionalArgs([]term.ExprID{zeroName}),
	}))

	sParam := reg.AddParam(term.Param{Name: "n", Type: adtName})
	sCase := reg.AddMatchCase(term.MatchCase{
		VariantName: "S",
		HasParams:   true,
		Params:      term.CaseParamList{Kind: term.ArgsPositional, Positional: reg.AddParamList([]term.ParamID{sParam})},
		Output:      term.ExprOfName(reg.AddName(term.Name{DBIndex: 0})),
	})
	zCase := reg.AddMatchCase(term.MatchCase{
		VariantName: "Z",
		Output:      zeroName,
	})

	match := term.ExprOfMatch(reg.AddMatch(term.Match{
		Matchee: succOfZero,
		Cases:   reg.AddMatchCaseList([]term.MatchCaseID{sCase, zCase}),
	}))

	got := nz.Normalize(ctx, nil, match)
	qt.Assert(t, qt.Equals(got, zeroName))
}

// TestNormalizeBetaReducesLabeledArgsByDeclaredParamNotCallOrder builds
// `fun fst(first: Type0, second: Type0): Type0 { first }` and calls it
// with its labeled arguments reversed at the call site, checking that
// beta-reduction substitutes by each parameter's declared label rather
// than its position in the call's own argument list.
func TestNormalizeBetaReducesLabeledArgsByDeclaredParamNotCallOrder(t *testing.T) {
	reg := term.New()
	ctx := typeenv.New(reg)
	nz := newNormalizer(reg)

	firstParam := reg.AddParam(term.Param{Name: "first", Label: "first", Type: ctx.Type0()})
	secondParam := reg.AddParam(term.Param{Name: "second", Label: "second", Type: term.ExprOfName(reg.AddName(term.Name{DBIndex: 1}))}) // Type0, under first
	fn := term.ExprOfFun(reg.AddFun(term.Fun{
		Params:     reg.LabeledParams([]term.ParamID{firstParam, secondParam}),
		ReturnType: term.ExprOfName(reg.AddName(term.Name{DBIndex: 2})), // Type0, under both params
		Body:       term.ExprOfName(reg.AddName(term.Name{DBIndex: 2})), // first, self+params scope
		SelfName:   "fst",
	}))

	wantArg := ctx.Type0()
	otherArg := ctx.Type1()
	secondArg := reg.AddLabeledArg(term.LabeledArg{Label: "second", Value: otherArg})
	firstArg := reg.AddLabeledArg(term.LabeledArg{Label: "first", Value: wantArg})
	call := term.ExprOfCall(reg.AddCall(term.Call{
		Callee: fn,
		Args:   reg.LabeledArgs([]term.LabeledArgID{secondArg, firstArg}), // reversed from declaration order
	}))

	got := nz.Normalize(ctx, nil, call)
	if diff := cmp.Diff(wantArg.String(), got.String()); diff != "" {
		t.Errorf("beta reduction picked the wrong labeled argument (-want +got):\n%s", diff)
		t.Logf("call dump:\n%# v", pretty.Formatter(reg.GetCall(call.Call)))
	}
}

func TestNormalizeCheckNormalizesOutputOnly(t *testing.T) {
	reg := term.New()
	ctx := typeenv.New(reg)
	nz := newNormalizer(reg)

	fn := identity(reg, ctx)
	arg := ctx.Type0()
	call := term.ExprOfCall(reg.AddCall(term.Call{
		Callee: fn,
		Args:   reg.PositionalArgs([]term.ExprID{arg}),
	}))
	ck := term.ExprOfCheck(reg.AddCheck(term.Check{Output: call}))

	got := nz.Normalize(ctx, nil, ck)
	qt.Assert(t, qt.Equals(got.Kind, term.KindCheck))
	qt.Assert(t, qt.Equals(reg.GetCheck(got.Chk).Output, arg))
}
