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

// Package kantujson decodes the JSON serialization of an already-bound
// program tree (spec.md §6: "a well-formed binding stack... already-
// bound, already-validated term tree") into a live internal/term
// Registry and internal/typeenv Context, for cmd/kantucheck to hand to
// internal/check. It never resolves names or binders itself — every
// Name in the JSON already carries its final De Bruijn index, exactly
// as spec.md §6 draws the boundary between an external binder and this
// core.
package kantujson

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kantu-lang/kantucore/internal/term"
	"github.com/kantu-lang/kantucore/internal/typeenv"
)

// Program is the root JSON document: the initial context as an ordered
// list of bindings, and the expression to type-check against them.
type Program struct {
	Bindings []Binding `json:"bindings"`
	Expr     Expr      `json:"expr"`
}

// Binding is one Context entry (spec.md §3), keyed by Kind:
// "uninterpreted", "adt", "variant", or "alias".
type Binding struct {
	Kind         string   `json:"kind"`
	Type         Expr     `json:"type"`
	VariantNames []string `json:"variant_names,omitempty"`
	VariantName  string   `json:"variant_name,omitempty"`
	Value        *Expr    `json:"value,omitempty"`
	Transparency string   `json:"transparency,omitempty"`
}

// Expr is a tagged union over every ExprKind (spec.md §3). Only the
// fields relevant to Kind are populated.
type Expr struct {
	Kind string `json:"kind"`

	DBIndex    *int32   `json:"db_index,omitempty"`    // name
	Components []string `json:"components,omitempty"` // name: dotted-path text, diagnostics only

	Callee *Expr    `json:"callee,omitempty"` // call
	Args   *ArgList `json:"args,omitempty"`   // call

	Params     *ParamList `json:"params,omitempty"`      // fun, forall
	ReturnType *Expr      `json:"return_type,omitempty"` // fun
	Body       *Expr      `json:"body,omitempty"`        // fun
	SelfName   string     `json:"self_name,omitempty"`   // fun

	Output *Expr `json:"output,omitempty"` // forall, check

	Matchee *Expr       `json:"matchee,omitempty"` // match
	Cases   []MatchCase `json:"cases,omitempty"`    // match

	Assertions []Assertion `json:"assertions,omitempty"` // check
}

type ArgList struct {
	Labeled     bool         `json:"labeled,omitempty"`
	Positional  []Expr       `json:"positional,omitempty"`
	LabeledArgs []LabeledArg `json:"labeled_args,omitempty"`
}

type LabeledArg struct {
	Label string `json:"label"`
	Value Expr   `json:"value"`
}

type ParamList struct {
	Labeled bool    `json:"labeled,omitempty"`
	Params  []Param `json:"params"`
}

type Param struct {
	Name     string `json:"name"`
	Label    string `json:"label,omitempty"`
	Type     Expr   `json:"type"`
	IsDashed bool   `json:"is_dashed,omitempty"`
}

type CaseParamList struct {
	Labeled   bool    `json:"labeled,omitempty"`
	Params    []Param `json:"params"`
	TripleDot bool    `json:"triple_dot,omitempty"`
}

type MatchCase struct {
	VariantName  string         `json:"variant_name"`
	HasParams    bool           `json:"has_params,omitempty"`
	Params       *CaseParamList `json:"params,omitempty"`
	IsImpossible bool           `json:"is_impossible,omitempty"`
	Output       *Expr          `json:"output,omitempty"`
}

type Assertion struct {
	Kind         string `json:"kind"` // "type_of" | "normal_form"
	LHS          *Expr  `json:"lhs,omitempty"`
	LHSIsGoal    bool   `json:"lhs_is_goal,omitempty"`
	RHS          *Expr  `json:"rhs,omitempty"`
	RHSIsGoal    bool   `json:"rhs_is_goal,omitempty"`
	RHSIsUnknown bool   `json:"rhs_is_unknown,omitempty"`
}

// Build interns prog's bindings and expression into reg, returning a
// Context with every binding pushed (in order) and the built
// expression.
func Build(reg *term.Registry, prog *Program) (*typeenv.Context, term.ExprID, error) {
	ctx := typeenv.New(reg)
	for i, b := range prog.Bindings {
		entry, err := buildBinding(reg, b)
		if err != nil {
			return nil, term.ExprID{}, fmt.Errorf("binding %d: %w", i, err)
		}
		ctx.Push(entry)
	}
	e, err := buildExpr(reg, &prog.Expr)
	if err != nil {
		return nil, term.ExprID{}, fmt.Errorf("expr: %w", err)
	}
	return ctx, e, nil
}

func buildBinding(reg *term.Registry, b Binding) (typeenv.Entry, error) {
	t, err := buildExpr(reg, &b.Type)
	if err != nil {
		return typeenv.Entry{}, fmt.Errorf("type: %w", err)
	}
	switch b.Kind {
	case "uninterpreted":
		return typeenv.Entry{Type: t, Def: typeenv.Definition{Kind: typeenv.DefUninterpreted}}, nil
	case "adt":
		return typeenv.Entry{Type: t, Def: typeenv.Definition{Kind: typeenv.DefADT, ADTVariantNames: b.VariantNames}}, nil
	case "variant":
		return typeenv.Entry{Type: t, Def: typeenv.Definition{Kind: typeenv.DefVariant, VariantName: b.VariantName}}, nil
	case "alias":
		if b.Value == nil {
			return typeenv.Entry{}, fmt.Errorf("alias binding missing value")
		}
		v, err := buildExpr(reg, b.Value)
		if err != nil {
			return typeenv.Entry{}, fmt.Errorf("value: %w", err)
		}
		return typeenv.Entry{Type: t, Def: typeenv.Definition{
			Kind:              typeenv.DefAlias,
			AliasValue:        v,
			AliasTransparency: b.Transparency,
		}}, nil
	default:
		return typeenv.Entry{}, fmt.Errorf("unknown binding kind %q", b.Kind)
	}
}

// buildComponents turns a Name's dotted-path text into diagnostics-only
// Identifiers, each stamped with a fresh uuid as its DiagID (spec.md's
// "non-semantic component-identifier list": never read by interning,
// never produced by this decode step's own equality).
func buildComponents(texts []string) []term.Identifier {
	if len(texts) == 0 {
		return nil
	}
	out := make([]term.Identifier, len(texts))
	for i, text := range texts {
		out[i] = term.Identifier{Text: text, DiagID: uuid.NewString()}
	}
	return out
}

func buildExpr(reg *term.Registry, e *Expr) (term.ExprID, error) {
	if e == nil {
		return term.ExprID{}, fmt.Errorf("missing expression")
	}
	switch e.Kind {
	case "name":
		if e.DBIndex == nil {
			return term.ExprID{}, fmt.Errorf("name missing db_index")
		}
		return term.ExprOfName(reg.AddName(term.Name{
			DBIndex:    *e.DBIndex,
			Components: buildComponents(e.Components),
		})), nil

	case "call":
		if e.Callee == nil || e.Args == nil {
			return term.ExprID{}, fmt.Errorf("call missing callee/args")
		}
		callee, err := buildExpr(reg, e.Callee)
		if err != nil {
			return term.ExprID{}, err
		}
		args, err := buildArgList(reg, e.Args)
		if err != nil {
			return term.ExprID{}, err
		}
		return term.ExprOfCall(reg.AddCall(term.Call{Callee: callee, Args: args})), nil

	case "fun":
		if e.Params == nil || e.ReturnType == nil || e.Body == nil {
			return term.ExprID{}, fmt.Errorf("fun missing params/return_type/body")
		}
		params, err := buildParamList(reg, e.Params)
		if err != nil {
			return term.ExprID{}, err
		}
		rt, err := buildExpr(reg, e.ReturnType)
		if err != nil {
			return term.ExprID{}, err
		}
		body, err := buildExpr(reg, e.Body)
		if err != nil {
			return term.ExprID{}, err
		}
		return term.ExprOfFun(reg.AddFun(term.Fun{
			Params:     params,
			ReturnType: rt,
			Body:       body,
			SelfName:   e.SelfName,
		})), nil

	case "forall":
		if e.Params == nil || e.Output == nil {
			return term.ExprID{}, fmt.Errorf("forall missing params/output")
		}
		params, err := buildParamList(reg, e.Params)
		if err != nil {
			return term.ExprID{}, err
		}
		out, err := buildExpr(reg, e.Output)
		if err != nil {
			return term.ExprID{}, err
		}
		return term.ExprOfForall(reg.AddForall(term.Forall{Params: params, Output: out})), nil

	case "match":
		if e.Matchee == nil {
			return term.ExprID{}, fmt.Errorf("match missing matchee")
		}
		matchee, err := buildExpr(reg, e.Matchee)
		if err != nil {
			return term.ExprID{}, err
		}
		caseIDs := make([]term.MatchCaseID, len(e.Cases))
		for i, mc := range e.Cases {
			cid, err := buildMatchCase(reg, mc)
			if err != nil {
				return term.ExprID{}, fmt.Errorf("case %d: %w", i, err)
			}
			caseIDs[i] = cid
		}
		return term.ExprOfMatch(reg.AddMatch(term.Match{
			Matchee: matchee,
			Cases:   reg.AddMatchCaseList(caseIDs),
		})), nil

	case "check":
		if e.Output == nil {
			return term.ExprID{}, fmt.Errorf("check missing output")
		}
		out, err := buildExpr(reg, e.Output)
		if err != nil {
			return term.ExprID{}, err
		}
		assertionIDs := make([]term.AssertionID, len(e.Assertions))
		for i, a := range e.Assertions {
			aid, err := buildAssertion(reg, a)
			if err != nil {
				return term.ExprID{}, fmt.Errorf("assertion %d: %w", i, err)
			}
			assertionIDs[i] = aid
		}
		return term.ExprOfCheck(reg.AddCheck(term.Check{
			Assertions: reg.AddAssertionList(assertionIDs),
			Output:     out,
		})), nil

	case "todo":
		return term.ExprOfTodo(reg.AddTodo(term.Todo{})), nil

	default:
		return term.ExprID{}, fmt.Errorf("unknown expression kind %q", e.Kind)
	}
}

func buildParamList(reg *term.Registry, pl *ParamList) (term.ParamList, error) {
	ids := make([]term.ParamID, len(pl.Params))
	for i, p := range pl.Params {
		pt, err := buildExpr(reg, &p.Type)
		if err != nil {
			return term.ParamList{}, fmt.Errorf("param %d: %w", i, err)
		}
		ids[i] = reg.AddParam(term.Param{Name: p.Name, Label: p.Label, Type: pt, IsDashed: p.IsDashed})
	}
	if pl.Labeled {
		return reg.LabeledParams(ids), nil
	}
	return reg.PositionalParams(ids), nil
}

func buildCaseParamList(reg *term.Registry, cpl *CaseParamList) (term.CaseParamList, error) {
	if cpl == nil {
		return term.CaseParamList{}, nil
	}
	ids := make([]term.ParamID, len(cpl.Params))
	for i, p := range cpl.Params {
		pt, err := buildExpr(reg, &p.Type)
		if err != nil {
			return term.CaseParamList{}, fmt.Errorf("param %d: %w", i, err)
		}
		ids[i] = reg.AddParam(term.Param{Name: p.Name, Label: p.Label, Type: pt, IsDashed: p.IsDashed})
	}
	if cpl.Labeled {
		return term.CaseParamList{Kind: term.ArgsLabeled, Labeled: reg.AddParamList(ids), TripleDot: cpl.TripleDot}, nil
	}
	return term.CaseParamList{Kind: term.ArgsPositional, Positional: reg.AddParamList(ids)}, nil
}

func buildArgList(reg *term.Registry, al *ArgList) (term.ArgList, error) {
	if al.Labeled {
		ids := make([]term.LabeledArgID, len(al.LabeledArgs))
		for i, la := range al.LabeledArgs {
			v, err := buildExpr(reg, &la.Value)
			if err != nil {
				return term.ArgList{}, fmt.Errorf("labeled arg %d: %w", i, err)
			}
			ids[i] = reg.AddLabeledArg(term.LabeledArg{Label: la.Label, Value: v})
		}
		return reg.LabeledArgs(ids), nil
	}
	exprs := make([]term.ExprID, len(al.Positional))
	for i := range al.Positional {
		v, err := buildExpr(reg, &al.Positional[i])
		if err != nil {
			return term.ArgList{}, fmt.Errorf("positional arg %d: %w", i, err)
		}
		exprs[i] = v
	}
	return reg.PositionalArgs(exprs), nil
}

func buildMatchCase(reg *term.Registry, mc MatchCase) (term.MatchCaseID, error) {
	params, err := buildCaseParamList(reg, mc.Params)
	if err != nil {
		return term.MatchCaseID{}, err
	}
	var output term.ExprID
	if mc.Output != nil {
		output, err = buildExpr(reg, mc.Output)
		if err != nil {
			return term.MatchCaseID{}, err
		}
	}
	return reg.AddMatchCase(term.MatchCase{
		VariantName:  mc.VariantName,
		HasParams:    mc.HasParams,
		Params:       params,
		IsImpossible: mc.IsImpossible,
		Output:       output,
	}), nil
}

func buildAssertion(reg *term.Registry, a Assertion) (term.AssertionID, error) {
	var kind term.AssertionKind
	switch a.Kind {
	case "type_of":
		kind = term.AssertTypeOf
	case "normal_form":
		kind = term.AssertNormalForm
	default:
		return term.AssertionID{}, fmt.Errorf("unknown assertion kind %q", a.Kind)
	}
	var lhs, rhs term.ExprID
	var err error
	if a.LHS != nil {
		if lhs, err = buildExpr(reg, a.LHS); err != nil {
			return term.AssertionID{}, fmt.Errorf("lhs: %w", err)
		}
	}
	if a.RHS != nil {
		if rhs, err = buildExpr(reg, a.RHS); err != nil {
			return term.AssertionID{}, fmt.Errorf("rhs: %w", err)
		}
	}
	return reg.AddAssertion(term.Assertion{
		Kind:         kind,
		LHS:          lhs,
		LHSIsGoal:    a.LHSIsGoal,
		RHS:          rhs,
		RHSIsGoal:    a.RHSIsGoal,
		RHSIsUnknown: a.RHSIsUnknown,
	}), nil
}
