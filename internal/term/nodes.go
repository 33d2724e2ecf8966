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

// Span is a source location. It is carried on nodes purely for
// diagnostics and is never read by the registry's structural key, by the
// shift engine, by the substitution engine, or by the normalizer — see
// I2 (span erasure on write).
type Span struct {
	File       string
	Start, End int
}

// Identifier is a single dotted-path component of a Name, kept around
// only so error messages can print something resembling the user's
// source text. DiagID additionally distinguishes two syntactically
// identical identifier occurrences in the original source; neither field
// is semantic.
type Identifier struct {
	Text   string
	DiagID string // uuid, assigned once at bind time
}

// Name is a De Bruijn-indexed variable reference. Components records the
// dotted path the binder resolved (e.g. "Nat.S") purely for diagnostics;
// it never participates in a structural key.
type Name struct {
	DBIndex    int32
	Components []Identifier
	Span       Span
}

// ArgListKind distinguishes a Call's/Fun's/Forall's parameter or argument
// list shape. A callee's Fun/Forall and its Call must agree (I6).
type ArgListKind uint8

const (
	ArgsPositional ArgListKind = iota
	ArgsLabeled
)

// LabeledArg is one entry of a uniquely-labeled Call argument list. An
// implicit argument (written `:label` at the call site) has Implicit set
// and Value left referring to whatever Name the label resolves to in
// scope; substitution may promote it to an explicit argument (spec.md
// §4.4 "Labeled-argument subtlety").
type LabeledArg struct {
	Label    string
	Value    ExprID
	Implicit bool
}

// ArgList is the argument list attached to a Call (Fun and Forall carry a
// ParamList instead): either an ordered positional sequence or an
// unordered, uniquely-labeled set. Exactly one of Positional/Labeled is
// populated, per Kind.
type ArgList struct {
	Kind       ArgListKind
	Positional ListID[ExprID]
	Labeled    ListID[LabeledArgID]
}

// Call is a callee applied to a non-empty argument list.
type Call struct {
	Callee ExprID
	Args   ArgList
	Span   Span
}

// Param is one entry of a Fun's or Forall's parameter list. IsDashed
// marks the structural-recursion-controlling argument of a recursive Fun
// (spec.md §4.5.1); Label/LabelClause are populated only when the
// parameter list is uniquely-labeled.
type Param struct {
	Name        string
	Type        ExprID
	IsDashed    bool
	Label       string
	LabelClause ExprID // zero ExprID if no `label = ...` redirection
	Span        Span
}

// ParamList is the parameter list of a Fun or Forall.
type ParamList struct {
	Kind       ArgListKind
	Positional ListID[ParamID]
	Labeled    ListID[ParamID]
}

// Fun is a (possibly recursive) function literal. SkipBodyCheck is set
// while the checker is still inferring the Fun's own type, to break the
// chicken-and-egg of checking a recursive body against a type that isn't
// known yet (spec.md §3 "Fun").
type Fun struct {
	Params        ParamList
	ReturnType    ExprID
	Body          ExprID
	SelfName      string
	SkipBodyCheck bool
	Span          Span
}

// CaseParamList is a match case's parameter list. TripleDot marks a
// trailing `...` wildcard on a uniquely-labeled case, which suppresses
// the missing-label bijection check for that case (spec.md §9).
type CaseParamList struct {
	Kind       ArgListKind
	Positional ListID[ParamID]
	Labeled    ListID[ParamID]
	TripleDot  bool
}

// MatchCase is one arm of a Match: a variant name, its (optional)
// parameter list, and an output that is either an expression or the
// `impossible` marker.
type MatchCase struct {
	VariantName  string
	Params       CaseParamList
	HasParams    bool
	Output       ExprID
	IsImpossible bool
	Span         Span
}

// Match is a matchee scrutinized against a (possibly empty) list of
// cases.
type Match struct {
	Matchee ExprID
	Cases   ListID[MatchCaseID] // Empty() iff the match has zero cases
	Span    Span
}

// Forall is a dependent function type: a non-empty parameter list plus
// an output term.
type Forall struct {
	Params ParamList
	Output ExprID
	Span   Span
}

// Assertion is one entry of a `check { ... }` block (spec.md §4.7).
// Both kinds use LHS and RHS: a type-assertion checks LHS against
// RHS-as-a-type, a normal-form assertion checks LHS normalizes to RHS.
// LHSIsGoal/RHSIsGoal mark a side of literal `goal`, which is replaced by
// the active coercion target. RHSIsUnknown marks a literal `?` RHS, which
// always warns.
type AssertionKind uint8

const (
	AssertTypeOf AssertionKind = iota
	AssertNormalForm
)

type Assertion struct {
	Kind         AssertionKind
	LHS          ExprID
	LHSIsGoal    bool
	RHS          ExprID
	RHSIsGoal    bool
	RHSIsUnknown bool
	Span         Span
}

// Check is a proof-assistant annotation block: a list of assertions
// (comments to the checker, warnings-only) plus the output term whose
// type the Check actually has.
type Check struct {
	Assertions ListID[AssertionID]
	Output     ExprID
	Span       Span
}

// Todo is a placeholder normal form, standing in for `todo` in source.
type Todo struct {
	Span Span
}

// Variant is one constructor of an ADT: its declared type (a Forall for
// an indexed/parameterized variant, or a bare Name/Call for a nullary
// one) and the name by which match cases select it.
type Variant struct {
	Name string
	Type ExprID
}
