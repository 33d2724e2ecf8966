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

import (
	"fmt"
	"strconv"
	"strings"
)

// bucket is a generic hash-cons table for one node kind. add is total and
// idempotent: structurally-equal values (same key) always return the
// same ID (I1).
type bucket[K any, T any] struct {
	values []T
	byKey  map[string]ID[K]
}

func newBucket[K any, T any]() bucket[K, T] {
	return bucket[K, T]{byKey: make(map[string]ID[K])}
}

func (b *bucket[K, T]) add(key string, value T) ID[K] {
	if id, ok := b.byKey[key]; ok {
		return id
	}
	slot := len(b.values)
	b.values = append(b.values, value)
	id := newID[K](slot)
	b.byKey[key] = id
	return id
}

func (b *bucket[K, T]) get(id ID[K]) *T {
	if !id.Valid() || id.slot() >= len(b.values) {
		panic(fmt.Sprintf("term: invalid %T lookup", id))
	}
	return &b.values[id.slot()]
}

// listBucket is the analogous hash-cons table for interned,
// dense-stored, non-empty element sequences (spec.md §3 "List").
type listBucket[E comparable] struct {
	flat  []E
	byKey map[string]ListID[E]
}

func newListBucket[E comparable]() listBucket[E] {
	return listBucket[E]{byKey: make(map[string]ListID[E])}
}

func (b *listBucket[E]) add(elems []E) ListID[E] {
	if len(elems) == 0 {
		return ListID[E]{}
	}
	var sb strings.Builder
	for _, e := range elems {
		fmt.Fprintf(&sb, "%v|", e)
	}
	key := sb.String()
	if id, ok := b.byKey[key]; ok {
		return id
	}
	start := len(b.flat)
	b.flat = append(b.flat, elems...)
	id := ListID[E]{start: start, length: len(elems)}
	b.byKey[key] = id
	return id
}

func (b *listBucket[E]) get(id ListID[E]) []E {
	if id.Empty() {
		return nil
	}
	return b.flat[id.start : id.start+id.length]
}

// Registry is the single hash-cons arena owning every interned node and
// list for one checking session (spec.md §4.1, §5: "a session owns
// everything").
type Registry struct {
	names       bucket[NameTag, Name]
	calls       bucket[CallTag, Call]
	funs        bucket[FunTag, Fun]
	matches     bucket[MatchTag, Match]
	foralls     bucket[ForallTag, Forall]
	checks      bucket[CheckTag, Check]
	todos       bucket[TodoTag, Todo]
	params      bucket[ParamTag, Param]
	labeledArgs bucket[LabeledArgTag, LabeledArg]
	matchCases  bucket[MatchCaseTag, MatchCase]
	variants    bucket[VariantTag, Variant]
	assertions  bucket[AssertionTag, Assertion]

	exprLists      listBucket[ExprID]
	paramLists     listBucket[ParamID]
	labeledArgList listBucket[LabeledArgID]
	matchCaseLists listBucket[MatchCaseID]
	assertionLists listBucket[AssertionID]
	nameLists      listBucket[string] // variant-name lists of an ADT
}

// New returns an empty registry. The two reserved context slots (spec.md
// §3 "Context") are installed by typeenv, not here; the registry itself
// has no notion of a context.
func New() *Registry {
	return &Registry{
		names:       newBucket[NameTag, Name](),
		calls:       newBucket[CallTag, Call](),
		funs:        newBucket[FunTag, Fun](),
		matches:     newBucket[MatchTag, Match](),
		foralls:     newBucket[ForallTag, Forall](),
		checks:      newBucket[CheckTag, Check](),
		todos:       newBucket[TodoTag, Todo](),
		params:      newBucket[ParamTag, Param](),
		labeledArgs: newBucket[LabeledArgTag, LabeledArg](),
		matchCases:  newBucket[MatchCaseTag, MatchCase](),
		variants:    newBucket[VariantTag, Variant](),
		assertions:  newBucket[AssertionTag, Assertion](),

		exprLists:      newListBucket[ExprID](),
		paramLists:     newListBucket[ParamID](),
		labeledArgList: newListBucket[LabeledArgID](),
		matchCaseLists: newListBucket[MatchCaseID](),
		assertionLists: newListBucket[AssertionID](),
		nameLists:      newListBucket[string](),
	}
}

// without_spans erasure: every add* routine below computes its key from
// an id-erased view of the value (I2) — spans and diagnostic-only fields
// never participate. The stored value keeps them, for error messages.

func exprKey(e ExprID) string {
	switch e.Kind {
	case KindName:
		return "n" + strconv.Itoa(e.Name.slot())
	case KindCall:
		return "c" + strconv.Itoa(e.Call.slot())
	case KindFun:
		return "f" + strconv.Itoa(e.Fun.slot())
	case KindMatch:
		return "m" + strconv.Itoa(e.Mtch.slot())
	case KindForall:
		return "a" + strconv.Itoa(e.Fall.slot())
	case KindCheck:
		return "k" + strconv.Itoa(e.Chk.slot())
	case KindTodo:
		return "t" + strconv.Itoa(e.Todo.slot())
	default:
		return "_"
	}
}

func argListKey(a ArgList) string {
	if a.Kind == ArgsPositional {
		return "P" + listKeyOf(a.Positional)
	}
	return "L" + listKeyOf(a.Labeled)
}

func listKeyOf[E comparable](id ListID[E]) string {
	return strconv.Itoa(id.start) + "," + strconv.Itoa(id.length)
}

func paramListKey(p ParamList) string {
	if p.Kind == ArgsPositional {
		return "P" + listKeyOf(p.Positional)
	}
	return "L" + listKeyOf(p.Labeled)
}

// AddName interns a Name node. Components is diagnostic-only and does
// not participate in the key.
func (r *Registry) AddName(n Name) NameID {
	key := strconv.Itoa(int(n.DBIndex))
	return r.names.add(key, n)
}

func (r *Registry) GetName(id NameID) *Name { return r.names.get(id) }

// AddCall interns a Call node.
func (r *Registry) AddCall(c Call) CallID {
	key := exprKey(c.Callee) + ";" + argListKey(c.Args)
	return r.calls.add(key, c)
}

func (r *Registry) GetCall(id CallID) *Call { return r.calls.get(id) }

// AddParam interns a single parameter. Name/Label are semantic here (a
// parameter named differently is, syntactically, a different
// parameter) even though they carry no runtime weight once bound; this
// matches the teacher's own stance that bound names are erased only at
// the De Bruijn level, never at the struct-identity level.
func (r *Registry) AddParam(p Param) ParamID {
	key := fmt.Sprintf("%s|%s|%v|%s|%s", p.Name, exprKey(p.Type), p.IsDashed, p.Label, exprKey(p.LabelClause))
	return r.params.add(key, p)
}

func (r *Registry) GetParam(id ParamID) *Param { return r.params.get(id) }

// AddFun interns a Fun node.
func (r *Registry) AddFun(f Fun) FunID {
	key := fmt.Sprintf("%s;%s;%s;%s;%v", paramListKey(f.Params), exprKey(f.ReturnType), exprKey(f.Body), f.SelfName, f.SkipBodyCheck)
	return r.funs.add(key, f)
}

func (r *Registry) GetFun(id FunID) *Fun { return r.funs.get(id) }

// AddForall interns a Forall node.
func (r *Registry) AddForall(fa Forall) ForallID {
	key := paramListKey(fa.Params) + ";" + exprKey(fa.Output)
	return r.foralls.add(key, fa)
}

func (r *Registry) GetForall(id ForallID) *Forall { return r.foralls.get(id) }

// AddLabeledArg interns one labeled call argument.
func (r *Registry) AddLabeledArg(a LabeledArg) LabeledArgID {
	key := fmt.Sprintf("%s|%s|%v", a.Label, exprKey(a.Value), a.Implicit)
	return r.labeledArgs.add(key, a)
}

func (r *Registry) GetLabeledArg(id LabeledArgID) *LabeledArg { return r.labeledArgs.get(id) }

// AddMatchCase interns one match arm.
func (r *Registry) AddMatchCase(c MatchCase) MatchCaseID {
	var paramsKey string
	if c.HasParams {
		paramsKey = fmt.Sprintf("%s;%v", paramListKeyOf(c.Params), c.Params.TripleDot)
	} else {
		paramsKey = "none"
	}
	key := fmt.Sprintf("%s;%s;%s;%v", c.VariantName, paramsKey, exprKey(c.Output), c.IsImpossible)
	return r.matchCases.add(key, c)
}

func paramListKeyOf(c CaseParamList) string {
	if c.Kind == ArgsPositional {
		return "P" + listKeyOf(c.Positional)
	}
	return "L" + listKeyOf(c.Labeled)
}

func (r *Registry) GetMatchCase(id MatchCaseID) *MatchCase { return r.matchCases.get(id) }

// AddMatch interns a Match node.
func (r *Registry) AddMatch(m Match) MatchID {
	key := exprKey(m.Matchee) + ";" + listKeyOf(m.Cases)
	return r.matches.add(key, m)
}

func (r *Registry) GetMatch(id MatchID) *Match { return r.matches.get(id) }

// AddCheck interns a Check node. Per spec.md §4.3, a Check is later
// decided *semantically equal* to its Output alone by the structural
// equality checker; the registry itself still interns Check as its own
// node so that two different assertion blocks around the same output
// remain distinguishable source artifacts for diagnostics.
func (r *Registry) AddCheck(c Check) CheckID {
	key := listKeyOf(c.Assertions) + ";" + exprKey(c.Output)
	return r.checks.add(key, c)
}

func (r *Registry) GetCheck(id CheckID) *Check { return r.checks.get(id) }

// AddAssertion interns one `check{}` assertion.
func (r *Registry) AddAssertion(a Assertion) AssertionID {
	key := fmt.Sprintf("%d|%s|%v|%s|%v|%v", a.Kind, exprKey(a.LHS), a.LHSIsGoal, exprKey(a.RHS), a.RHSIsGoal, a.RHSIsUnknown)
	return r.assertions.add(key, a)
}

func (r *Registry) GetAssertion(id AssertionID) *Assertion { return r.assertions.get(id) }

// AddTodo interns the `todo` placeholder. All Todo spans hash-cons
// together since span is non-semantic.
func (r *Registry) AddTodo(t Todo) TodoID { return r.todos.add("todo", t) }

func (r *Registry) GetTodo(id TodoID) *Todo { return r.todos.get(id) }

// AddVariant interns one ADT constructor declaration.
func (r *Registry) AddVariant(v Variant) VariantID {
	key := v.Name + ";" + exprKey(v.Type)
	return r.variants.add(key, v)
}

func (r *Registry) GetVariant(id VariantID) *Variant { return r.variants.get(id) }

// List interning. AddExprList/GetExprList etc. intern a non-empty
// sequence; equal sequences (same elements, same order) share a list
// id. A possibly-empty list is represented by the caller as an
// Option-like flag alongside the (possibly zero) ListID.

func (r *Registry) AddExprList(ids []ExprID) ListID[ExprID]         { return r.exprLists.add(ids) }
func (r *Registry) GetExprList(id ListID[ExprID]) []ExprID          { return r.exprLists.get(id) }
func (r *Registry) AddParamList(ids []ParamID) ListID[ParamID]      { return r.paramLists.add(ids) }
func (r *Registry) GetParamList(id ListID[ParamID]) []ParamID       { return r.paramLists.get(id) }
func (r *Registry) AddLabeledArgList(ids []LabeledArgID) ListID[LabeledArgID] {
	return r.labeledArgList.add(ids)
}
func (r *Registry) GetLabeledArgList(id ListID[LabeledArgID]) []LabeledArgID {
	return r.labeledArgList.get(id)
}
func (r *Registry) AddMatchCaseList(ids []MatchCaseID) ListID[MatchCaseID] {
	return r.matchCaseLists.add(ids)
}
func (r *Registry) GetMatchCaseList(id ListID[MatchCaseID]) []MatchCaseID {
	return r.matchCaseLists.get(id)
}
func (r *Registry) AddAssertionList(ids []AssertionID) ListID[AssertionID] {
	return r.assertionLists.add(ids)
}
func (r *Registry) GetAssertionList(id ListID[AssertionID]) []AssertionID {
	return r.assertionLists.get(id)
}
func (r *Registry) AddNameList(names []string) ListID[string]  { return r.nameLists.add(names) }
func (r *Registry) GetNameList(id ListID[string]) []string     { return r.nameLists.get(id) }
