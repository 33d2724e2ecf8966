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

// Package term is the hash-cons registry and term universe of the checker:
// node kinds, list interning, and the De Bruijn shift engine (the
// substitution engine lives in internal/subst). Every subterm the checker ever
// builds is interned here, under a structural key that deliberately
// ignores source spans and identifier-node identity.
package term

import "fmt"

// ID is an opaque, phantom-tagged index into one of the registry's typed
// buckets. Two IDs of the same tag are equal iff they denote the same
// bucket slot; IDs are cheap to copy and hash.
type ID[K any] struct {
	idx int // 1-based; zero value is the invalid ID.
}

// Valid reports whether id refers to an allocated slot.
func (id ID[K]) Valid() bool { return id.idx > 0 }

func (id ID[K]) String() string {
	if !id.Valid() {
		return fmt.Sprintf("%T(invalid)", id)
	}
	return fmt.Sprintf("%T(#%d)", id, id.idx-1)
}

func newID[K any](slot int) ID[K] { return ID[K]{idx: slot + 1} }

func (id ID[K]) slot() int { return id.idx - 1 }

// Node kind tags. These only exist to give ID[K] a distinct phantom type
// per node kind; they carry no data and are never constructed.
type (
	NameTag       struct{}
	CallTag       struct{}
	FunTag        struct{}
	MatchTag      struct{}
	ForallTag     struct{}
	CheckTag      struct{}
	TodoTag       struct{}
	ParamTag      struct{}
	LabeledArgTag struct{}
	MatchCaseTag  struct{}
	VariantTag    struct{}
	AssertionTag  struct{}
)

type (
	NameID       = ID[NameTag]
	CallID       = ID[CallTag]
	FunID        = ID[FunTag]
	MatchID      = ID[MatchTag]
	ForallID     = ID[ForallTag]
	CheckID      = ID[CheckTag]
	TodoID       = ID[TodoTag]
	ParamID      = ID[ParamTag]
	LabeledArgID = ID[LabeledArgTag]
	MatchCaseID  = ID[MatchCaseTag]
	VariantID    = ID[VariantTag]
	AssertionID  = ID[AssertionTag]
)

// ExprID is the closed sum of every node kind that can stand in an
// expression position (spec.md §3 "The term universe is a closed tagged
// sum"). It is not itself hash-consed; it is a tagged union over the IDs
// that are.
type ExprID struct {
	Kind ExprKind
	Name NameID
	Call CallID
	Fun  FunID
	Mtch MatchID
	Fall ForallID
	Chk  CheckID
	Todo TodoID
}

type ExprKind uint8

const (
	KindInvalid ExprKind = iota
	KindName
	KindCall
	KindFun
	KindMatch
	KindForall
	KindCheck
	KindTodo
)

func (e ExprID) String() string {
	switch e.Kind {
	case KindName:
		return e.Name.String()
	case KindCall:
		return e.Call.String()
	case KindFun:
		return e.Fun.String()
	case KindMatch:
		return e.Mtch.String()
	case KindForall:
		return e.Fall.String()
	case KindCheck:
		return e.Chk.String()
	case KindTodo:
		return e.Todo.String()
	default:
		return "<invalid expr>"
	}
}

func ExprOfName(id NameID) ExprID   { return ExprID{Kind: KindName, Name: id} }
func ExprOfCall(id CallID) ExprID   { return ExprID{Kind: KindCall, Call: id} }
func ExprOfFun(id FunID) ExprID     { return ExprID{Kind: KindFun, Fun: id} }
func ExprOfMatch(id MatchID) ExprID { return ExprID{Kind: KindMatch, Mtch: id} }
func ExprOfForall(id ForallID) ExprID {
	return ExprID{Kind: KindForall, Fall: id}
}
func ExprOfCheck(id CheckID) ExprID { return ExprID{Kind: KindCheck, Chk: id} }
func ExprOfTodo(id TodoID) ExprID   { return ExprID{Kind: KindTodo, Todo: id} }

// ListID is an opaque reference to an interned, non-empty sequence of
// elements of type E, stored as a dense (start, length) window into the
// owning bucket's flattened storage (spec.md §3 "List").
type ListID[E comparable] struct {
	start, length int
}

// Len returns the number of elements, or 0 for the zero ListID.
func (l ListID[E]) Len() int { return l.length }

// Empty reports whether l is the zero value (no list interned).
func (l ListID[E]) Empty() bool { return l.length == 0 }
