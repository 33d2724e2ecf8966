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

// Package typeenv holds the two stacks the checker thread through every
// recursive call: the typing Context (spec.md §3 "Context") and the
// SubstitutionContext that accumulates dependent-match equations
// (spec.md §3 "Substitution context").
package typeenv

import (
	"fmt"

	"github.com/kantu-lang/kantucore/internal/term"
)

// DefinitionKind is the kind of binding a Context entry carries.
type DefinitionKind uint8

const (
	DefUninterpreted DefinitionKind = iota // a fresh variable from a binder
	DefAlias                               // a let-bound value with a transparency tag
	DefADT                                  // a type constructor, bound to its variant-name list
	DefVariant                              // a variant, bound to its name
)

// Transparency is the opaque permission token the (external, out-of-core)
// module/visibility resolver attaches to an alias. The checker never
// looks inside it; it only ever asks a TransparencyPredicate to compare
// two of them (spec.md §6: "the `is_left_at_least_as_permissive_as_right`
// predicate the evaluator consumes for transparency").
type Transparency any

// TransparencyPredicate decides whether `have` (the transparency of the
// context entry being considered for unfolding) is at least as
// permissive as `required` (the transparency demanded at the call site).
type TransparencyPredicate func(have, required Transparency) bool

// Definition is the binder-specific payload of a Context entry. Only the
// fields relevant to Kind are meaningful.
type Definition struct {
	Kind DefinitionKind

	AliasValue        term.ExprID // DefAlias: the bound value, a normal form
	AliasTransparency Transparency

	ADTVariantNames []string // DefADT

	VariantName string // DefVariant
}

// Entry is one Context stack slot: a typed normal form plus its
// Definition. Both Type and any ExprID field of Definition are stored
// relative to the context as it stood just before the entry was pushed
// (so index 0 inside them names the entry directly below), and are
// upshifted on lookup to account for the entry itself and every entry
// pushed since (spec.md §3 "De Bruijn index i refers to stack slot
// len-i-1").
type Entry struct {
	Type term.ExprID
	Def  Definition
}

// Context is the typing environment: a LIFO stack of Entry, with the two
// bottom slots permanently reserved for the type universe (spec.md §3:
// "slot 0 = a placeholder for the unreachable Type1, slot 1 = the
// built-in Type0").
type Context struct {
	reg     *term.Registry
	entries []Entry
}

const (
	SlotType1 = 0
	SlotType0 = 1
)

// New returns a Context pre-populated with the two reserved universe
// slots.
func New(reg *term.Registry) *Context {
	c := &Context{reg: reg}
	// Slot 0: Type1. It is never well-typed (there is no Type2 in this
	// language), so its own Type is left as the invalid ExprID; nothing
	// in the checker may dereference it.
	c.entries = append(c.entries, Entry{Def: Definition{Kind: DefUninterpreted}})
	// Slot 1: Type0, typed by Type1 (the only other universe).
	c.entries = append(c.entries, Entry{
		Type: term.ExprOfName(reg.AddName(term.Name{DBIndex: 0})),
		Def:  Definition{Kind: DefUninterpreted},
	})
	return c
}

// Len is the current stack depth.
func (c *Context) Len() int { return len(c.entries) }

// Push grows the context by one slot.
func (c *Context) Push(e Entry) { c.entries = append(c.entries, e) }

// PopN shrinks the context by n slots. Panics if n exceeds the current
// depth (an invariant violation, not a user error).
func (c *Context) PopN(n int) {
	if n > len(c.entries) {
		panic(fmt.Sprintf("typeenv: pop %d exceeds context depth %d", n, len(c.entries)))
	}
	c.entries = c.entries[:len(c.entries)-n]
}

// Truncate restores the context to exactly depth entries; used on the
// tainted-error path to undo a partially-applied sequence of pushes
// (spec.md §7).
func (c *Context) Truncate(depth int) {
	if depth > len(c.entries) {
		panic(fmt.Sprintf("typeenv: truncate to %d exceeds context depth %d", depth, len(c.entries)))
	}
	c.entries = c.entries[:depth]
}

func (c *Context) slotOf(dbIndex int32) int {
	slot := c.Len() - int(dbIndex) - 1
	if slot < 0 || slot >= c.Len() {
		panic(fmt.Sprintf("typeenv: db index %d out of range at depth %d", dbIndex, c.Len()))
	}
	return slot
}

func (c *Context) liftAmount(slot int) int32 {
	return int32(c.Len() - slot)
}

// GetType returns the (possibly-shifted) type stored at dbIndex.
func (c *Context) GetType(dbIndex int32) term.ExprID {
	slot := c.slotOf(dbIndex)
	t := c.entries[slot].Type
	if amount := c.liftAmount(slot); amount != 0 {
		t = term.Upshift(c.reg, t, amount, 0)
	}
	return t
}

// GetDefinitionKind reports the DefinitionKind at dbIndex without lifting
// any ExprID payload (callers that need AliasValue etc. should use the
// dedicated accessors below, which lift correctly).
func (c *Context) GetDefinitionKind(dbIndex int32) DefinitionKind {
	return c.entries[c.slotOf(dbIndex)].Def.Kind
}

// GetAliasValue returns the (lifted) bound value and transparency of an
// alias entry. ok is false if dbIndex is not an alias.
func (c *Context) GetAliasValue(dbIndex int32) (value term.ExprID, transparency Transparency, ok bool) {
	slot := c.slotOf(dbIndex)
	def := c.entries[slot].Def
	if def.Kind != DefAlias {
		return term.ExprID{}, nil, false
	}
	v := def.AliasValue
	if amount := c.liftAmount(slot); amount != 0 {
		v = term.Upshift(c.reg, v, amount, 0)
	}
	return v, def.AliasTransparency, true
}

// GetADTVariantNames returns the ordered variant-name list of an ADT
// entry. ok is false if dbIndex is not an ADT.
func (c *Context) GetADTVariantNames(dbIndex int32) (names []string, ok bool) {
	def := c.entries[c.slotOf(dbIndex)].Def
	if def.Kind != DefADT {
		return nil, false
	}
	return def.ADTVariantNames, true
}

// GetVariantName returns the declared name of a variant entry. ok is
// false if dbIndex is not a variant.
func (c *Context) GetVariantName(dbIndex int32) (name string, ok bool) {
	def := c.entries[c.slotOf(dbIndex)].Def
	if def.Kind != DefVariant {
		return "", false
	}
	return def.VariantName, true
}

// FindVariant scans the context from the innermost entry outward for a
// DefVariant binder named `name`, the way a scope-aware name resolver
// would (most-recently-bound wins). ok is false if none is found.
func (c *Context) FindVariant(name string) (dbIndex int32, ok bool) {
	for slot := len(c.entries) - 1; slot >= 0; slot-- {
		def := c.entries[slot].Def
		if def.Kind == DefVariant && def.VariantName == name {
			return int32(c.Len() - slot - 1), true
		}
	}
	return 0, false
}

// Type0 builds a fresh Name expression denoting the built-in Type0
// universe, relative to the context's current depth.
func (c *Context) Type0() term.ExprID {
	return term.ExprOfName(c.reg.AddName(term.Name{DBIndex: int32(c.Len() - SlotType0 - 1)}))
}

// Type1 builds a fresh Name expression denoting the (unreachable) Type1
// universe, relative to the context's current depth.
func (c *Context) Type1() term.ExprID {
	return term.ExprOfName(c.reg.AddName(term.Name{DBIndex: int32(c.Len() - SlotType1 - 1)}))
}
