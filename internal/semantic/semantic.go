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

// Package semantic decides structural equality of two terms modulo
// spans, source identifier-node identity, and check-annotation content
// (spec.md §4.3). The main term.Registry already hash-conses away spans
// and identifier ids (I1/I2), so two terms sharing an ExprID are already
// known equal; what this package adds on top is the handful of
// equivalences the main registry does not and must not bake into its own
// keys: Check{assertions, output} ≡ output, and order-independence of
// uniquely-labeled argument/parameter/case sets.
package semantic

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mpvl/unique"

	"github.com/kantu-lang/kantucore/internal/term"
)

// Checker is the structural-equality checker. It strips every input term
// into a semantic key and interns that key into its own registry (a
// plain string->id table), so that repeated comparisons of the same
// subterm are a single map lookup after the first descent.
type Checker struct {
	reg *term.Registry

	cache map[term.ExprID]semID
	byKey map[string]semID
	next  semID
}

type semID int

// New returns a Checker over the given registry. A Checker is only valid
// for ExprIDs interned into that same registry.
func New(reg *term.Registry) *Checker {
	return &Checker{
		reg:   reg,
		cache: make(map[term.ExprID]semID),
		byKey: make(map[string]semID),
	}
}

func (c *Checker) intern(key string) semID {
	if id, ok := c.byKey[key]; ok {
		return id
	}
	id := c.next
	c.next++
	c.byKey[key] = id
	return id
}

// Equal decides whether a and b denote the same term after span,
// identifier-node-identity, and check-annotation erasure.
func (c *Checker) Equal(a, b term.ExprID) bool {
	return c.semanticID(a) == c.semanticID(b)
}

// Key exposes the same canonical identity Equal uses, for callers that
// want to use it as a map key rather than pairwise-compare.
func (c *Checker) Key(e term.ExprID) int { return int(c.semanticID(e)) }

func (c *Checker) semanticID(e term.ExprID) semID {
	if id, ok := c.cache[e]; ok {
		return id
	}
	key := c.semanticKey(e)
	id := c.intern(key)
	c.cache[e] = id
	return id
}

// Check { assertions, output } is semantically equal to output alone:
// annotations are proof-assistant aids with no runtime meaning.
func (c *Checker) semanticKey(e term.ExprID) string {
	r := c.reg
	switch e.Kind {
	case term.KindName:
		n := r.GetName(e.Name)
		return fmt.Sprintf("n%d", n.DBIndex)

	case term.KindCall:
		call := r.GetCall(e.Call)
		return fmt.Sprintf("c%d(%s)", c.semanticID(call.Callee), c.argListKey(call.Args))

	case term.KindFun:
		fn := r.GetFun(e.Fun)
		return fmt.Sprintf("f(%s;%d;%d)", c.paramListKey(fn.Params), c.semanticID(fn.ReturnType), c.semanticID(fn.Body))

	case term.KindMatch:
		m := r.GetMatch(e.Mtch)
		caseIDs := r.GetMatchCaseList(m.Cases)
		keys := make([]string, len(caseIDs))
		for i, cid := range caseIDs {
			keys[i] = c.matchCaseKey(cid)
		}
		keys = sortUnique(keys)
		return fmt.Sprintf("m(%d;[%s])", c.semanticID(m.Matchee), strings.Join(keys, ","))

	case term.KindForall:
		fa := r.GetForall(e.Fall)
		return fmt.Sprintf("a(%s;%d)", c.paramListKey(fa.Params), c.semanticID(fa.Output))

	case term.KindCheck:
		ck := r.GetCheck(e.Chk)
		return c.semanticKey(ck.Output)

	case term.KindTodo:
		return "todo"

	default:
		panic(fmt.Sprintf("semantic: invalid ExprID %v", e))
	}
}

func (c *Checker) argListKey(a term.ArgList) string {
	r := c.reg
	if a.Kind == term.ArgsPositional {
		ids := r.GetExprList(a.Positional)
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = fmt.Sprintf("%d", c.semanticID(id))
		}
		return "P[" + strings.Join(parts, ",") + "]"
	}
	ids := r.GetLabeledArgList(a.Labeled)
	parts := make([]string, len(ids))
	for i, id := range ids {
		la := r.GetLabeledArg(id)
		parts[i] = fmt.Sprintf("%s=%d", la.Label, c.semanticID(la.Value))
	}
	parts = sortUnique(parts)
	return "L{" + strings.Join(parts, ",") + "}"
}

func (c *Checker) paramListKey(p term.ParamList) string {
	r := c.reg
	ids := r.Params(p)
	if p.Kind == term.ArgsPositional {
		parts := make([]string, len(ids))
		for i, id := range ids {
			param := r.GetParam(id)
			parts[i] = fmt.Sprintf("%d:%d", boolInt(param.IsDashed), c.semanticID(param.Type))
		}
		return "P[" + strings.Join(parts, ",") + "]"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		param := r.GetParam(id)
		parts[i] = fmt.Sprintf("%s=%d:%d", param.Label, boolInt(param.IsDashed), c.semanticID(param.Type))
	}
	parts = sortUnique(parts)
	return "L{" + strings.Join(parts, ",") + "}"
}

func (c *Checker) matchCaseKey(id term.MatchCaseID) string {
	r := c.reg
	mc := r.GetMatchCase(id)
	if mc.IsImpossible {
		return fmt.Sprintf("%s:impossible", mc.VariantName)
	}
	return fmt.Sprintf("%s:%d", mc.VariantName, c.semanticID(mc.Output))
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// sortUnique canonicalizes an unordered, uniquely-labeled set of encoded
// entries: sort lexically and drop exact duplicates, using
// github.com/mpvl/unique's in-place sort-and-filter so label order never
// affects the resulting key (spec.md §4.3: "sorted by interned semantic
// id so that label order does not matter").
func sortUnique(entries []string) []string {
	n := unique.Sort(sort.StringSlice(entries))
	return entries[:n]
}
