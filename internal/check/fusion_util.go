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

import "github.com/kantu-lang/kantucore/internal/term"

// containsSubterm reports whether needle occurs as an inclusive
// sub-term of haystack (haystack itself counts), per spec.md §4.6.5's
// substitution-direction heuristic.
func (c *Checker) containsSubterm(haystack, needle term.ExprID) bool {
	if c.Eqc.Equal(haystack, needle) {
		return true
	}
	r := c.Reg
	switch haystack.Kind {
	case term.KindName, term.KindTodo:
		return false

	case term.KindCall:
		call := r.GetCall(haystack.Call)
		if c.containsSubterm(call.Callee, needle) {
			return true
		}
		for _, a := range r.Args(call.Args) {
			if c.containsSubterm(a, needle) {
				return true
			}
		}
		return false

	case term.KindFun:
		fn := r.GetFun(haystack.Fun)
		for _, pid := range r.Params(fn.Params) {
			if c.containsSubterm(r.GetParam(pid).Type, needle) {
				return true
			}
		}
		return c.containsSubterm(fn.ReturnType, needle) || c.containsSubterm(fn.Body, needle)

	case term.KindForall:
		fa := r.GetForall(haystack.Fall)
		for _, pid := range r.Params(fa.Params) {
			if c.containsSubterm(r.GetParam(pid).Type, needle) {
				return true
			}
		}
		return c.containsSubterm(fa.Output, needle)

	case term.KindMatch:
		m := r.GetMatch(haystack.Mtch)
		if c.containsSubterm(m.Matchee, needle) {
			return true
		}
		for _, cid := range r.GetMatchCaseList(m.Cases) {
			mc := r.GetMatchCase(cid)
			if !mc.IsImpossible && c.containsSubterm(mc.Output, needle) {
				return true
			}
		}
		return false

	case term.KindCheck:
		return c.containsSubterm(r.GetCheck(haystack.Chk).Output, needle)

	default:
		return false
	}
}

// minFreeIndex returns the smallest De Bruijn index with a free
// (unbound-within-e) occurrence in e, or the sentinel maxFreeIndex if e
// has none (a closed term), for spec.md §4.6.5's "numerically smaller
// minimum free index" tiebreak.
const maxFreeIndex = int32(1<<31 - 1)

func minFreeIndex(r *term.Registry, e term.ExprID) int32 {
	return minFreeIndexAt(r, e, 0)
}

// minFreeIndexAt descends e, tracking how many binders (depth) separate
// e from the point minFreeIndex was first called at; a Name's DBIndex
// counts as free in the original term only once it is at least depth,
// and its contribution there is DBIndex-depth.
func minFreeIndexAt(r *term.Registry, e term.ExprID, depth int32) int32 {
	switch e.Kind {
	case term.KindName:
		n := r.GetName(e.Name)
		if n.DBIndex < depth {
			return maxFreeIndex
		}
		return n.DBIndex - depth

	case term.KindTodo:
		return maxFreeIndex

	case term.KindCall:
		call := r.GetCall(e.Call)
		min := minFreeIndexAt(r, call.Callee, depth)
		for _, a := range r.Args(call.Args) {
			if m := minFreeIndexAt(r, a, depth); m < min {
				min = m
			}
		}
		return min

	case term.KindFun:
		fn := r.GetFun(e.Fun)
		min := maxFreeIndex
		params := r.Params(fn.Params)
		for i, pid := range params {
			if m := minFreeIndexAt(r, r.GetParam(pid).Type, depth+int32(i)); m < min {
				min = m
			}
		}
		arity := int32(len(params))
		if m := minFreeIndexAt(r, fn.ReturnType, depth+arity); m < min {
			min = m
		}
		if m := minFreeIndexAt(r, fn.Body, depth+arity+1); m < min {
			min = m
		}
		return min

	case term.KindForall:
		fa := r.GetForall(e.Fall)
		min := maxFreeIndex
		params := r.Params(fa.Params)
		for i, pid := range params {
			if m := minFreeIndexAt(r, r.GetParam(pid).Type, depth+int32(i)); m < min {
				min = m
			}
		}
		if m := minFreeIndexAt(r, fa.Output, depth+int32(len(params))); m < min {
			min = m
		}
		return min

	case term.KindMatch:
		m := r.GetMatch(e.Mtch)
		min := minFreeIndexAt(r, m.Matchee, depth)
		for _, cid := range r.GetMatchCaseList(m.Cases) {
			mc := r.GetMatchCase(cid)
			if mc.IsImpossible {
				continue
			}
			arity := caseParamArity(mc)
			if v := minFreeIndexAt(r, mc.Output, depth+int32(arity)); v < min {
				min = v
			}
		}
		return min

	case term.KindCheck:
		return minFreeIndexAt(r, r.GetCheck(e.Chk).Output, depth)

	default:
		return maxFreeIndex
	}
}

func caseParamArity(mc *term.MatchCase) int {
	if !mc.HasParams {
		return 0
	}
	if mc.Params.Kind == term.ArgsPositional {
		return mc.Params.Positional.Len()
	}
	return mc.Params.Labeled.Len()
}
