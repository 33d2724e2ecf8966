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

package typeenv

import "github.com/kantu-lang/kantucore/internal/term"

// DynamicSubstitution is a tentative equation `left <-> right` emitted by
// dependent unification (spec.md §4.6.5, the "backfuse"), kept here
// until the checker resolves it into a concrete directed substitution.
type DynamicSubstitution struct {
	Left, Right term.ExprID
}

// SubstFrame is one match-arm's worth of pending equations: the context
// depth the arm was entered at, and the equations this arm's unification
// produced. Enclosing arms' equations stay in their own frames.
type SubstFrame struct {
	ContextLenAtEntry int
	Pending           []DynamicSubstitution
}

// SubstContext is the stack of SubstFrame, one per currently-open match
// arm (spec.md §3 "Substitution context"). It is consulted only when the
// checker needs to rewrite a term by equations the enclosing matches
// have brought into scope.
type SubstContext struct {
	frames []SubstFrame
}

func NewSubstContext() *SubstContext { return &SubstContext{} }

// Push opens a new frame.
func (s *SubstContext) Push(contextLen int, pending []DynamicSubstitution) {
	s.frames = append(s.frames, SubstFrame{ContextLenAtEntry: contextLen, Pending: pending})
}

// Pop closes the innermost frame.
func (s *SubstContext) Pop() {
	s.frames = s.frames[:len(s.frames)-1]
}

// Len is the number of currently-open frames.
func (s *SubstContext) Len() int { return len(s.frames) }

// Frames returns the open frames, outermost first.
func (s *SubstContext) Frames() []SubstFrame { return s.frames }

// Truncate restores the substitution context to exactly depth open
// frames, mirroring Context.Truncate on the tainted-error path.
func (s *SubstContext) Truncate(depth int) {
	s.frames = s.frames[:depth]
}
