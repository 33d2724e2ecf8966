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

// Package diag defines the checker's error taxonomy and warning stream
// (spec.md §7). Like the teacher's own cue/errors, every error kind
// tags the node-id responsible rather than localizing by source span —
// spans are explicitly out of the core's scope (spec.md §1 Non-goals).
package diag

import (
	"fmt"

	"github.com/kantu-lang/kantucore/internal/term"
)

// Kind enumerates the error taxonomy of spec.md §7. It is a kind, not a
// type: every Error carries exactly one Kind plus whatever payload that
// kind needs.
type Kind uint8

const (
	KindIllegalTypeExpression Kind = iota
	KindIllegalCallee
	KindArityMismatch
	KindLabelednessMismatch
	KindMissingLabel
	KindExtraneousLabel
	KindTypeMismatch
	KindNonADTMatchee
	KindDuplicateCase
	KindMissingCase
	KindExtraneousCase
	KindAmbiguousOutputType
	KindUnreachableExpression
	KindDownshiftTooSmall
)

func (k Kind) String() string {
	switch k {
	case KindIllegalTypeExpression:
		return "illegal-type-expression"
	case KindIllegalCallee:
		return "illegal-callee"
	case KindArityMismatch:
		return "arity-mismatch"
	case KindLabelednessMismatch:
		return "labeledness-mismatch"
	case KindMissingLabel:
		return "missing-label"
	case KindExtraneousLabel:
		return "extraneous-label"
	case KindTypeMismatch:
		return "type-mismatch"
	case KindNonADTMatchee:
		return "non-adt-matchee"
	case KindDuplicateCase:
		return "duplicate-case"
	case KindMissingCase:
		return "missing-case"
	case KindExtraneousCase:
		return "extraneous-case"
	case KindAmbiguousOutputType:
		return "ambiguous-output-type"
	case KindUnreachableExpression:
		return "unreachable-expression"
	case KindDownshiftTooSmall:
		return "downshift-too-small"
	default:
		return "unknown-error"
	}
}

// Error is one fatal checker error, tagged by the node it concerns. It
// is deliberately a single struct rather than one Go type per Kind: the
// spec frames the taxonomy as kinds, not types (§7 "Error taxonomy
// (kinds, not types)").
type Error struct {
	Kind    Kind
	Node    term.ExprID // the expression the error concerns, if any
	Message string

	// Populated only for KindTypeMismatch.
	Expected, Actual term.ExprID
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return e.Kind.String()
}

func New(kind Kind, node term.ExprID, format string, args ...any) *Error {
	return &Error{Kind: kind, Node: node, Message: fmt.Sprintf(format, args...)}
}

func TypeMismatch(node, expected, actual term.ExprID) *Error {
	return &Error{Kind: KindTypeMismatch, Node: node, Expected: expected, Actual: actual}
}

// WarningKind enumerates the non-fatal diagnostics emitted by `check{}`
// blocks (spec.md §4.7). Warnings never abort checking.
type WarningKind uint8

const (
	WarnAssertionFailedToTypeCheck WarningKind = iota
	WarnAssertionTypeIsType1
	WarnTypeMismatch
	WarnNormalFormMismatch
	WarnUnknownRHS
	WarnNoGoalExists
)

func (k WarningKind) String() string {
	switch k {
	case WarnAssertionFailedToTypeCheck:
		return "assertion-failed-to-type-check"
	case WarnAssertionTypeIsType1:
		return "assertion-type-is-type1"
	case WarnTypeMismatch:
		return "warn-type-mismatch"
	case WarnNormalFormMismatch:
		return "warn-normal-form-mismatch"
	case WarnUnknownRHS:
		return "unknown-rhs"
	case WarnNoGoalExists:
		return "no-goal-exists"
	default:
		return "unknown-warning"
	}
}

// Warning is one entry of the warning stream. Warnings accumulate
// regardless of later errors on the same expression (spec.md §7).
type Warning struct {
	Kind    WarningKind
	Node    term.ExprID
	Message string
}

func (w *Warning) String() string {
	if w.Message != "" {
		return fmt.Sprintf("%s: %s", w.Kind, w.Message)
	}
	return w.Kind.String()
}

func NewWarning(kind WarningKind, node term.ExprID, format string, args ...any) *Warning {
	return &Warning{Kind: kind, Node: node, Message: fmt.Sprintf(format, args...)}
}

// Warnings is the ordered, append-only warning sink a checking session
// writes into (spec.md §5 "Warnings are emitted in traversal order").
type Warnings struct {
	entries []*Warning
}

func (w *Warnings) Add(warning *Warning) { w.entries = append(w.entries, warning) }

func (w *Warnings) All() []*Warning { return w.entries }

func (w *Warnings) Len() int { return len(w.entries) }
