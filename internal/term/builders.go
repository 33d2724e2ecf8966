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

// PositionalArgs builds an ArgList from an ordered, non-empty argument
// sequence.
func (r *Registry) PositionalArgs(args []ExprID) ArgList {
	return ArgList{Kind: ArgsPositional, Positional: r.AddExprList(args)}
}

// LabeledArgs builds an ArgList from a uniquely-labeled argument set.
// Callers are responsible for the "uniquely" part (I6 is enforced by the
// checker, not by the registry).
func (r *Registry) LabeledArgs(args []LabeledArgID) ArgList {
	return ArgList{Kind: ArgsLabeled, Labeled: r.AddLabeledArgList(args)}
}

// PositionalParams builds a ParamList from an ordered parameter
// sequence.
func (r *Registry) PositionalParams(params []ParamID) ParamList {
	return ParamList{Kind: ArgsPositional, Positional: r.AddParamList(params)}
}

// LabeledParams builds a ParamList from a uniquely-labeled parameter set.
func (r *Registry) LabeledParams(params []ParamID) ParamList {
	return ParamList{Kind: ArgsLabeled, Labeled: r.AddParamList(params)}
}

// Params returns the dense parameter slice of a ParamList, regardless of
// labeling.
func (r *Registry) Params(p ParamList) []ParamID {
	if p.Kind == ArgsPositional {
		return r.GetParamList(p.Positional)
	}
	return r.GetParamList(p.Labeled)
}

// Arity returns the number of parameters/arguments in a ParamList/ArgList.
func (r *Registry) Arity(p ParamList) int {
	if p.Kind == ArgsPositional {
		return p.Positional.Len()
	}
	return p.Labeled.Len()
}

func (r *Registry) ArgArity(a ArgList) int {
	if a.Kind == ArgsPositional {
		return a.Positional.Len()
	}
	return a.Labeled.Len()
}

// Args returns the dense, ordered argument-expression slice of an
// ArgList: for a labeled list, in the order the underlying LabeledArgID
// list was interned (callers needing parameter order must reorder via
// label lookup; see internal/check).
func (r *Registry) Args(a ArgList) []ExprID {
	if a.Kind == ArgsPositional {
		return r.GetExprList(a.Positional)
	}
	out := make([]ExprID, 0, a.Labeled.Len())
	for _, id := range r.GetLabeledArgList(a.Labeled) {
		out = append(out, r.GetLabeledArg(id).Value)
	}
	return out
}
