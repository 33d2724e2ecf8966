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

import (
	"github.com/kantu-lang/kantucore/internal/diag"
	"github.com/kantu-lang/kantucore/internal/term"
	"github.com/kantu-lang/kantucore/internal/typeenv"
)

// inferForall implements spec.md §4.6.1 Forall: push-check each
// parameter, check the output is a universe, pop, and return Type0 (a
// Forall is itself always a small type, never Type1, regardless of what
// universes its pieces inhabit).
func (c *Checker) inferForall(ctx *typeenv.Context, sc *typeenv.SubstContext, e term.ExprID) (term.ExprID, *diag.Error) {
	fa := c.Reg.GetForall(e.Fall)
	_, pushed, err := c.pushCheckParams(ctx, sc, fa.Params)
	if err != nil {
		ctx.PopN(pushed)
		return term.ExprID{}, err
	}
	outT, err := c.Infer(ctx, sc, fa.Output)
	if err != nil {
		ctx.PopN(pushed)
		return term.ExprID{}, err
	}
	if uerr := c.requireUniverse(ctx, fa.Output, outT); uerr != nil {
		ctx.PopN(pushed)
		return term.ExprID{}, uerr
	}
	ctx.PopN(pushed)
	return ctx.Type0(), nil
}

// pushCheckParams infers each parameter's type, requires it to be a
// universe, and pushes a fresh uninterpreted entry carrying the
// normalized type, returning the rebuilt (normalized-type) ParamIDs
// alongside how many entries were pushed (so callers can PopN on
// either success or failure).
func (c *Checker) pushCheckParams(ctx *typeenv.Context, sc *typeenv.SubstContext, params term.ParamList) ([]term.ParamID, int, *diag.Error) {
	r := c.Reg
	ids := r.Params(params)
	out := make([]term.ParamID, len(ids))
	pushed := 0
	for i, pid := range ids {
		p := *r.GetParam(pid)
		pt, err := c.Infer(ctx, sc, p.Type)
		if err != nil {
			return out, pushed, err
		}
		if uerr := c.requireUniverse(ctx, p.Type, pt); uerr != nil {
			return out, pushed, uerr
		}
		p.Type = c.Nz.Normalize(ctx, c.FullTransparency, p.Type)
		out[i] = r.AddParam(p)
		ctx.Push(typeenv.Entry{Type: p.Type, Def: typeenv.Definition{Kind: typeenv.DefUninterpreted}})
		pushed++
	}
	return out, pushed, nil
}

// inferFun implements spec.md §4.6.1 Fun. The self-alias pushed while
// checking the body is a reinterned copy of the same Fun with
// SkipBodyCheck set, so that if the checker is ever asked to infer the
// type of that copy directly (rather than merely look up its type via
// a Name), it returns the already-computed Fun-type without recursing
// into the body a second time.
func (c *Checker) inferFun(ctx *typeenv.Context, sc *typeenv.SubstContext, e term.ExprID) (term.ExprID, *diag.Error) {
	r := c.Reg
	fn := *r.GetFun(e.Fun)

	if fn.SkipBodyCheck {
		normReturn := c.Nz.Normalize(ctx, c.FullTransparency, fn.ReturnType)
		return term.ExprOfForall(r.AddForall(term.Forall{Params: fn.Params, Output: normReturn})), nil
	}

	normParams, pushed, err := c.pushCheckParams(ctx, sc, fn.Params)
	if err != nil {
		ctx.PopN(pushed)
		return term.ExprID{}, err
	}
	rt, err := c.Infer(ctx, sc, fn.ReturnType)
	if err != nil {
		ctx.PopN(pushed)
		return term.ExprID{}, err
	}
	if uerr := c.requireUniverse(ctx, fn.ReturnType, rt); uerr != nil {
		ctx.PopN(pushed)
		return term.ExprID{}, uerr
	}
	normReturn := c.Nz.Normalize(ctx, c.FullTransparency, fn.ReturnType)
	normParamList := rebuildParamList(r, fn.Params.Kind, normParams)

	funType := term.ExprOfForall(r.AddForall(term.Forall{Params: normParamList, Output: normReturn}))

	selfAlias := fn
	selfAlias.Params = normParamList
	selfAlias.ReturnType = normReturn
	selfAlias.SkipBodyCheck = true
	selfID := r.AddFun(selfAlias)
	// funType and the Fun itself live outside the params just pushed; the
	// self entry sits above them, so both are lifted over those params.
	paramCount := int32(len(normParams))
	ctx.Push(typeenv.Entry{
		Type: term.Upshift(r, funType, paramCount, 0),
		Def: typeenv.Definition{
			Kind:              typeenv.DefAlias,
			AliasValue:        term.Upshift(r, term.ExprOfFun(selfID), paramCount, 0),
			AliasTransparency: c.FullTransparency,
		},
	})
	pushed++

	bodyTarget := term.Upshift(r, normReturn, 1, 0)
	if _, err := c.Check(ctx, sc, fn.Body, bodyTarget); err != nil {
		ctx.PopN(pushed)
		return term.ExprID{}, err
	}
	ctx.PopN(pushed)
	return funType, nil
}

func rebuildParamList(r *term.Registry, kind term.ArgListKind, params []term.ParamID) term.ParamList {
	if kind == term.ArgsPositional {
		return r.PositionalParams(params)
	}
	return r.LabeledParams(params)
}
