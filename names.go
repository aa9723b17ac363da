// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

import (
	"fmt"
	"strings"
)

// NameMode selects one of the three renderings spec.md §4.9 defines.
type NameMode int

const (
	// NameSimple is the primary name only, e.g. "List`1".
	NameSimple NameMode = iota
	// NameFull is the nested-parent chain (joined by '+') with the
	// namespace prefix (joined by '.'), e.g.
	// "System.Collections.Generic.List`1".
	NameFull
	// NameAssemblyQualified is NameFull plus ", " plus the full assembly
	// name, e.g. "System.Int32, mscorlib, Version=4.0.0.0, ...".
	NameAssemblyQualified
)

// TypeNamer renders TypeDef tokens and type signatures into display names.
// A var/mvar ordinal in a signature is rendered as "!n"; it is not
// substituted.
type TypeNamer struct {
	loader *Loader
}

// NewTypeNamer builds a TypeNamer backed by loader (used to find the
// module and owning assembly of a token's database, whose full name
// NameAssemblyQualified appends; the NestedClass chain is read from the
// database itself).
func NewTypeNamer(loader *Loader) *TypeNamer {
	return &TypeNamer{loader: loader}
}

// Name renders a plain TypeDef token (no generic instantiation) in the
// requested mode.
func (tn *TypeNamer) Name(tok Token, mode NameMode) (string, error) {
	return tn.nameSig(TypeSig{Elem: ElemClass, TypeToken: tok}, mode)
}

// NameSig renders an arbitrary type signature: primitives by their
// fundamental-type simple name, class/value-type by TypeDef chain,
// generic instantiations as `Name[[arg],[arg],...]`, arrays with a `[]`/
// `[,,...]` suffix, pointers with a `*` suffix, and by-ref with a
// trailing `&` applied last, per spec.md §4.9.
func (tn *TypeNamer) NameSig(sig TypeSig, mode NameMode) (string, error) {
	return tn.nameSig(sig, mode)
}

func (tn *TypeNamer) nameSig(sig TypeSig, mode NameMode) (string, error) {
	switch sig.Elem {
	case ElemClass, ElemValueType:
		if mode != NameSimple {
			generic, err := hasGenericParams(sig.TypeToken)
			if err != nil {
				return "", err
			}
			if generic {
				return "", ErrLogicViolation
			}
		}
		return tn.nameTypeDef(sig.TypeToken, mode)

	case ElemVar, ElemMVar, elemAnnotatedVar, elemAnnotatedMVar:
		return fmt.Sprintf("!%d", sig.Ordinal), nil

	case ElemPtr:
		if sig.Element == nil {
			return "void*", nil
		}
		inner, err := tn.nameSig(*sig.Element, mode)
		if err != nil {
			return "", err
		}
		return inner + "*", nil

	case ElemByRef:
		inner, err := tn.nameSig(*sig.Element, mode)
		if err != nil {
			return "", err
		}
		return inner + "&", nil

	case ElemSZArray:
		inner, err := tn.nameSig(*sig.Element, mode)
		if err != nil {
			return "", err
		}
		return inner + "[]", nil

	case ElemArray:
		inner, err := tn.nameSig(*sig.Element, mode)
		if err != nil {
			return "", err
		}
		if sig.Rank <= 1 {
			return inner + "[]", nil
		}
		return inner + "[" + strings.Repeat(",", int(sig.Rank-1)) + "]", nil

	case ElemGenericInst:
		base, err := tn.nameTypeDef(sig.GenericType.TypeToken, mode)
		if err != nil {
			return "", err
		}
		args := make([]string, len(sig.Args))
		for i, a := range sig.Args {
			argName, err := tn.nameSig(a, NameAssemblyQualified)
			if err != nil {
				return "", err
			}
			args[i] = argName
		}
		return base + "[[" + strings.Join(args, "],[") + "]]", nil

	default:
		if name, ok := fundamentalTypeNames[sig.Elem]; ok {
			return name, nil
		}
		return "", ErrUnresolvedReference
	}
}

// hasGenericParams reports whether tok (a TypeDef) owns any GenericParam
// row, i.e. is a generic type definition rather than a closed type or an
// instantiation's argument. An uninstantiated generic type definition has
// no renderable full/assembly-qualified name per spec.md §4.9; only
// NameSimple ("List`1") and instantiation via ElemGenericInst are valid
// for it.
func hasGenericParams(tok Token) (bool, error) {
	if tok.Table != TableTypeDef {
		return false, nil
	}
	db := tok.Database()
	n := db.RowCount(TableGenericParam)
	for i := uint32(1); i <= n; i++ {
		gp, err := db.GenericParam(i)
		if err != nil {
			return false, err
		}
		if gp.Owner.Equal(tok) {
			return true, nil
		}
	}
	return false, nil
}

// nameTypeDef renders a TypeDef token's own name, climbing NestedClass
// for NameFull/NameAssemblyQualified and appending the assembly name for
// NameAssemblyQualified.
func (tn *TypeNamer) nameTypeDef(tok Token, mode NameMode) (string, error) {
	if tok.IsNull() {
		return "", ErrUnresolvedReference
	}
	db := tok.Database()
	td, err := db.TypeDef(tok.Row)
	if err != nil {
		return "", err
	}

	if mode == NameSimple {
		return td.TypeName, nil
	}

	chain, err := tn.nestedChain(db, tok.Row)
	if err != nil {
		return "", err
	}

	full := strings.Join(chain, "+")
	if td.TypeNamespace != "" {
		full = td.TypeNamespace + "." + full
	}

	if mode == NameFull {
		return full, nil
	}

	mod, ok := tn.loader.moduleOf[db]
	if !ok || mod.Assembly() == nil {
		return full, nil
	}
	asmName, err := mod.Assembly().Name()
	if err != nil {
		return full, nil
	}
	return full + ", " + renderAssemblyName(asmName), nil
}

// nestedChain walks the NestedClass table from row up to its outermost
// enclosing type, returning the chain outermost-first.
func (tn *TypeNamer) nestedChain(db *Database, row uint32) ([]string, error) {
	var chain []string
	seen := map[uint32]bool{}
	for {
		if seen[row] {
			return nil, ErrInvalidMetadata
		}
		seen[row] = true

		td, err := db.TypeDef(row)
		if err != nil {
			return nil, err
		}
		chain = append([]string{td.TypeName}, chain...)

		enclosing, err := tn.enclosingOf(db, row)
		if err != nil {
			return nil, err
		}
		if enclosing == 0 {
			return chain, nil
		}
		row = enclosing
	}
}

// enclosingOf scans the NestedClass table for the row whose NestedClass
// column equals row, returning its EnclosingClass row (0 if row is not
// nested).
func (tn *TypeNamer) enclosingOf(db *Database, row uint32) (uint32, error) {
	n := db.RowCount(TableNestedClass)
	for i := uint32(1); i <= n; i++ {
		nc, err := db.NestedClass(i)
		if err != nil {
			return 0, err
		}
		if nc.NestedClass.Row == row {
			return nc.EnclosingClass.Row, nil
		}
	}
	return 0, nil
}

// renderAssemblyName renders an AssemblyName the way a full/assembly-
// qualified name embeds it: "Name, Version=M.m.B.R, Culture=..., PublicKeyToken=...".
func renderAssemblyName(n AssemblyName) string {
	culture := n.Culture
	if culture == "" {
		culture = "neutral"
	}
	keyToken := "null"
	if len(n.PublicKey) > 0 {
		keyToken = fmt.Sprintf("%x", n.PublicKey)
	}
	return fmt.Sprintf("%s, Version=%d.%d.%d.%d, Culture=%s, PublicKeyToken=%s",
		n.Name, n.MajorVersion, n.MinorVersion, n.BuildNumber, n.RevisionNumber, culture, keyToken)
}
