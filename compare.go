// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

// signaturesEqual implements the structural-equality rules of spec.md
// §4.7: primitive element types compare by byte, class/value-type compare
// resolved tokens, generic instantiations compare the generic type and
// argument list pairwise, arrays compare element type and rank, pointer/
// by-ref/function-pointer recurse, and var/mvar compare ordinal plus
// (once annotated) context token.
func signaturesEqual(a, b TypeSig) bool {
	if a.Elem != b.Elem {
		// Var/annotatedVar and MVar/annotatedMVar are distinct families
		// since the family itself is part of the element-type byte, so an
		// unannotated and an annotated form of the same ordinal never
		// compare equal.
		return false
	}

	switch a.Elem {
	case ElemVoid, ElemBoolean, ElemChar, ElemI1, ElemU1, ElemI2, ElemU2,
		ElemI4, ElemU4, ElemI8, ElemU8, ElemR4, ElemR8, ElemString,
		ElemI, ElemU, ElemObject, ElemTypedByRef:
		return true

	case ElemClass, ElemValueType:
		return resolvedTypeTokensEqual(a.TypeToken, b.TypeToken)

	case ElemVar, ElemMVar:
		return a.Ordinal == b.Ordinal

	case elemAnnotatedVar, elemAnnotatedMVar:
		return a.Ordinal == b.Ordinal && a.Context.Equal(b.Context)

	case ElemPtr, ElemByRef:
		return elementsEqual(a.Element, b.Element)

	case ElemSZArray:
		return elementsEqual(a.Element, b.Element)

	case ElemArray:
		return a.Rank == b.Rank && elementsEqual(a.Element, b.Element)

	case ElemGenericInst:
		if a.GenericType == nil || b.GenericType == nil {
			return a.GenericType == b.GenericType
		}
		if !resolvedTypeTokensEqual(a.GenericType.TypeToken, b.GenericType.TypeToken) {
			return false
		}
		if len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !signaturesEqual(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true

	case ElemFnPtr:
		if a.Method == nil || b.Method == nil {
			return a.Method == b.Method
		}
		return methodSignaturesCompatible(*a.Method, *b.Method)

	default:
		return false
	}
}

func elementsEqual(a, b *TypeSig) bool {
	if a == nil || b == nil {
		return a == b
	}
	return signaturesEqual(*a, *b)
}

// resolvedTypeTokensEqual compares two class/value-type tokens as they
// appear in the signatures, by database identity plus table and row. It
// does not resolve TypeRef tokens: a TypeRef and the TypeDef it names
// compare unequal, as do two TypeRefs to one type from different modules.
func resolvedTypeTokensEqual(a, b Token) bool {
	return a.Equal(b)
}

// compareFieldSig compares two field signatures by their type only (the
// calling-convention byte is identical for every field signature).
func compareFieldSig(a, b FieldSig) bool {
	return signaturesEqual(a.Type, b.Type)
}

// compareMethodSig implements spec.md §4.7's compatible-parts comparison
// for method/member-ref signatures: calling convention, parameter count,
// parameter types, return type, and generic-parameter count.
func compareMethodSig(a, b MethodSig) bool {
	return methodSignaturesCompatible(a, b)
}

func methodSignaturesCompatible(a, b MethodSig) bool {
	if a.CallingConvention != b.CallingConvention {
		return false
	}
	if a.HasThis != b.HasThis {
		return false
	}
	if a.Generic != b.Generic || a.GenericParamCount != b.GenericParamCount {
		return false
	}
	if len(a.Params) != len(b.Params) {
		return false
	}
	if !signaturesEqual(a.RetType, b.RetType) {
		return false
	}
	for i := range a.Params {
		if !signaturesEqual(a.Params[i], b.Params[i]) {
			return false
		}
	}
	return true
}

// customModifiersEqual compares two custom-modifier lists by token
// equality of their referenced types, in order, per spec.md §4.7.
func customModifiersEqual(a, b []CustomModifier) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Required != b[i].Required || !a[i].Type.Equal(b[i].Type) {
			return false
		}
	}
	return true
}
