// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

// ElementType is an ECMA-335 §II.23.1.16 signature element-type byte.
type ElementType byte

// The element-type byte values a signature decoder must recognize.
const (
	ElemEnd         ElementType = 0x00
	ElemVoid        ElementType = 0x01
	ElemBoolean     ElementType = 0x02
	ElemChar        ElementType = 0x03
	ElemI1          ElementType = 0x04
	ElemU1          ElementType = 0x05
	ElemI2          ElementType = 0x06
	ElemU2          ElementType = 0x07
	ElemI4          ElementType = 0x08
	ElemU4          ElementType = 0x09
	ElemI8          ElementType = 0x0a
	ElemU8          ElementType = 0x0b
	ElemR4          ElementType = 0x0c
	ElemR8          ElementType = 0x0d
	ElemString      ElementType = 0x0e
	ElemPtr         ElementType = 0x0f
	ElemByRef       ElementType = 0x10
	ElemValueType   ElementType = 0x11
	ElemClass       ElementType = 0x12
	ElemVar         ElementType = 0x13
	ElemArray       ElementType = 0x14
	ElemGenericInst ElementType = 0x15
	ElemTypedByRef  ElementType = 0x16
	ElemI           ElementType = 0x18
	ElemU           ElementType = 0x19
	ElemFnPtr       ElementType = 0x1b
	ElemObject      ElementType = 0x1c
	ElemSZArray     ElementType = 0x1d
	ElemMVar        ElementType = 0x1e
	ElemCModReqd    ElementType = 0x1f
	ElemCModOpt     ElementType = 0x20
	ElemInternal    ElementType = 0x21
	ElemModifier    ElementType = 0x40
	ElemSentinel    ElementType = 0x41
	ElemPinned      ElementType = 0x45

	// Internal-only markers, never present on the wire: the instantiator
	// (instantiate.go) rewrites a Var/MVar node to one of these once it
	// has been substituted across a scope boundary, recording the
	// declaring context per spec.md §4.7. They never collide with a real
	// element-type byte (the 0x22-0x3f and 0x42-0x44/0x46+ ranges are
	// unused by ECMA-335).
	elemAnnotatedVar  ElementType = 0x3d
	elemAnnotatedMVar ElementType = 0x3e
)

const elemValueTypePinned = ElemPinned

// isPrimitive reports whether e is one of the fixed-name fundamental
// element types spec.md §4.6 op 4 maps to simple names.
func (e ElementType) isPrimitive() bool {
	switch e {
	case ElemVoid, ElemBoolean, ElemChar, ElemI1, ElemU1, ElemI2, ElemU2,
		ElemI4, ElemU4, ElemI8, ElemU8, ElemR4, ElemR8, ElemString,
		ElemI, ElemU, ElemObject, ElemTypedByRef:
		return true
	}
	return false
}

// CustomModifier is one `CMOD_REQD`/`CMOD_OPT` prefix on a type signature.
type CustomModifier struct {
	Required bool
	Type     Token
}

// TypeSig is a decoded type signature node (spec.md §4.3/§3).
type TypeSig struct {
	Modifiers []CustomModifier
	Elem      ElementType

	TypeToken Token // Class / ValueType

	Ordinal    uint32 // Var / MVar
	Context    Token  // set only once annotated (elemAnnotatedVar/MVar)
	HasContext bool

	Element *TypeSig // Ptr / ByRef / SZArray / Array element
	Rank    uint32   // Array rank (SZArray is implicitly rank 1)
	Sizes   []uint32 // Array: sizes per dimension, possibly fewer than Rank
	LoBounds []int32 // Array: lower bounds per dimension

	GenericType *TypeSig   // GenericInst: the Class/ValueType being instantiated
	Args        []TypeSig  // GenericInst: type arguments

	Method *MethodSig // FnPtr
}

// MethodSig is a decoded method (or method-ref) signature.
type MethodSig struct {
	CallingConvention byte
	HasThis           bool
	ExplicitThis      bool
	Generic           bool
	GenericParamCount uint32
	RetType           TypeSig
	Params            []TypeSig
	SentinelIndex     int // index into Params where a VARARG sentinel sat, -1 if none
}

// FieldSig is a decoded field signature.
type FieldSig struct {
	Modifiers []CustomModifier
	Type      TypeSig
}

// PropertySig is a decoded property signature.
type PropertySig struct {
	HasThis   bool
	Modifiers []CustomModifier
	Type      TypeSig
	Params    []TypeSig
}

// LocalVarSig is a decoded standalone local-variable signature.
type LocalVarSig struct {
	Locals []TypeSig
}

// MethodSpecSig is a decoded generic-method instantiation signature.
type MethodSpecSig struct {
	Args []TypeSig
}

// Calling-convention low nibble / flag bits (ECMA-335 §II.23.2.1-3).
const (
	callingConvDefault    byte = 0x00
	callingConvVarArg     byte = 0x05
	callingConvField      byte = 0x06
	callingConvLocalSig   byte = 0x07
	callingConvProperty   byte = 0x08
	callingConvGenericInst byte = 0x0A
	callingConvMask       byte = 0x0F
	callingConvGeneric    byte = 0x10
	callingConvHasThis    byte = 0x20
	callingConvExplicit   byte = 0x40
)

// DecodeFieldSignature decodes a Field row's signature blob.
func DecodeFieldSignature(db *Database, b Blob) (FieldSig, error) {
	c := newCursor(b.Bytes())
	header, err := c.readByte()
	if err != nil || header&callingConvMask != callingConvField {
		return FieldSig{}, ErrInvalidMetadata
	}
	mods, err := decodeCustomModifiers(c, db)
	if err != nil {
		return FieldSig{}, err
	}
	t, err := decodeTypeSig(c, db)
	if err != nil {
		return FieldSig{}, err
	}
	return FieldSig{Modifiers: mods, Type: t}, nil
}

// DecodeMethodSignature decodes a MethodDef/MemberRef signature blob.
func DecodeMethodSignature(db *Database, b Blob) (MethodSig, error) {
	c := newCursor(b.Bytes())
	header, err := c.readByte()
	if err != nil {
		return MethodSig{}, ErrInvalidMetadata
	}

	sig := MethodSig{
		CallingConvention: header & callingConvMask,
		HasThis:           header&callingConvHasThis != 0,
		ExplicitThis:      header&callingConvExplicit != 0,
		Generic:           header&callingConvGeneric != 0,
		SentinelIndex:     -1,
	}

	if sig.Generic {
		n, err := c.readCompressed()
		if err != nil {
			return MethodSig{}, err
		}
		sig.GenericParamCount = n
	}

	paramCount, err := c.readCompressed()
	if err != nil {
		return MethodSig{}, err
	}

	sig.RetType, err = decodeTypeSig(c, db)
	if err != nil {
		return MethodSig{}, err
	}

	sig.Params = make([]TypeSig, 0, paramCount)
	for i := uint32(0); i < paramCount; i++ {
		peek, err := c.peekByte()
		if err != nil {
			return MethodSig{}, ErrInvalidMetadata
		}
		if ElementType(peek) == ElemSentinel {
			c.pos++
			sig.SentinelIndex = len(sig.Params)
			i--
			continue
		}
		p, err := decodeTypeSig(c, db)
		if err != nil {
			return MethodSig{}, err
		}
		sig.Params = append(sig.Params, p)
	}

	return sig, nil
}

// DecodePropertySignature decodes a Property row's signature blob.
func DecodePropertySignature(db *Database, b Blob) (PropertySig, error) {
	c := newCursor(b.Bytes())
	header, err := c.readByte()
	if err != nil || header&callingConvMask != callingConvProperty {
		return PropertySig{}, ErrInvalidMetadata
	}
	sig := PropertySig{HasThis: header&callingConvHasThis != 0}

	sig.Modifiers, err = decodeCustomModifiers(c, db)
	if err != nil {
		return PropertySig{}, err
	}

	sig.Type, err = decodeTypeSig(c, db)
	if err != nil {
		return PropertySig{}, err
	}

	paramCount, err := c.readCompressed()
	if err != nil {
		return PropertySig{}, err
	}
	sig.Params = make([]TypeSig, paramCount)
	for i := range sig.Params {
		sig.Params[i], err = decodeTypeSig(c, db)
		if err != nil {
			return PropertySig{}, err
		}
	}
	return sig, nil
}

// DecodeLocalVarSignature decodes a StandAloneSig row used as a
// method-body local-variable signature.
func DecodeLocalVarSignature(db *Database, b Blob) (LocalVarSig, error) {
	c := newCursor(b.Bytes())
	header, err := c.readByte()
	if err != nil || header&callingConvMask != callingConvLocalSig {
		return LocalVarSig{}, ErrInvalidMetadata
	}
	count, err := c.readCompressed()
	if err != nil {
		return LocalVarSig{}, err
	}
	locals := make([]TypeSig, count)
	for i := range locals {
		locals[i], err = decodeTypeSig(c, db)
		if err != nil {
			return LocalVarSig{}, err
		}
	}
	return LocalVarSig{Locals: locals}, nil
}

// DecodeMethodSpecSignature decodes a MethodSpec row's instantiation blob.
func DecodeMethodSpecSignature(db *Database, b Blob) (MethodSpecSig, error) {
	c := newCursor(b.Bytes())
	header, err := c.readByte()
	if err != nil || header&callingConvMask != callingConvGenericInst {
		return MethodSpecSig{}, ErrInvalidMetadata
	}
	count, err := c.readCompressed()
	if err != nil {
		return MethodSpecSig{}, err
	}
	args := make([]TypeSig, count)
	for i := range args {
		args[i], err = decodeTypeSig(c, db)
		if err != nil {
			return MethodSpecSig{}, err
		}
	}
	return MethodSpecSig{Args: args}, nil
}

func decodeCustomModifiers(c *cursor, db *Database) ([]CustomModifier, error) {
	var mods []CustomModifier
	for {
		peek, err := c.peekByte()
		if err != nil {
			return nil, ErrInvalidMetadata
		}
		et := ElementType(peek)
		if et != ElemCModReqd && et != ElemCModOpt {
			if et == ElemPinned {
				c.pos++
				continue
			}
			return mods, nil
		}
		c.pos++
		tok, err := decodeTypeDefOrRefOrSpecEncoded(c, db)
		if err != nil {
			return nil, err
		}
		mods = append(mods, CustomModifier{Required: et == ElemCModReqd, Type: tok})
	}
}

// decodeTypeDefOrRefOrSpecEncoded decodes the compact TypeDefOrRef
// encoding used inside signatures (ECMA-335 §II.23.2.8): a compressed
// unsigned int whose low 2 bits select TypeDef(0)/TypeRef(1)/TypeSpec(2).
func decodeTypeDefOrRefOrSpecEncoded(c *cursor, db *Database) (Token, error) {
	raw, err := c.readCompressed()
	if err != nil {
		return NullToken, ErrInvalidMetadata
	}
	tag := raw & 0x3
	row := raw >> 2
	var table TableID
	switch tag {
	case 0:
		table = TableTypeDef
	case 1:
		table = TableTypeRef
	case 2:
		table = TableTypeSpec
	default:
		return NullToken, ErrInvalidMetadata
	}
	return newToken(db, table, row), nil
}

func decodeTypeSig(c *cursor, db *Database) (TypeSig, error) {
	mods, err := decodeCustomModifiers(c, db)
	if err != nil {
		return TypeSig{}, err
	}

	b, err := c.readByte()
	if err != nil {
		return TypeSig{}, ErrInvalidMetadata
	}
	et := ElementType(b)

	sig := TypeSig{Modifiers: mods, Elem: et}

	switch et {
	case ElemVoid, ElemBoolean, ElemChar, ElemI1, ElemU1, ElemI2, ElemU2,
		ElemI4, ElemU4, ElemI8, ElemU8, ElemR4, ElemR8, ElemString,
		ElemI, ElemU, ElemObject, ElemTypedByRef:
		return sig, nil

	case ElemClass, ElemValueType:
		sig.TypeToken, err = decodeTypeDefOrRefOrSpecEncoded(c, db)
		return sig, err

	case ElemVar, ElemMVar:
		ordinal, err := c.readCompressed()
		if err != nil {
			return TypeSig{}, ErrInvalidMetadata
		}
		sig.Ordinal = ordinal
		return sig, nil

	case elemAnnotatedVar, elemAnnotatedMVar:
		ordinal, err := c.readCompressed()
		if err != nil {
			return TypeSig{}, ErrInvalidMetadata
		}
		sig.Ordinal = ordinal
		sig.HasContext = true
		return sig, nil

	case ElemPtr:
		peek, err := c.peekByte()
		if err == nil && ElementType(peek) == ElemVoid {
			c.pos++
			return sig, nil
		}
		elem, err := decodeTypeSig(c, db)
		if err != nil {
			return TypeSig{}, err
		}
		sig.Element = &elem
		return sig, nil

	case ElemByRef:
		elem, err := decodeTypeSig(c, db)
		if err != nil {
			return TypeSig{}, err
		}
		sig.Element = &elem
		return sig, nil

	case ElemSZArray:
		elem, err := decodeTypeSig(c, db)
		if err != nil {
			return TypeSig{}, err
		}
		sig.Element = &elem
		sig.Rank = 1
		return sig, nil

	case ElemArray:
		elem, err := decodeTypeSig(c, db)
		if err != nil {
			return TypeSig{}, err
		}
		sig.Element = &elem

		rank, err := c.readCompressed()
		if err != nil {
			return TypeSig{}, ErrInvalidMetadata
		}
		sig.Rank = rank

		numSizes, err := c.readCompressed()
		if err != nil {
			return TypeSig{}, ErrInvalidMetadata
		}
		sig.Sizes = make([]uint32, numSizes)
		for i := range sig.Sizes {
			sig.Sizes[i], err = c.readCompressed()
			if err != nil {
				return TypeSig{}, ErrInvalidMetadata
			}
		}

		numLoBounds, err := c.readCompressed()
		if err != nil {
			return TypeSig{}, ErrInvalidMetadata
		}
		sig.LoBounds = make([]int32, numLoBounds)
		for i := range sig.LoBounds {
			v, err := c.readCompressedSigned()
			if err != nil {
				return TypeSig{}, ErrInvalidMetadata
			}
			sig.LoBounds[i] = v
		}
		return sig, nil

	case ElemGenericInst:
		kindByte, err := c.readByte()
		if err != nil {
			return TypeSig{}, ErrInvalidMetadata
		}
		kind := ElementType(kindByte)
		if kind != ElemClass && kind != ElemValueType {
			return TypeSig{}, ErrInvalidMetadata
		}
		genToken, err := decodeTypeDefOrRefOrSpecEncoded(c, db)
		if err != nil {
			return TypeSig{}, err
		}
		gen := TypeSig{Elem: kind, TypeToken: genToken}
		sig.GenericType = &gen

		argCount, err := c.readCompressed()
		if err != nil {
			return TypeSig{}, ErrInvalidMetadata
		}
		sig.Args = make([]TypeSig, argCount)
		for i := range sig.Args {
			sig.Args[i], err = decodeTypeSig(c, db)
			if err != nil {
				return TypeSig{}, err
			}
		}
		return sig, nil

	case ElemFnPtr:
		method, err := decodeMethodSigBody(c, db)
		if err != nil {
			return TypeSig{}, err
		}
		sig.Method = &method
		return sig, nil

	default:
		return TypeSig{}, ErrInvalidMetadata
	}
}

// decodeMethodSigBody decodes a method signature embedded inside a type
// signature (FNPTR), which shares the same wire shape as a top-level
// method signature but is read from an already-open cursor.
func decodeMethodSigBody(c *cursor, db *Database) (MethodSig, error) {
	header, err := c.readByte()
	if err != nil {
		return MethodSig{}, ErrInvalidMetadata
	}
	sig := MethodSig{
		CallingConvention: header & callingConvMask,
		HasThis:           header&callingConvHasThis != 0,
		ExplicitThis:      header&callingConvExplicit != 0,
		Generic:           header&callingConvGeneric != 0,
		SentinelIndex:     -1,
	}
	if sig.Generic {
		sig.GenericParamCount, err = c.readCompressed()
		if err != nil {
			return MethodSig{}, err
		}
	}
	paramCount, err := c.readCompressed()
	if err != nil {
		return MethodSig{}, err
	}
	sig.RetType, err = decodeTypeSig(c, db)
	if err != nil {
		return MethodSig{}, err
	}
	sig.Params = make([]TypeSig, 0, paramCount)
	for i := uint32(0); i < paramCount; i++ {
		p, err := decodeTypeSig(c, db)
		if err != nil {
			return MethodSig{}, err
		}
		sig.Params = append(sig.Params, p)
	}
	return sig, nil
}
