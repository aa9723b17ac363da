// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

// The row types below mirror the ECMA-335 §II.22 table layouts, adapted
// from the teacher's per-table structs in dotnet_metadata_tables.go:
// coded-index and table-index columns are exposed as Token (resolved
// eagerly, since resolution here is just arithmetic over an already-parsed
// layout, not a cross-module lookup) and heap columns as their decoded
// Go value rather than a bare offset.

// ModuleRow is table 0x00.
type ModuleRow struct {
	Token      Token
	Generation uint16
	Name       string
	Mvid       [16]byte
	EncID      [16]byte
	EncBaseID  [16]byte
}

// TypeRefRow is table 0x01.
type TypeRefRow struct {
	Token           Token
	ResolutionScope Token // null, or a Module/ModuleRef/AssemblyRef/TypeRef token
	TypeName        string
	TypeNamespace   string
}

// TypeDefRow is table 0x02.
type TypeDefRow struct {
	Token         Token
	Flags         uint32
	TypeName      string
	TypeNamespace string
	Extends       Token // null, or a TypeDef/TypeRef/TypeSpec token
	FieldList     Token // first Field row owned by this type (table index into Field)
	MethodList    Token // first MethodDef row owned by this type
}

// FieldRow is table 0x04.
type FieldRow struct {
	Token     Token
	Flags     uint16
	Name      string
	Signature Blob
}

// MethodDefRow is table 0x06.
type MethodDefRow struct {
	Token     Token
	RVA       uint32
	ImplFlags uint16
	Flags     uint16
	Name      string
	Signature Blob
	ParamList Token
}

// ParamRow is table 0x08.
type ParamRow struct {
	Token    Token
	Flags    uint16
	Sequence uint16
	Name     string
}

// InterfaceImplRow is table 0x09.
type InterfaceImplRow struct {
	Token     Token
	Class     Token
	Interface Token // TypeDef/TypeRef/TypeSpec
}

// MemberRefRow is table 0x0a.
type MemberRefRow struct {
	Token     Token
	Class     Token // TypeDef/TypeRef/ModuleRef/MethodDef/TypeSpec
	Name      string
	Signature Blob
}

// ConstantRow is table 0x0b.
type ConstantRow struct {
	Token  Token
	Type   uint16
	Parent Token // Field/Param/Property
	Value  Blob
}

// CustomAttributeRow is table 0x0c.
type CustomAttributeRow struct {
	Token  Token
	Parent Token
	Type   Token // MethodDef/MemberRef
	Value  Blob
}

// FieldMarshalRow is table 0x0d.
type FieldMarshalRow struct {
	Token      Token
	Parent     Token
	NativeType Blob
}

// DeclSecurityRow is table 0x0e.
type DeclSecurityRow struct {
	Token         Token
	Action        uint16
	Parent        Token
	PermissionSet Blob
}

// ClassLayoutRow is table 0x0f.
type ClassLayoutRow struct {
	Token       Token
	PackingSize uint16
	ClassSize   uint32
	Parent      Token
}

// FieldLayoutRow is table 0x10.
type FieldLayoutRow struct {
	Token  Token
	Offset uint32
	Field  Token
}

// StandAloneSigRow is table 0x11.
type StandAloneSigRow struct {
	Token     Token
	Signature Blob
}

// EventMapRow is table 0x12.
type EventMapRow struct {
	Token     Token
	Parent    Token
	EventList Token
}

// EventRow is table 0x14.
type EventRow struct {
	Token      Token
	EventFlags uint16
	Name       string
	EventType  Token
}

// PropertyMapRow is table 0x15.
type PropertyMapRow struct {
	Token        Token
	Parent       Token
	PropertyList Token
}

// PropertyRow is table 0x17.
type PropertyRow struct {
	Token Token
	Flags uint16
	Name  string
	Type  Blob
}

// MethodSemanticsRow is table 0x18.
type MethodSemanticsRow struct {
	Token       Token
	Semantics   uint16
	Method      Token
	Association Token // Event/Property
}

// Semantics flag values for MethodSemanticsRow.Semantics (ECMA-335 §II.23.1.12).
const (
	MethodSemanticsSetter  uint16 = 0x0001
	MethodSemanticsGetter  uint16 = 0x0002
	MethodSemanticsOther   uint16 = 0x0004
	MethodSemanticsAddOn   uint16 = 0x0008
	MethodSemanticsRemoveOn uint16 = 0x0010
	MethodSemanticsFire    uint16 = 0x0020
)

// MethodImplRow is table 0x19.
type MethodImplRow struct {
	Token              Token
	Class              Token
	MethodBody         Token // MethodDef/MemberRef
	MethodDeclaration  Token // MethodDef/MemberRef
}

// ModuleRefRow is table 0x1a.
type ModuleRefRow struct {
	Token Token
	Name  string
}

// TypeSpecRow is table 0x1b.
type TypeSpecRow struct {
	Token     Token
	Signature Blob
}

// ImplMapRow is table 0x1c.
type ImplMapRow struct {
	Token           Token
	MappingFlags    uint16
	MemberForwarded Token
	ImportName      string
	ImportScope     Token
}

// FieldRVARow is table 0x1d.
type FieldRVARow struct {
	Token Token
	RVA   uint32
	Field Token
}

// AssemblyRow is table 0x20.
type AssemblyRow struct {
	Token          Token
	HashAlgID      uint32
	MajorVersion   uint16
	MinorVersion   uint16
	BuildNumber    uint16
	RevisionNumber uint16
	Flags          uint32
	PublicKey      Blob
	Name           string
	Culture        string
}

// AssemblyRefRow is table 0x23.
type AssemblyRefRow struct {
	Token             Token
	MajorVersion      uint16
	MinorVersion      uint16
	BuildNumber       uint16
	RevisionNumber    uint16
	Flags             uint32
	PublicKeyOrToken  Blob
	Name              string
	Culture           string
	HashValue         Blob
}

// FileRow is table 0x26. Absent from the teacher's dotnet_metadata_tables.go
// (it never walks multi-module assemblies); required by spec.md §4.5 to
// realize an assembly's auxiliary modules.
type FileRow struct {
	Token     Token
	Flags     uint32
	Name      string
	HashValue Blob
}

// FileContainsNoMetadata is the one FileAttributes flag spec.md §4.5 cares
// about: a file row with this bit set does not contribute a module.
const FileContainsNoMetadata uint32 = 0x0001

// ExportedTypeRow is table 0x27.
type ExportedTypeRow struct {
	Token          Token
	Flags          uint32
	TypeDefID      Token
	TypeName       string
	TypeNamespace  string
	Implementation Token // File/AssemblyRef/ExportedType
}

// ManifestResourceRow is table 0x28.
type ManifestResourceRow struct {
	Token          Token
	Offset         uint32
	Flags          uint32
	Name           string
	Implementation Token
}

// NestedClassRow is table 0x29.
type NestedClassRow struct {
	Token           Token
	NestedClass     Token
	EnclosingClass  Token
}

// GenericParamRow is table 0x2a.
type GenericParamRow struct {
	Token Token
	Number uint16
	Flags  uint16
	Owner  Token // TypeDef/MethodDef
	Name   string
}

// GenericParamConstraint flag for a parameter requiring a value-type
// argument that also permits no other special constraint; used by the
// membership engine's generic-parameter base selection (spec.md §4.8 step 6).
const GenericParamNonNullableValueTypeConstraint uint16 = 0x0010

// MethodSpecRow is table 0x2b.
type MethodSpecRow struct {
	Token         Token
	Method        Token // MethodDef/MemberRef
	Instantiation Blob
}

// GenericParamConstraintRow is table 0x2c.
type GenericParamConstraintRow struct {
	Token      Token
	Owner      Token
	Constraint Token // TypeDef/TypeRef/TypeSpec
}

func tokenCol(cols []rowColumn, i int) Token { return cols[i].token }

// Module returns the sole Module row (1). Every well-formed database has
// exactly one.
func (db *Database) Module() (ModuleRow, error) {
	cols, err := db.readRowColumns(TableModule, 1)
	if err != nil {
		return ModuleRow{}, err
	}
	tok, _ := db.Token(TableModule, 1)
	return ModuleRow{
		Token:      tok,
		Generation: cols[0].u16(),
		Name:       cols[1].str(db),
		Mvid:       cols[2].guid(db),
		EncID:      cols[3].guid(db),
		EncBaseID:  cols[4].guid(db),
	}, nil
}

// TypeRef returns the TypeRef row at (1-based) row.
func (db *Database) TypeRef(row uint32) (TypeRefRow, error) {
	cols, err := db.readRowColumns(TableTypeRef, row)
	if err != nil {
		return TypeRefRow{}, err
	}
	tok, _ := db.Token(TableTypeRef, row)
	return TypeRefRow{
		Token:           tok,
		ResolutionScope: tokenCol(cols, 0),
		TypeName:        cols[1].str(db),
		TypeNamespace:   cols[2].str(db),
	}, nil
}

// TypeDef returns the TypeDef row at (1-based) row.
func (db *Database) TypeDef(row uint32) (TypeDefRow, error) {
	cols, err := db.readRowColumns(TableTypeDef, row)
	if err != nil {
		return TypeDefRow{}, err
	}
	tok, _ := db.Token(TableTypeDef, row)
	return TypeDefRow{
		Token:         tok,
		Flags:         cols[0].u32(),
		TypeName:      cols[1].str(db),
		TypeNamespace: cols[2].str(db),
		Extends:       tokenCol(cols, 3),
		FieldList:     tokenCol(cols, 4),
		MethodList:    tokenCol(cols, 5),
	}, nil
}

// Field returns the Field row at (1-based) row.
func (db *Database) Field(row uint32) (FieldRow, error) {
	cols, err := db.readRowColumns(TableField, row)
	if err != nil {
		return FieldRow{}, err
	}
	tok, _ := db.Token(TableField, row)
	return FieldRow{Token: tok, Flags: cols[0].u16(), Name: cols[1].str(db), Signature: cols[2].blob(db)}, nil
}

// MethodDef returns the MethodDef row at (1-based) row.
func (db *Database) MethodDef(row uint32) (MethodDefRow, error) {
	cols, err := db.readRowColumns(TableMethodDef, row)
	if err != nil {
		return MethodDefRow{}, err
	}
	tok, _ := db.Token(TableMethodDef, row)
	return MethodDefRow{
		Token:     tok,
		RVA:       cols[0].u32(),
		ImplFlags: cols[1].u16(),
		Flags:     cols[2].u16(),
		Name:      cols[3].str(db),
		Signature: cols[4].blob(db),
		ParamList: tokenCol(cols, 5),
	}, nil
}

// Param returns the Param row at (1-based) row.
func (db *Database) Param(row uint32) (ParamRow, error) {
	cols, err := db.readRowColumns(TableParam, row)
	if err != nil {
		return ParamRow{}, err
	}
	tok, _ := db.Token(TableParam, row)
	return ParamRow{Token: tok, Flags: cols[0].u16(), Sequence: cols[1].u16(), Name: cols[2].str(db)}, nil
}

// InterfaceImpl returns the InterfaceImpl row at (1-based) row.
func (db *Database) InterfaceImpl(row uint32) (InterfaceImplRow, error) {
	cols, err := db.readRowColumns(TableInterfaceImpl, row)
	if err != nil {
		return InterfaceImplRow{}, err
	}
	tok, _ := db.Token(TableInterfaceImpl, row)
	return InterfaceImplRow{Token: tok, Class: tokenCol(cols, 0), Interface: tokenCol(cols, 1)}, nil
}

// MemberRef returns the MemberRef row at (1-based) row.
func (db *Database) MemberRef(row uint32) (MemberRefRow, error) {
	cols, err := db.readRowColumns(TableMemberRef, row)
	if err != nil {
		return MemberRefRow{}, err
	}
	tok, _ := db.Token(TableMemberRef, row)
	return MemberRefRow{Token: tok, Class: tokenCol(cols, 0), Name: cols[1].str(db), Signature: cols[2].blob(db)}, nil
}

// Constant returns the Constant row at (1-based) row.
func (db *Database) Constant(row uint32) (ConstantRow, error) {
	cols, err := db.readRowColumns(TableConstant, row)
	if err != nil {
		return ConstantRow{}, err
	}
	tok, _ := db.Token(TableConstant, row)
	return ConstantRow{Token: tok, Type: cols[0].u16(), Parent: tokenCol(cols, 1), Value: cols[2].blob(db)}, nil
}

// CustomAttribute returns the CustomAttribute row at (1-based) row.
func (db *Database) CustomAttribute(row uint32) (CustomAttributeRow, error) {
	cols, err := db.readRowColumns(TableCustomAttribute, row)
	if err != nil {
		return CustomAttributeRow{}, err
	}
	tok, _ := db.Token(TableCustomAttribute, row)
	return CustomAttributeRow{Token: tok, Parent: tokenCol(cols, 0), Type: tokenCol(cols, 1), Value: cols[2].blob(db)}, nil
}

// EventMap returns the EventMap row at (1-based) row.
func (db *Database) EventMap(row uint32) (EventMapRow, error) {
	cols, err := db.readRowColumns(TableEventMap, row)
	if err != nil {
		return EventMapRow{}, err
	}
	tok, _ := db.Token(TableEventMap, row)
	return EventMapRow{Token: tok, Parent: tokenCol(cols, 0), EventList: tokenCol(cols, 1)}, nil
}

// Event returns the Event row at (1-based) row.
func (db *Database) Event(row uint32) (EventRow, error) {
	cols, err := db.readRowColumns(TableEvent, row)
	if err != nil {
		return EventRow{}, err
	}
	tok, _ := db.Token(TableEvent, row)
	return EventRow{Token: tok, EventFlags: cols[0].u16(), Name: cols[1].str(db), EventType: tokenCol(cols, 2)}, nil
}

// PropertyMap returns the PropertyMap row at (1-based) row.
func (db *Database) PropertyMap(row uint32) (PropertyMapRow, error) {
	cols, err := db.readRowColumns(TablePropertyMap, row)
	if err != nil {
		return PropertyMapRow{}, err
	}
	tok, _ := db.Token(TablePropertyMap, row)
	return PropertyMapRow{Token: tok, Parent: tokenCol(cols, 0), PropertyList: tokenCol(cols, 1)}, nil
}

// Property returns the Property row at (1-based) row.
func (db *Database) Property(row uint32) (PropertyRow, error) {
	cols, err := db.readRowColumns(TableProperty, row)
	if err != nil {
		return PropertyRow{}, err
	}
	tok, _ := db.Token(TableProperty, row)
	return PropertyRow{Token: tok, Flags: cols[0].u16(), Name: cols[1].str(db), Type: cols[2].blob(db)}, nil
}

// MethodSemantics returns the MethodSemantics row at (1-based) row.
func (db *Database) MethodSemantics(row uint32) (MethodSemanticsRow, error) {
	cols, err := db.readRowColumns(TableMethodSemantics, row)
	if err != nil {
		return MethodSemanticsRow{}, err
	}
	tok, _ := db.Token(TableMethodSemantics, row)
	return MethodSemanticsRow{Token: tok, Semantics: cols[0].u16(), Method: tokenCol(cols, 1), Association: tokenCol(cols, 2)}, nil
}

// MethodImpl returns the MethodImpl row at (1-based) row.
func (db *Database) MethodImpl(row uint32) (MethodImplRow, error) {
	cols, err := db.readRowColumns(TableMethodImpl, row)
	if err != nil {
		return MethodImplRow{}, err
	}
	tok, _ := db.Token(TableMethodImpl, row)
	return MethodImplRow{Token: tok, Class: tokenCol(cols, 0), MethodBody: tokenCol(cols, 1), MethodDeclaration: tokenCol(cols, 2)}, nil
}

// ModuleRef returns the ModuleRef row at (1-based) row.
func (db *Database) ModuleRef(row uint32) (ModuleRefRow, error) {
	cols, err := db.readRowColumns(TableModuleRef, row)
	if err != nil {
		return ModuleRefRow{}, err
	}
	tok, _ := db.Token(TableModuleRef, row)
	return ModuleRefRow{Token: tok, Name: cols[0].str(db)}, nil
}

// TypeSpec returns the TypeSpec row at (1-based) row.
func (db *Database) TypeSpec(row uint32) (TypeSpecRow, error) {
	cols, err := db.readRowColumns(TableTypeSpec, row)
	if err != nil {
		return TypeSpecRow{}, err
	}
	tok, _ := db.Token(TableTypeSpec, row)
	return TypeSpecRow{Token: tok, Signature: cols[0].blob(db)}, nil
}

// Assembly returns the sole Assembly row (1), if present.
func (db *Database) Assembly() (AssemblyRow, error) {
	cols, err := db.readRowColumns(TableAssembly, 1)
	if err != nil {
		return AssemblyRow{}, err
	}
	tok, _ := db.Token(TableAssembly, 1)
	return AssemblyRow{
		Token: tok, HashAlgID: cols[0].u32(),
		MajorVersion: cols[1].u16(), MinorVersion: cols[2].u16(),
		BuildNumber: cols[3].u16(), RevisionNumber: cols[4].u16(),
		Flags: cols[5].u32(), PublicKey: cols[6].blob(db),
		Name: cols[7].str(db), Culture: cols[8].str(db),
	}, nil
}

// AssemblyRef returns the AssemblyRef row at (1-based) row.
func (db *Database) AssemblyRef(row uint32) (AssemblyRefRow, error) {
	cols, err := db.readRowColumns(TableAssemblyRef, row)
	if err != nil {
		return AssemblyRefRow{}, err
	}
	tok, _ := db.Token(TableAssemblyRef, row)
	return AssemblyRefRow{
		Token: tok,
		MajorVersion: cols[0].u16(), MinorVersion: cols[1].u16(),
		BuildNumber: cols[2].u16(), RevisionNumber: cols[3].u16(),
		Flags: cols[4].u32(), PublicKeyOrToken: cols[5].blob(db),
		Name: cols[6].str(db), Culture: cols[7].str(db), HashValue: cols[8].blob(db),
	}, nil
}

// File returns the File row at (1-based) row.
func (db *Database) File(row uint32) (FileRow, error) {
	cols, err := db.readRowColumns(TableFile, row)
	if err != nil {
		return FileRow{}, err
	}
	tok, _ := db.Token(TableFile, row)
	return FileRow{Token: tok, Flags: cols[0].u32(), Name: cols[1].str(db), HashValue: cols[2].blob(db)}, nil
}

// ExportedType returns the ExportedType row at (1-based) row.
func (db *Database) ExportedType(row uint32) (ExportedTypeRow, error) {
	cols, err := db.readRowColumns(TableExportedType, row)
	if err != nil {
		return ExportedTypeRow{}, err
	}
	tok, _ := db.Token(TableExportedType, row)
	return ExportedTypeRow{
		Token: tok, Flags: cols[0].u32(), TypeDefID: tokenCol(cols, 1),
		TypeName: cols[2].str(db), TypeNamespace: cols[3].str(db),
		Implementation: tokenCol(cols, 4),
	}, nil
}

// NestedClass returns the NestedClass row at (1-based) row.
func (db *Database) NestedClass(row uint32) (NestedClassRow, error) {
	cols, err := db.readRowColumns(TableNestedClass, row)
	if err != nil {
		return NestedClassRow{}, err
	}
	tok, _ := db.Token(TableNestedClass, row)
	return NestedClassRow{Token: tok, NestedClass: tokenCol(cols, 0), EnclosingClass: tokenCol(cols, 1)}, nil
}

// GenericParam returns the GenericParam row at (1-based) row.
func (db *Database) GenericParam(row uint32) (GenericParamRow, error) {
	cols, err := db.readRowColumns(TableGenericParam, row)
	if err != nil {
		return GenericParamRow{}, err
	}
	tok, _ := db.Token(TableGenericParam, row)
	return GenericParamRow{Token: tok, Number: cols[0].u16(), Flags: cols[1].u16(), Owner: tokenCol(cols, 2), Name: cols[3].str(db)}, nil
}

// MethodSpec returns the MethodSpec row at (1-based) row.
func (db *Database) MethodSpec(row uint32) (MethodSpecRow, error) {
	cols, err := db.readRowColumns(TableMethodSpec, row)
	if err != nil {
		return MethodSpecRow{}, err
	}
	tok, _ := db.Token(TableMethodSpec, row)
	return MethodSpecRow{Token: tok, Method: tokenCol(cols, 0), Instantiation: cols[1].blob(db)}, nil
}

// GenericParamConstraint returns the GenericParamConstraint row at
// (1-based) row.
func (db *Database) GenericParamConstraint(row uint32) (GenericParamConstraintRow, error) {
	cols, err := db.readRowColumns(TableGenericParamConstraint, row)
	if err != nil {
		return GenericParamConstraintRow{}, err
	}
	tok, _ := db.Token(TableGenericParamConstraint, row)
	return GenericParamConstraintRow{Token: tok, Owner: tokenCol(cols, 0), Constraint: tokenCol(cols, 1)}, nil
}

// FieldMarshal returns the FieldMarshal row at (1-based) row.
func (db *Database) FieldMarshal(row uint32) (FieldMarshalRow, error) {
	cols, err := db.readRowColumns(TableFieldMarshal, row)
	if err != nil {
		return FieldMarshalRow{}, err
	}
	tok, _ := db.Token(TableFieldMarshal, row)
	return FieldMarshalRow{Token: tok, Parent: tokenCol(cols, 0), NativeType: cols[1].blob(db)}, nil
}

// DeclSecurity returns the DeclSecurity row at (1-based) row.
func (db *Database) DeclSecurity(row uint32) (DeclSecurityRow, error) {
	cols, err := db.readRowColumns(TableDeclSecurity, row)
	if err != nil {
		return DeclSecurityRow{}, err
	}
	tok, _ := db.Token(TableDeclSecurity, row)
	return DeclSecurityRow{Token: tok, Action: cols[0].u16(), Parent: tokenCol(cols, 1), PermissionSet: cols[2].blob(db)}, nil
}

// ClassLayout returns the ClassLayout row at (1-based) row.
func (db *Database) ClassLayout(row uint32) (ClassLayoutRow, error) {
	cols, err := db.readRowColumns(TableClassLayout, row)
	if err != nil {
		return ClassLayoutRow{}, err
	}
	tok, _ := db.Token(TableClassLayout, row)
	return ClassLayoutRow{Token: tok, PackingSize: cols[0].u16(), ClassSize: cols[1].u32(), Parent: tokenCol(cols, 2)}, nil
}

// FieldLayout returns the FieldLayout row at (1-based) row.
func (db *Database) FieldLayout(row uint32) (FieldLayoutRow, error) {
	cols, err := db.readRowColumns(TableFieldLayout, row)
	if err != nil {
		return FieldLayoutRow{}, err
	}
	tok, _ := db.Token(TableFieldLayout, row)
	return FieldLayoutRow{Token: tok, Offset: cols[0].u32(), Field: tokenCol(cols, 1)}, nil
}

// StandAloneSig returns the StandAloneSig row at (1-based) row.
func (db *Database) StandAloneSig(row uint32) (StandAloneSigRow, error) {
	cols, err := db.readRowColumns(TableStandAloneSig, row)
	if err != nil {
		return StandAloneSigRow{}, err
	}
	tok, _ := db.Token(TableStandAloneSig, row)
	return StandAloneSigRow{Token: tok, Signature: cols[0].blob(db)}, nil
}

// ImplMap returns the ImplMap row at (1-based) row.
func (db *Database) ImplMap(row uint32) (ImplMapRow, error) {
	cols, err := db.readRowColumns(TableImplMap, row)
	if err != nil {
		return ImplMapRow{}, err
	}
	tok, _ := db.Token(TableImplMap, row)
	return ImplMapRow{
		Token:           tok,
		MappingFlags:    cols[0].u16(),
		MemberForwarded: tokenCol(cols, 1),
		ImportName:      cols[2].str(db),
		ImportScope:     tokenCol(cols, 3),
	}, nil
}

// FieldRVA returns the FieldRVA row at (1-based) row.
func (db *Database) FieldRVA(row uint32) (FieldRVARow, error) {
	cols, err := db.readRowColumns(TableFieldRVA, row)
	if err != nil {
		return FieldRVARow{}, err
	}
	tok, _ := db.Token(TableFieldRVA, row)
	return FieldRVARow{Token: tok, RVA: cols[0].u32(), Field: tokenCol(cols, 1)}, nil
}

// ManifestResource returns the ManifestResource row at (1-based) row.
func (db *Database) ManifestResource(row uint32) (ManifestResourceRow, error) {
	cols, err := db.readRowColumns(TableManifestResource, row)
	if err != nil {
		return ManifestResourceRow{}, err
	}
	tok, _ := db.Token(TableManifestResource, row)
	return ManifestResourceRow{
		Token:          tok,
		Offset:         cols[0].u32(),
		Flags:          cols[1].u32(),
		Name:           cols[2].str(db),
		Implementation: tokenCol(cols, 3),
	}, nil
}
