// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

// TableID identifies one of the 45 possible metadata tables by its
// single-byte id, per spec.md Appendix A.
type TableID uint8

// The metadata table ids this reader recognizes. Ids not listed here (the
// *Ptr lookup tables and ENCLog/ENCMap) never appear in optimized (#~)
// metadata and are rejected by validTableIDs.
const (
	TableModule                 TableID = 0x00
	TableTypeRef                TableID = 0x01
	TableTypeDef                TableID = 0x02
	TableField                  TableID = 0x04
	TableMethodDef               TableID = 0x06
	TableParam                  TableID = 0x08
	TableInterfaceImpl          TableID = 0x09
	TableMemberRef              TableID = 0x0a
	TableConstant               TableID = 0x0b
	TableCustomAttribute        TableID = 0x0c
	TableFieldMarshal           TableID = 0x0d
	TableDeclSecurity           TableID = 0x0e
	TableClassLayout            TableID = 0x0f
	TableFieldLayout            TableID = 0x10
	TableStandAloneSig          TableID = 0x11
	TableEventMap               TableID = 0x12
	TableEvent                  TableID = 0x14
	TablePropertyMap            TableID = 0x15
	TableProperty               TableID = 0x17
	TableMethodSemantics        TableID = 0x18
	TableMethodImpl             TableID = 0x19
	TableModuleRef              TableID = 0x1a
	TableTypeSpec               TableID = 0x1b
	TableImplMap                TableID = 0x1c
	TableFieldRVA               TableID = 0x1d
	TableAssembly                TableID = 0x20
	TableAssemblyProcessor      TableID = 0x21
	TableAssemblyOS              TableID = 0x22
	TableAssemblyRef              TableID = 0x23
	TableAssemblyRefProcessor     TableID = 0x24
	TableAssemblyRefOS            TableID = 0x25
	TableFile                    TableID = 0x26
	TableExportedType            TableID = 0x27
	TableManifestResource        TableID = 0x28
	TableNestedClass             TableID = 0x29
	TableGenericParam            TableID = 0x2a
	TableMethodSpec              TableID = 0x2b
	TableGenericParamConstraint  TableID = 0x2c
)

// validTableIDs is the Appendix A allow-list; a valid-tables bitmap bit set
// for any id outside this set makes the metadata invalid.
var validTableIDs = map[TableID]bool{
	TableModule: true, TableTypeRef: true, TableTypeDef: true, TableField: true,
	TableMethodDef: true, TableParam: true, TableInterfaceImpl: true, TableMemberRef: true,
	TableConstant: true, TableCustomAttribute: true, TableFieldMarshal: true, TableDeclSecurity: true,
	TableClassLayout: true, TableFieldLayout: true, TableStandAloneSig: true, TableEventMap: true,
	TableEvent: true, TablePropertyMap: true, TableProperty: true, TableMethodSemantics: true,
	TableMethodImpl: true, TableModuleRef: true, TableTypeSpec: true, TableImplMap: true,
	TableFieldRVA: true, TableAssembly: true, TableAssemblyProcessor: true, TableAssemblyOS: true,
	TableAssemblyRef: true, TableAssemblyRefProcessor: true, TableAssemblyRefOS: true, TableFile: true,
	TableExportedType: true, TableManifestResource: true, TableNestedClass: true, TableGenericParam: true,
	TableMethodSpec: true, TableGenericParamConstraint: true,
}

// Token identifies a single row of a table within a database: spec.md §3
// requires equality of tokens to compare both database and index. Row is
// 1-based; Row == 0 is the null/invalid token.
type Token struct {
	db    *Database
	Table TableID
	Row   uint32
}

// NullToken is the zero-value invalid token.
var NullToken = Token{}

// IsNull reports whether t is the null token.
func (t Token) IsNull() bool {
	return t.Row == 0
}

// Database returns the database this token was minted against.
func (t Token) Database() *Database {
	return t.db
}

// Equal implements spec.md §3's token-identity invariant: equal database
// and equal index.
func (t Token) Equal(o Token) bool {
	return t.db == o.db && t.Table == o.Table && t.Row == o.Row
}

func newToken(db *Database, table TableID, row uint32) Token {
	return Token{db: db, Table: table, Row: row}
}
