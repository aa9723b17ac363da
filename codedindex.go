// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

// codedIndexKind names one of the coded-index families of Appendix A. Each
// family packs a small tag into the low bits of a table-row reference,
// selecting which of a fixed set of tables the remaining bits index into.
type codedIndexKind int

const (
	codedTypeDefOrRef codedIndexKind = iota
	codedHasConstant
	codedHasCustomAttribute
	codedHasFieldMarshal
	codedHasDeclSecurity
	codedMemberRefParent
	codedHasSemantics
	codedMethodDefOrRef
	codedMemberForwarded
	codedImplementation
	codedCustomAttributeType
	codedResolutionScope
	codedTypeOrMethodDef
)

// tableNone marks an unused tag slot within a coded-index's table list (the
// custom-attribute-type family only populates tags 2 and 3, for instance).
const tableNone TableID = 0xFF

// codedIndexSpec describes one coded-index family: its tag width in bits
// and the table each tag value selects, in ECMA-335 §II.24.2.6 order.
type codedIndexSpec struct {
	tagBits uint
	tables  []TableID
}

var codedIndexSpecs = map[codedIndexKind]codedIndexSpec{
	codedTypeDefOrRef: {2, []TableID{
		TableTypeDef, TableTypeRef, TableTypeSpec,
	}},
	codedHasConstant: {2, []TableID{
		TableField, TableParam, TableProperty,
	}},
	codedHasCustomAttribute: {5, []TableID{
		TableMethodDef, TableField, TableTypeRef, TableTypeDef, TableParam,
		TableInterfaceImpl, TableMemberRef, TableModule, TableDeclSecurity,
		TableProperty, TableEvent, TableStandAloneSig, TableModuleRef,
		TableTypeSpec, TableAssembly, TableAssemblyRef, TableFile,
		TableExportedType, TableManifestResource, TableGenericParam,
		TableGenericParamConstraint, TableMethodSpec,
	}},
	codedHasFieldMarshal: {1, []TableID{
		TableField, TableParam,
	}},
	codedHasDeclSecurity: {2, []TableID{
		TableTypeDef, TableMethodDef, TableAssembly,
	}},
	codedMemberRefParent: {3, []TableID{
		TableTypeDef, TableTypeRef, TableModuleRef, TableMethodDef, TableTypeSpec,
	}},
	codedHasSemantics: {1, []TableID{
		TableEvent, TableProperty,
	}},
	codedMethodDefOrRef: {1, []TableID{
		TableMethodDef, TableMemberRef,
	}},
	codedMemberForwarded: {1, []TableID{
		TableField, TableMethodDef,
	}},
	codedImplementation: {2, []TableID{
		TableFile, TableAssemblyRef, TableExportedType,
	}},
	codedCustomAttributeType: {3, []TableID{
		tableNone, tableNone, TableMethodDef, TableMemberRef, tableNone,
	}},
	codedResolutionScope: {2, []TableID{
		TableModule, TableModuleRef, TableAssemblyRef, TableTypeRef,
	}},
	codedTypeOrMethodDef: {1, []TableID{
		TableTypeDef, TableMethodDef,
	}},
}

// decodeCodedIndex splits a raw coded-index value into its tag and row, then
// resolves the tag to a table id.
func decodeCodedIndex(kind codedIndexKind, raw uint32) (Token, error) {
	spec := codedIndexSpecs[kind]
	tagMask := uint32(1)<<spec.tagBits - 1
	tag := raw & tagMask
	row := raw >> spec.tagBits

	if int(tag) >= len(spec.tables) || spec.tables[tag] == tableNone {
		return Token{}, ErrInvalidMetadata
	}
	return Token{Table: spec.tables[tag], Row: row}, nil
}

// codedIndexWidth implements spec.md §3's coded-index width rule: 2 bytes
// if every table in the family has fewer than 2^(16-tagBits) rows, else 4.
func codedIndexWidth(spec codedIndexSpec, rowCounts map[TableID]uint32) uint32 {
	limit := uint32(1) << (16 - spec.tagBits)
	for _, t := range spec.tables {
		if t == tableNone {
			continue
		}
		if rowCounts[t] >= limit {
			return 4
		}
	}
	return 2
}
