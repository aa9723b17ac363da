// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

// columnKind names the shape of one column of a metadata table row.
type columnKind int

const (
	colUint16 columnKind = iota
	colUint32
	colString // index into #Strings
	colGUID   // index into #GUID
	colBlob   // index into #Blob
	colTableIndex
	colCoded
)

// columnSpec describes one column: its kind, and, for colTableIndex/
// colCoded columns, which table or coded-index family it references.
type columnSpec struct {
	kind  columnKind
	table TableID        // valid when kind == colTableIndex
	coded codedIndexKind // valid when kind == colCoded
}

func u16() columnSpec               { return columnSpec{kind: colUint16} }
func u32() columnSpec               { return columnSpec{kind: colUint32} }
func str() columnSpec               { return columnSpec{kind: colString} }
func guid() columnSpec              { return columnSpec{kind: colGUID} }
func blob() columnSpec              { return columnSpec{kind: colBlob} }
func tbl(t TableID) columnSpec      { return columnSpec{kind: colTableIndex, table: t} }
func coded(k codedIndexKind) columnSpec { return columnSpec{kind: colCoded, coded: k} }

// tableSchemas gives the ECMA-335 §II.22 column layout of every table this
// reader supports, in on-disk column order.
var tableSchemas = map[TableID][]columnSpec{
	TableModule:      {u16(), str(), guid(), guid(), guid()},
	TableTypeRef:     {coded(codedResolutionScope), str(), str()},
	TableTypeDef:     {u32(), str(), str(), coded(codedTypeDefOrRef), tbl(TableField), tbl(TableMethodDef)},
	TableField:       {u16(), str(), blob()},
	TableMethodDef:   {u32(), u16(), u16(), str(), blob(), tbl(TableParam)},
	TableParam:       {u16(), u16(), str()},
	TableInterfaceImpl: {tbl(TableTypeDef), coded(codedTypeDefOrRef)},
	TableMemberRef:   {coded(codedMemberRefParent), str(), blob()},
	TableConstant:    {u16(), coded(codedHasConstant), blob()},
	TableCustomAttribute: {coded(codedHasCustomAttribute), coded(codedCustomAttributeType), blob()},
	TableFieldMarshal:    {coded(codedHasFieldMarshal), blob()},
	TableDeclSecurity:    {u16(), coded(codedHasDeclSecurity), blob()},
	TableClassLayout:     {u16(), u32(), tbl(TableTypeDef)},
	TableFieldLayout:     {u32(), tbl(TableField)},
	TableStandAloneSig:   {blob()},
	TableEventMap:        {tbl(TableTypeDef), tbl(TableEvent)},
	TableEvent:           {u16(), str(), coded(codedTypeDefOrRef)},
	TablePropertyMap:     {tbl(TableTypeDef), tbl(TableProperty)},
	TableProperty:        {u16(), str(), blob()},
	TableMethodSemantics: {u16(), tbl(TableMethodDef), coded(codedHasSemantics)},
	TableMethodImpl:      {tbl(TableTypeDef), coded(codedMethodDefOrRef), coded(codedMethodDefOrRef)},
	TableModuleRef:       {str()},
	TableTypeSpec:        {blob()},
	TableImplMap:         {u16(), coded(codedMemberForwarded), str(), tbl(TableModuleRef)},
	TableFieldRVA:        {u32(), tbl(TableField)},
	TableAssembly:        {u32(), u16(), u16(), u16(), u16(), u32(), blob(), str(), str()},
	TableAssemblyProcessor: {u32()},
	TableAssemblyOS:        {u32(), u32(), u32()},
	TableAssemblyRef:       {u16(), u16(), u16(), u16(), u32(), blob(), str(), str(), blob()},
	TableAssemblyRefProcessor: {u32(), tbl(TableAssemblyRef)},
	TableAssemblyRefOS:        {u32(), u32(), u32(), tbl(TableAssemblyRef)},
	TableFile:                {u32(), str(), blob()},
	TableExportedType:        {u32(), tbl(TableTypeDef), str(), str(), coded(codedImplementation)},
	TableManifestResource:    {u32(), u32(), str(), coded(codedImplementation)},
	TableNestedClass:         {tbl(TableTypeDef), tbl(TableTypeDef)},
	TableGenericParam:        {u16(), u16(), coded(codedTypeOrMethodDef), str()},
	TableMethodSpec:          {coded(codedMethodDefOrRef), blob()},
	TableGenericParamConstraint: {tbl(TableGenericParam), coded(codedTypeDefOrRef)},
}

// tableLayout is the computed per-database layout of one table: where its
// rows start, how wide each row is, and how many rows it has.
type tableLayout struct {
	present  bool
	sorted   bool
	base     uint32
	rowSize  uint32
	rowCount uint32
	columnOffsets []uint32 // byte offset of each column within a row
	columnWidths  []uint32 // byte width of each column (2 or 4)
}

// tablesStreamHeader is the fixed portion of the `#~` stream, spec.md §4.2
// step 4.
type tablesStreamHeader struct {
	Reserved     uint32
	MajorVersion uint8
	MinorVersion uint8
	HeapSizes    uint8
	Rid          uint8
	MaskValid    uint64
	Sorted       uint64
}

const tablesStreamHeaderSize = 24

// parseTablesStream decodes the `#~` stream header, its row-count array,
// and computes the per-table layout (base offset, row stride, row count)
// per spec.md §4.2 steps 4-6.
func parseTablesStream(v byteView, stringIdxSize, guidIdxSize, blobIdxSize uint32) (map[TableID]tableLayout, error) {
	var hdr tablesStreamHeader
	if err := v.structUnpack(&hdr, 0, tablesStreamHeaderSize); err != nil {
		return nil, ErrInvalidMetadata
	}

	rowCounts := make(map[TableID]uint32)
	order := make([]TableID, 0, 45)
	offset := uint32(tablesStreamHeaderSize)
	for bit := 0; bit < 64; bit++ {
		if hdr.MaskValid&(1<<uint(bit)) == 0 {
			continue
		}
		id := TableID(bit)
		if !validTableIDs[id] {
			return nil, ErrInvalidMetadata
		}
		count, err := v.readUint32(offset)
		if err != nil {
			return nil, ErrInvalidMetadata
		}
		rowCounts[id] = count
		order = append(order, id)
		offset += 4
	}

	layouts := make(map[TableID]tableLayout, len(order))
	base := offset
	for _, id := range order {
		schema := tableSchemas[id]
		if schema == nil {
			return nil, ErrInvalidMetadata
		}
		colOffsets := make([]uint32, len(schema))
		colWidths := make([]uint32, len(schema))
		rowSize := uint32(0)
		for i, col := range schema {
			w := columnWidth(col, rowCounts, stringIdxSize, guidIdxSize, blobIdxSize)
			colOffsets[i] = rowSize
			colWidths[i] = w
			rowSize += w
		}

		layouts[id] = tableLayout{
			present:       true,
			sorted:        hdr.Sorted&(1<<uint(id)) != 0,
			base:          base,
			rowSize:       rowSize,
			rowCount:      rowCounts[id],
			columnOffsets: colOffsets,
			columnWidths:  colWidths,
		}
		base += rowSize * rowCounts[id]
	}

	return layouts, nil
}

// columnWidth computes one column's on-disk width per spec.md §3's
// index-width rules.
func columnWidth(col columnSpec, rowCounts map[TableID]uint32, stringIdxSize, guidIdxSize, blobIdxSize uint32) uint32 {
	switch col.kind {
	case colUint16:
		return 2
	case colUint32:
		return 4
	case colString:
		return stringIdxSize
	case colGUID:
		return guidIdxSize
	case colBlob:
		return blobIdxSize
	case colTableIndex:
		if rowCounts[col.table] >= 1<<16 {
			return 4
		}
		return 2
	case colCoded:
		return codedIndexWidth(codedIndexSpecs[col.coded], rowCounts)
	default:
		return 2
	}
}

// readColumnRaw reads the raw (unresolved) value of column i of the row at
// offset rowOffset within v, using the layout's precomputed widths.
func readColumnRaw(v byteView, layout tableLayout, rowOffset uint32, i int) (uint32, error) {
	off := rowOffset + layout.columnOffsets[i]
	switch layout.columnWidths[i] {
	case 2:
		x, err := v.readUint16(off)
		return uint32(x), err
	default:
		return v.readUint32(off)
	}
}
