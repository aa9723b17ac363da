// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

// Database is one parsed CLI metadata image: the five heaps plus the
// table layouts computed from the `#~` stream, per spec.md §3.
type Database struct {
	strings stringHeap
	us      userStringHeap
	blobs   blobHeap
	guids   guidHeap
	tables  map[TableID]tableLayout
	raw     byteView // the full metadata-root blob, for row reads
}

// OpenDatabase parses a CLI metadata root (as located by locateCLIMetadata)
// into a Database.
func OpenDatabase(root []byte) (*Database, error) {
	mr, err := parseMetadataRoot(root)
	if err != nil {
		return nil, err
	}

	tablesData, ok := mr.streams["#~"]
	if !ok {
		tablesData, ok = mr.streams["#-"]
	}
	if !ok {
		return nil, ErrInvalidMetadata
	}
	tv := newByteView(tablesData)

	var hdr tablesStreamHeader
	if err := tv.structUnpack(&hdr, 0, tablesStreamHeaderSize); err != nil {
		return nil, ErrInvalidMetadata
	}

	stringIdxSize := heapIndexSize(hdr.HeapSizes, 0x01)
	guidIdxSize := heapIndexSize(hdr.HeapSizes, 0x02)
	blobIdxSize := heapIndexSize(hdr.HeapSizes, 0x04)

	tables, err := parseTablesStream(tv, stringIdxSize, guidIdxSize, blobIdxSize)
	if err != nil {
		return nil, err
	}

	db := &Database{
		strings: stringHeap{v: newByteView(mr.streams["#Strings"])},
		us:      userStringHeap{v: newByteView(mr.streams["#US"])},
		blobs:   blobHeap{v: newByteView(mr.streams["#Blob"])},
		guids:   guidHeap{v: newByteView(mr.streams["#GUID"])},
		tables:  tables,
		raw:     tv,
	}
	return db, nil
}

// heapIndexSize returns 4 if the given bit is set in the heap-size flags
// byte, else 2 (spec.md §4.2 step 4).
func heapIndexSize(flags uint8, bit uint8) uint32 {
	if flags&bit != 0 {
		return 4
	}
	return 2
}

// RowCount returns the number of rows of table t (0 if the table is
// absent).
func (db *Database) RowCount(t TableID) uint32 {
	return db.tables[t].rowCount
}

// HasTable reports whether table t is present in this database.
func (db *Database) HasTable(t TableID) bool {
	return db.tables[t].present
}

// Token constructs a token for row (1-based) of table t, bounds-checked.
func (db *Database) Token(t TableID, row uint32) (Token, error) {
	layout, ok := db.tables[t]
	if !ok || row == 0 || row > layout.rowCount {
		return NullToken, ErrInvalidMetadata
	}
	return newToken(db, t, row), nil
}

// rowOffset returns the byte offset of row (1-based) of table t.
func (db *Database) rowOffset(t TableID, row uint32) (uint32, tableLayout, error) {
	layout, ok := db.tables[t]
	if !ok || row == 0 || row > layout.rowCount {
		return 0, layout, ErrInvalidMetadata
	}
	return layout.base + layout.rowSize*(row-1), layout, nil
}

// readRowColumns decodes every column of row (1-based) of table t into
// column-kind-tagged values: colTableIndex/colCoded columns are resolved
// into tokens, heap columns are returned as raw heap offsets, and
// uint16/uint32 columns are returned as plain integers.
func (db *Database) readRowColumns(t TableID, row uint32) ([]rowColumn, error) {
	offset, layout, err := db.rowOffset(t, row)
	if err != nil {
		return nil, err
	}
	schema := tableSchemas[t]
	cols := make([]rowColumn, len(schema))
	for i, spec := range schema {
		raw, err := readColumnRaw(db.raw, layout, offset, i)
		if err != nil {
			return nil, ErrInvalidMetadata
		}
		switch spec.kind {
		case colTableIndex:
			if raw == 0 {
				cols[i] = rowColumn{kind: spec.kind}
			} else {
				cols[i] = rowColumn{kind: spec.kind, token: newToken(db, spec.table, raw)}
			}
		case colCoded:
			if raw == 0 {
				cols[i] = rowColumn{kind: spec.kind}
				break
			}
			tok, err := decodeCodedIndex(spec.coded, raw)
			if err != nil {
				return nil, err
			}
			tok.db = db
			cols[i] = rowColumn{kind: spec.kind, token: tok}
		default:
			cols[i] = rowColumn{kind: spec.kind, raw: raw}
		}
	}
	return cols, nil
}

// rowColumn is one decoded column value: either a plain integer/heap
// offset (raw) or a resolved token (for table-index/coded-index columns).
type rowColumn struct {
	kind  columnKind
	raw   uint32
	token Token
}

func (c rowColumn) u16() uint16  { return uint16(c.raw) }
func (c rowColumn) u32() uint32  { return c.raw }
func (c rowColumn) str(db *Database) string {
	return db.strings.at(c.raw)
}
func (c rowColumn) blob(db *Database) Blob {
	begin, end, err := db.blobs.at(c.raw)
	if err != nil {
		return Blob{}
	}
	return Blob{db: db, begin: begin, end: end}
}
func (c rowColumn) guid(db *Database) [16]byte {
	g, _ := db.guids.at(c.raw)
	return g
}
