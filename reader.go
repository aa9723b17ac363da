// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

import (
	"bytes"
	"encoding/binary"
)

// byteView is a bounds-checked, little-endian view over a byte slice. Both
// the PE locator (reading over the whole image) and the metadata database
// (reading over the `#~`/heap streams) are built on top of it, the way the
// teacher's File built every directory parser on top of a handful of
// ReadUint*/structUnpack helpers.
type byteView struct {
	data []byte
}

func newByteView(data []byte) byteView {
	return byteView{data: data}
}

func (v byteView) size() uint32 {
	return uint32(len(v.data))
}

// readUint64 reads a uint64 at offset.
func (v byteView) readUint64(offset uint32) (uint64, error) {
	if v.size() < 8 || offset > v.size()-8 || offset+8 < offset {
		return 0, errOutsideBoundary
	}
	return binary.LittleEndian.Uint64(v.data[offset:]), nil
}

// readUint32 reads a uint32 at offset.
func (v byteView) readUint32(offset uint32) (uint32, error) {
	if v.size() < 4 || offset > v.size()-4 || offset+4 < offset {
		return 0, errOutsideBoundary
	}
	return binary.LittleEndian.Uint32(v.data[offset:]), nil
}

// readUint16 reads a uint16 at offset.
func (v byteView) readUint16(offset uint32) (uint16, error) {
	if v.size() < 2 || offset > v.size()-2 || offset+2 < offset {
		return 0, errOutsideBoundary
	}
	return binary.LittleEndian.Uint16(v.data[offset:]), nil
}

// readUint8 reads a single byte at offset.
func (v byteView) readUint8(offset uint32) (uint8, error) {
	if offset+1 > v.size() {
		return 0, errOutsideBoundary
	}
	return v.data[offset], nil
}

// readBytes returns a sub-slice [offset, offset+size) without copying.
func (v byteView) readBytes(offset, size uint32) ([]byte, error) {
	total := offset + size
	if (total > offset) != (size > 0) {
		return nil, errOutsideBoundary
	}
	if offset > v.size() || total > v.size() {
		return nil, errOutsideBoundary
	}
	return v.data[offset:total], nil
}

// structUnpack decodes a fixed-layout little-endian struct at offset. size
// is expected to be binary.Size(iface); callers pass it explicitly to keep
// a single bounds check in front of the decode, matching the teacher's
// structUnpack signature.
func (v byteView) structUnpack(iface interface{}, offset, size uint32) error {
	total := offset + size
	if (total > offset) != (size > 0) {
		return errOutsideBoundary
	}
	if offset >= v.size() || total > v.size() {
		return errOutsideBoundary
	}
	r := bytes.NewReader(v.data[offset:total])
	return binary.Read(r, binary.LittleEndian, iface)
}

// cStringAt reads a NUL-terminated ASCII string starting at offset, never
// reading past maxLen bytes or the end of the view.
func (v byteView) cStringAt(offset, maxLen uint32) string {
	end := offset
	limit := offset + maxLen
	if limit > v.size() {
		limit = v.size()
	}
	for end < limit && v.data[end] != 0 {
		end++
	}
	if offset > v.size() || end > v.size() {
		return ""
	}
	return string(v.data[offset:end])
}
