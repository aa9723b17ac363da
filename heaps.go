// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

import (
	"golang.org/x/text/encoding/unicode"
)

// stringHeap is a view over #Strings: NUL-terminated UTF-8, indexed by
// byte offset.
type stringHeap struct {
	v byteView
}

func (h stringHeap) at(offset uint32) string {
	if h.v.size() == 0 {
		return ""
	}
	return h.v.cStringAt(offset, h.v.size()-offset)
}

// blobHeap is a view over #Blob: length-prefixed (ECMA-335 compressed
// unsigned integer) byte ranges, indexed by byte offset.
type blobHeap struct {
	v byteView
}

func (h blobHeap) readBytes(offset, size uint32) ([]byte, error) {
	return h.v.readBytes(offset, size)
}

// at returns the blob's content range starting at offset, after consuming
// its compressed length prefix.
func (h blobHeap) at(offset uint32) (begin, end uint32, err error) {
	data, err := h.v.readBytes(offset, minU32(h.v.size()-offset, 4))
	if err != nil {
		return 0, 0, ErrInvalidMetadata
	}
	c := newCursor(data)
	length, err := c.readCompressed()
	if err != nil {
		return 0, 0, ErrInvalidMetadata
	}
	begin = offset + uint32(c.pos)
	end = begin + length
	if end > h.v.size() {
		return 0, 0, ErrInvalidMetadata
	}
	return begin, end, nil
}

// guidHeap is a view over #GUID: a 0-based array of fixed 16-byte records,
// indexed by a 1-based record number (index 0 means "no GUID").
type guidHeap struct {
	v byteView
}

func (h guidHeap) at(index uint32) ([16]byte, error) {
	var g [16]byte
	if index == 0 {
		return g, nil
	}
	data, err := h.v.readBytes((index-1)*16, 16)
	if err != nil {
		return g, ErrInvalidMetadata
	}
	copy(g[:], data)
	return g, nil
}

// userStringHeap is a view over #US: like #Blob, but every blob's content
// is UTF-16LE text plus a trailing flag byte (ECMA-335 §II.24.2.4) instead
// of raw bytes.
type userStringHeap struct {
	v byteView
}

// at decodes the user-string blob starting at offset.
func (h userStringHeap) at(offset uint32) (string, error) {
	if h.v.size() == 0 {
		return "", nil
	}
	data, err := h.v.readBytes(offset, minU32(h.v.size()-offset, 4))
	if err != nil {
		return "", ErrInvalidMetadata
	}
	c := newCursor(data)
	length, err := c.readCompressed()
	if err != nil {
		return "", ErrInvalidMetadata
	}
	begin := offset + uint32(c.pos)
	if length == 0 {
		return "", nil
	}
	// The final byte is a trailing flag (whether any character requires
	// special handling by a consumer); it is not part of the text.
	textLen := length - 1
	raw, err := h.v.readBytes(begin, textLen)
	if err != nil {
		return "", ErrInvalidMetadata
	}
	return decodeUTF16LE(raw), nil
}

// utf16LE is shared across every #US lookup; each lookup takes its own
// decoder from it, since a golang.org/x/text decoder keeps state between
// calls and is not safe for concurrent use.
var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// decodeUTF16LE decodes a little-endian UTF-16 byte slice, the format of
// #US entries, the same way the teacher decodes UTF-16 elsewhere in the PE
// (version resources, import names) via golang.org/x/text/encoding/unicode.
func decodeUTF16LE(b []byte) string {
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	out, err := utf16LE.NewDecoder().Bytes(b)
	if err != nil {
		return ""
	}
	return string(out)
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
