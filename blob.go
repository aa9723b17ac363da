// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

// Blob is a borrowed byte range inside a database's #Blob heap: a
// (database, begin, end) triple per spec.md §4.3. It never copies or owns
// memory; it stays valid as long as the owning Loader is alive.
type Blob struct {
	db         *Database
	begin, end uint32
}

// Bytes returns the raw bytes of the blob.
func (b Blob) Bytes() []byte {
	if b.db == nil {
		return nil
	}
	data, _ := b.db.blobs.readBytes(b.begin, b.end-b.begin)
	return data
}

// Empty reports whether the blob has zero length.
func (b Blob) Empty() bool {
	return b.end <= b.begin
}

// cursor is a forward-only byte reader over a blob, used by the signature
// decoder (signature.go). It never backs up; every opcode is consumed once.
type cursor struct {
	data []byte
	pos  int
}

func newCursor(data []byte) *cursor {
	return &cursor{data: data}
}

func (c *cursor) atEnd() bool {
	return c.pos >= len(c.data)
}

func (c *cursor) readByte() (byte, error) {
	if c.atEnd() {
		return 0, ErrInvalidMetadata
	}
	b := c.data[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) peekByte() (byte, error) {
	if c.atEnd() {
		return 0, ErrInvalidMetadata
	}
	return c.data[c.pos], nil
}

// readCompressed decodes an ECMA-335 §II.23.2 compressed unsigned integer:
// 1, 2, or 4 bytes depending on the leading bit pattern of the first byte.
func (c *cursor) readCompressed() (uint32, error) {
	b0, err := c.readByte()
	if err != nil {
		return 0, err
	}
	switch {
	case b0&0x80 == 0:
		return uint32(b0), nil
	case b0&0xC0 == 0x80:
		b1, err := c.readByte()
		if err != nil {
			return 0, err
		}
		return uint32(b0&0x3F)<<8 | uint32(b1), nil
	case b0&0xE0 == 0xC0:
		rest := make([]byte, 3)
		for i := range rest {
			rest[i], err = c.readByte()
			if err != nil {
				return 0, err
			}
		}
		return uint32(b0&0x1F)<<24 | uint32(rest[0])<<16 | uint32(rest[1])<<8 | uint32(rest[2]), nil
	default:
		return 0, ErrInvalidMetadata
	}
}

// readCompressedSigned decodes an ECMA-335 §II.23.2 compressed signed
// integer: the underlying bits are read the same way as an unsigned value,
// then the sign bit (the original LSB) is rotated back into position.
func (c *cursor) readCompressedSigned() (int32, error) {
	u, err := c.readCompressed()
	if err != nil {
		return 0, err
	}
	negative := u&1 != 0
	switch {
	case u < 0x80:
		u >>= 1
		if negative {
			return int32(u) - 0x40, nil
		}
		return int32(u), nil
	case u < 0x4000:
		u >>= 1
		if negative {
			return int32(u) - 0x2000, nil
		}
		return int32(u), nil
	default:
		u >>= 1
		if negative {
			return int32(u) - 0x10000000, nil
		}
		return int32(u), nil
	}
}
