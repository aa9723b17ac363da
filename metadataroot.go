// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

const metadataRootSignature = 0x424A5342 // "BSJB"

// streamHeader is one entry of the metadata root's stream directory,
// spec.md §4.2 step 3.
type streamHeader struct {
	Offset uint32
	Size   uint32
	Name   string
}

// metadataRoot holds the decoded BSJB header plus the raw byte ranges of
// every recognized stream, keyed by stream name.
type metadataRoot struct {
	versionString string
	streams       map[string][]byte
}

// parseMetadataRoot decodes the CLI metadata root per spec.md §4.2 steps
// 1-3: magic, version string, and stream directory. root is the metadata
// blob copied out by locateCLIMetadata.
func parseMetadataRoot(root []byte) (metadataRoot, error) {
	v := newByteView(root)
	var mr metadataRoot

	magic, err := v.readUint32(0)
	if err != nil || magic != metadataRootSignature {
		return mr, ErrInvalidMetadata
	}

	versionLen, err := v.readUint32(12)
	if err != nil {
		return mr, ErrInvalidMetadata
	}
	mr.versionString = v.cStringAt(16, versionLen)

	offset := alignUp32(16+versionLen, 4)
	streamCount, err := v.readUint16(offset)
	if err != nil {
		return mr, ErrInvalidMetadata
	}
	offset += 4 // 2-byte stream count + 2 reserved flag bytes

	mr.streams = make(map[string][]byte, streamCount)
	for i := uint16(0); i < streamCount; i++ {
		sh, next, err := readStreamHeader(v, offset)
		if err != nil {
			return mr, err
		}
		switch sh.Name {
		case "#Strings", "#US", "#Blob", "#GUID", "#~", "#-":
			data, err := v.readBytes(sh.Offset, sh.Size)
			if err != nil {
				return mr, ErrInvalidMetadata
			}
			if _, dup := mr.streams[sh.Name]; dup {
				return mr, ErrInvalidMetadata
			}
			mr.streams[sh.Name] = data
		}
		offset = next
	}

	if _, ok := mr.streams["#~"]; !ok {
		if _, ok := mr.streams["#-"]; !ok {
			return mr, ErrInvalidMetadata
		}
	}

	return mr, nil
}

// readStreamHeader reads one stream directory entry starting at offset,
// returning the decoded header and the offset of the next entry.
func readStreamHeader(v byteView, offset uint32) (streamHeader, uint32, error) {
	var sh streamHeader
	var err error
	if sh.Offset, err = v.readUint32(offset); err != nil {
		return sh, 0, ErrInvalidMetadata
	}
	if sh.Size, err = v.readUint32(offset + 4); err != nil {
		return sh, 0, ErrInvalidMetadata
	}
	nameOffset := offset + 8
	sh.Name = v.cStringAt(nameOffset, 32)
	if sh.Name == "" {
		return sh, 0, ErrInvalidMetadata
	}
	next := alignUp32(nameOffset+uint32(len(sh.Name))+1, 4)
	return sh, next, nil
}

func alignUp32(n, align uint32) uint32 {
	return (n + align - 1) / align * align
}
