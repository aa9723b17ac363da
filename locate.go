// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

import "encoding/binary"

// imageCor20Header mirrors the CLR runtime header and the data directories
// embedded in it: MetaData is the only one the reader dereferences,
// the remaining fields of imageCor20Header exist only so structUnpack
// decodes the correct 72-byte layout.
type imageCor20Header struct {
	Cb                      uint32
	MajorRuntimeVersion     uint16
	MinorRuntimeVersion     uint16
	MetaData                imageDataDirectory
	Flags                   uint32
	EntryPointRVAorToken    uint32
	Resources               imageDataDirectory
	StrongNameSignature     imageDataDirectory
	CodeManagerTable        imageDataDirectory
	VTableFixups            imageDataDirectory
	ExportAddressTableJumps imageDataDirectory
	ManagedNativeHeader     imageDataDirectory
}

// locateCLIMetadata implements spec §4.1: given a whole PE image, find and
// return the byte range holding the CLI metadata root (the "BSJB" blob),
// copied into an owned buffer so the caller can discard the source image.
func locateCLIMetadata(image []byte) ([]byte, error) {
	v := newByteView(image)

	dos, err := parseDOSHeader(v)
	if err != nil {
		return nil, err
	}

	nt, err := parseNTHeaders(v, dos.AddressOfNewEXEHeader)
	if err != nil {
		return nil, err
	}

	sections, err := parseSectionHeaders(v, nt, dos.AddressOfNewEXEHeader)
	if err != nil {
		return nil, err
	}

	corDir := nt.dataDirectory[imageDirectoryEntryCLR]
	if corDir.VirtualAddress == 0 || corDir.Size == 0 {
		return nil, ErrInvalidPE
	}

	corOffset, err := rvaToFileOffset(sections, corDir.VirtualAddress)
	if err != nil {
		return nil, err
	}

	var cor imageCor20Header
	corSize := uint32(binary.Size(cor))
	if corDir.Size < corSize {
		return nil, ErrInvalidPE
	}
	if err := v.structUnpack(&cor, corOffset, corSize); err != nil {
		return nil, ErrInvalidPE
	}

	if cor.MetaData.VirtualAddress == 0 || cor.MetaData.Size == 0 {
		return nil, ErrInvalidPE
	}

	mdOffset, err := rvaToFileOffset(sections, cor.MetaData.VirtualAddress)
	if err != nil {
		return nil, err
	}

	raw, err := v.readBytes(mdOffset, cor.MetaData.Size)
	if err != nil {
		return nil, ErrInvalidPE
	}

	owned := make([]byte, len(raw))
	copy(owned, raw)
	return owned, nil
}
