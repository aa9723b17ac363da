// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

import "encoding/binary"

// imageDOSHeader represents the DOS stub of a PE. Only two fields of it
// matter to a CLI metadata reader (the magic, to reject non-PE look-alikes
// early, and e_lfanew, to find the NT headers) but the full field list is
// kept so structUnpack decodes the correct byte layout.
type imageDOSHeader struct {
	Magic                    uint16
	BytesOnLastPageOfFile    uint16
	PagesInFile              uint16
	Relocations              uint16
	SizeOfHeader             uint16
	MinExtraParagraphsNeeded uint16
	MaxExtraParagraphsNeeded uint16
	InitialSS                uint16
	InitialSP                uint16
	Checksum                 uint16
	InitialIP                uint16
	InitialCS                uint16
	AddressOfRelocationTable uint16
	OverlayNumber            uint16
	ReservedWords1           [4]uint16
	OEMIdentifier            uint16
	OEMInformation           uint16
	ReservedWords2           [10]uint16
	AddressOfNewEXEHeader    uint32 // e_lfanew
}

// parseDOSHeader reads and validates the DOS stub, returning the decoded
// header; its AddressOfNewEXEHeader field (e_lfanew) is the file offset of
// the NT headers. Spec.md §4.1 step 1-2.
func parseDOSHeader(v byteView) (imageDOSHeader, error) {
	var dos imageDOSHeader
	size := uint32(binary.Size(dos))
	if err := v.structUnpack(&dos, 0, size); err != nil {
		return dos, ErrInvalidPE
	}

	if dos.Magic != imageDOSSignature && dos.Magic != imageDOSZMSignature {
		return dos, ErrInvalidPE
	}

	// e_lfanew can't be null (the PE and DOS signatures would overlap) and
	// can't run past the end of the image.
	if dos.AddressOfNewEXEHeader < 4 || dos.AddressOfNewEXEHeader > v.size() {
		return dos, ErrInvalidPE
	}

	return dos, nil
}
