// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

import "encoding/binary"

// imageSectionHeader is one 40-byte row of the section table, immediately
// following the optional header.
type imageSectionHeader struct {
	Name                 [8]uint8
	VirtualSize          uint32
	VirtualAddress       uint32
	SizeOfRawData        uint32
	PointerToRawData     uint32
	PointerToRelocations uint32
	PointerToLineNumbers uint32
	NumberOfRelocations  uint16
	NumberOfLineNumbers  uint16
	Characteristics      uint32
}

// contains reports whether rva falls within this section's virtual range.
func (s imageSectionHeader) contains(rva uint32) bool {
	size := s.VirtualSize
	if size == 0 {
		size = s.SizeOfRawData
	}
	return rva >= s.VirtualAddress && rva < s.VirtualAddress+size
}

// fileOffset translates an RVA known to fall within this section into a
// file offset.
func (s imageSectionHeader) fileOffset(rva uint32) uint32 {
	return (rva - s.VirtualAddress) + s.PointerToRawData
}

// parseSectionHeaders reads the section table, whose file offset and row
// count come from the NT headers already parsed by parseNTHeaders.
func parseSectionHeaders(v byteView, nt ntHeaders, ntHeaderOffset uint32) ([]imageSectionHeader, error) {
	offset := nt.sectionTableOffset(ntHeaderOffset)
	var hdr imageSectionHeader
	rowSize := uint32(binary.Size(hdr))

	sections := make([]imageSectionHeader, 0, nt.fileHeader.NumberOfSections)
	for i := uint16(0); i < nt.fileHeader.NumberOfSections; i++ {
		if err := v.structUnpack(&hdr, offset, rowSize); err != nil {
			return nil, ErrInvalidPE
		}
		sections = append(sections, hdr)
		offset += rowSize
	}
	return sections, nil
}

// rvaToFileOffset walks the section table looking for the section that
// contains rva and translates it to a file offset. Returns ErrInvalidPE if
// no section covers the address, the way a header pointing into a hole in
// the image should be rejected.
func rvaToFileOffset(sections []imageSectionHeader, rva uint32) (uint32, error) {
	for _, s := range sections {
		if s.contains(rva) {
			return s.fileOffset(rva), nil
		}
	}
	return 0, ErrInvalidPE
}
