// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

import "encoding/binary"

// coffFileHeader is the IMAGE_FILE_HEADER that immediately follows the PE
// signature.
type coffFileHeader struct {
	Machine              uint16
	NumberOfSections     uint16
	TimeDateStamp        uint32
	PointerToSymbolTable uint32
	NumberOfSymbols      uint32
	SizeOfOptionalHeader uint16
	Characteristics      uint16
}

// imageDataDirectory is one entry of the optional header's 16-slot data
// directory array.
type imageDataDirectory struct {
	VirtualAddress uint32
	Size           uint32
}

// optionalHeader32 is the subset of IMAGE_OPTIONAL_HEADER (PE32) needed to
// reach the data directories; every preceding field is still declared so
// binary.Read decodes the correct byte layout.
type optionalHeader32 struct {
	Magic                       uint16
	MajorLinkerVersion          uint8
	MinorLinkerVersion          uint8
	SizeOfCode                  uint32
	SizeOfInitializedData       uint32
	SizeOfUninitializedData     uint32
	AddressOfEntryPoint         uint32
	BaseOfCode                  uint32
	BaseOfData                  uint32
	ImageBase                   uint32
	SectionAlignment            uint32
	FileAlignment               uint32
	MajorOperatingSystemVersion uint16
	MinorOperatingSystemVersion uint16
	MajorImageVersion           uint16
	MinorImageVersion           uint16
	MajorSubsystemVersion       uint16
	MinorSubsystemVersion       uint16
	Win32VersionValue           uint32
	SizeOfImage                 uint32
	SizeOfHeaders               uint32
	CheckSum                    uint32
	Subsystem                   uint16
	DllCharacteristics          uint16
	SizeOfStackReserve          uint32
	SizeOfStackCommit           uint32
	SizeOfHeapReserve           uint32
	SizeOfHeapCommit            uint32
	LoaderFlags                 uint32
	NumberOfRvaAndSizes         uint32
	DataDirectory               [imageNumberOfDirectoryEntries]imageDataDirectory
}

// optionalHeader64 is the PE32+ counterpart of optionalHeader32.
type optionalHeader64 struct {
	Magic                       uint16
	MajorLinkerVersion          uint8
	MinorLinkerVersion          uint8
	SizeOfCode                  uint32
	SizeOfInitializedData       uint32
	SizeOfUninitializedData     uint32
	AddressOfEntryPoint         uint32
	BaseOfCode                  uint32
	ImageBase                   uint64
	SectionAlignment            uint32
	FileAlignment               uint32
	MajorOperatingSystemVersion uint16
	MinorOperatingSystemVersion uint16
	MajorImageVersion           uint16
	MinorImageVersion           uint16
	MajorSubsystemVersion       uint16
	MinorSubsystemVersion       uint16
	Win32VersionValue           uint32
	SizeOfImage                 uint32
	SizeOfHeaders               uint32
	CheckSum                    uint32
	Subsystem                   uint16
	DllCharacteristics          uint16
	SizeOfStackReserve          uint64
	SizeOfStackCommit           uint64
	SizeOfHeapReserve           uint64
	SizeOfHeapCommit            uint64
	LoaderFlags                 uint32
	NumberOfRvaAndSizes         uint32
	DataDirectory               [imageNumberOfDirectoryEntries]imageDataDirectory
}

// ntHeaders holds what the locator needs out of IMAGE_NT_HEADERS: the COFF
// file header and the data directory array, normalized regardless of
// whether the image was PE32 or PE32+.
type ntHeaders struct {
	fileHeader    coffFileHeader
	dataDirectory [imageNumberOfDirectoryEntries]imageDataDirectory
	optHeaderSize uint32
}

// parseNTHeaders reads the PE signature, COFF file header, and optional
// header (PE32 or PE32+), returning the normalized data directory array
// spec.md §4.1 steps 1-2 describe. ntHeaderOffset is e_lfanew.
func parseNTHeaders(v byteView, ntHeaderOffset uint32) (ntHeaders, error) {
	var nt ntHeaders

	signature, err := v.readUint32(ntHeaderOffset)
	if err != nil {
		return nt, ErrInvalidPE
	}
	switch signature & 0xFFFF {
	case imageOS2Signature, imageOS2LESignature, imageVXDSignature, imageTESignature:
		return nt, ErrInvalidPE
	}
	if signature != imageNTSignature {
		return nt, ErrInvalidPE
	}

	fileHeaderOffset := ntHeaderOffset + 4
	fileHeaderSize := uint32(binary.Size(nt.fileHeader))
	if err := v.structUnpack(&nt.fileHeader, fileHeaderOffset, fileHeaderSize); err != nil {
		return nt, ErrInvalidPE
	}

	// Section count must be sane; spec.md §4.1 step 2 bounds it to [1, 100].
	if nt.fileHeader.NumberOfSections < 1 || nt.fileHeader.NumberOfSections > 100 {
		return nt, ErrInvalidPE
	}

	optHeaderOffset := fileHeaderOffset + fileHeaderSize
	magic, err := v.readUint16(optHeaderOffset)
	if err != nil {
		return nt, ErrInvalidPE
	}

	switch magic {
	case imageNtOptionalHeader64Magic:
		var oh optionalHeader64
		size := uint32(binary.Size(oh))
		if err := v.structUnpack(&oh, optHeaderOffset, size); err != nil {
			return nt, ErrInvalidPE
		}
		nt.dataDirectory = oh.DataDirectory
		nt.optHeaderSize = size
	case imageNtOptionalHeader32Magic:
		var oh optionalHeader32
		size := uint32(binary.Size(oh))
		if err := v.structUnpack(&oh, optHeaderOffset, size); err != nil {
			return nt, ErrInvalidPE
		}
		nt.dataDirectory = oh.DataDirectory
		nt.optHeaderSize = size
	default:
		return nt, ErrInvalidPE
	}

	return nt, nil
}

// sectionTableOffset returns the file offset of the first section header,
// immediately following the optional header.
func (nt ntHeaders) sectionTableOffset(ntHeaderOffset uint32) uint32 {
	fileHeaderSize := uint32(binary.Size(nt.fileHeader))
	return ntHeaderOffset + 4 + fileHeaderSize + nt.optHeaderSize
}
