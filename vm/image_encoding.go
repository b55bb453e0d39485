package vm

import "encoding/binary"

// ImageMagic is the required first four bytes of every executable image.
var ImageMagic = [4]byte{'a', 'r', 'l', 'y'}

// HeaderSize is the number of bytes in the fixed image header (magic
// plus the three u16 size fields), before the constant pool begins.
const HeaderSize = 10

// CommandEntrySize is the width in bytes of one command-table entry.
const CommandEntrySize = 12

// CommandNameSize is the number of bytes reserved for a command's name
// within its table entry, zero-padded if shorter.
const CommandNameSize = 7

// Header is the decoded form of an image's fixed-size preamble.
type Header struct {
	ConstSize  uint16 // constant pool size, in 4-byte words
	GlobalSize uint16 // global RAM size, in 4-byte words
	StackSize  uint16 // operand stack size, in 4-byte words
}

// EncodeHeader renders h, including the magic, into HeaderSize bytes.
func EncodeHeader(h Header) [HeaderSize]byte {
	var buf [HeaderSize]byte
	copy(buf[0:4], ImageMagic[:])
	binary.LittleEndian.PutUint16(buf[4:6], h.ConstSize)
	binary.LittleEndian.PutUint16(buf[6:8], h.GlobalSize)
	binary.LittleEndian.PutUint16(buf[8:10], h.StackSize)
	return buf
}

// DecodeHeader parses a HeaderSize-byte preamble, verifying the magic.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, ErrImageTruncated
	}
	var magic [4]byte
	copy(magic[:], buf[0:4])
	if magic != ImageMagic {
		return Header{}, ErrBadMagic
	}
	return Header{
		ConstSize:  binary.LittleEndian.Uint16(buf[4:6]),
		GlobalSize: binary.LittleEndian.Uint16(buf[6:8]),
		StackSize:  binary.LittleEndian.Uint16(buf[8:10]),
	}, nil
}

// CommandEntry is the decoded form of one 12-byte command-table row.
type CommandEntry struct {
	Name       string
	ParamCount uint8
	InitOffset uint16 // relative to the code base
	LoopOffset uint16 // relative to the code base
}

// EncodeCommandEntry renders e into CommandEntrySize bytes. The name is
// truncated (callers must validate length beforehand) and zero-padded.
func EncodeCommandEntry(e CommandEntry) [CommandEntrySize]byte {
	var buf [CommandEntrySize]byte
	n := copy(buf[0:CommandNameSize], e.Name)
	for ; n < CommandNameSize; n++ {
		buf[n] = 0
	}
	buf[7] = e.ParamCount
	binary.LittleEndian.PutUint16(buf[8:10], e.InitOffset)
	binary.LittleEndian.PutUint16(buf[10:12], e.LoopOffset)
	return buf
}

// DecodeCommandEntry parses one CommandEntrySize-byte table row.
func DecodeCommandEntry(buf []byte) (CommandEntry, error) {
	if len(buf) < CommandEntrySize {
		return CommandEntry{}, ErrImageTruncated
	}
	end := 0
	for end < CommandNameSize && buf[end] != 0 {
		end++
	}
	return CommandEntry{
		Name:       string(buf[0:end]),
		ParamCount: buf[7],
		InitOffset: binary.LittleEndian.Uint16(buf[8:10]),
		LoopOffset: binary.LittleEndian.Uint16(buf[10:12]),
	}, nil
}
