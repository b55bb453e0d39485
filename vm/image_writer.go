package vm

import "errors"

// ErrTooManyConstants is returned by AddConst once the constant pool
// holds ConstIdSize words, and by Bytes when the pool's word count does
// not fit the 16-bit field in the image header.
var ErrTooManyConstants = errors.New("vm: constant pool too large for image header")

// ErrExecutableTooBig is returned by Bytes when a command's name is
// longer than CommandNameSize bytes.
var ErrExecutableTooBig = errors.New("vm: executable image too big")

// ErrDuplicateCommand is returned when two commands share a name.
var ErrDuplicateCommand = errors.New("vm: duplicate command name")

// Command pairs a name with the code offsets of its init and loop
// routines and its declared parameter byte count, as recorded by the
// compiler and later serialized into the command table.
type Command struct {
	Name       string
	ParamCount uint8
	InitOffset uint16
	LoopOffset uint16
}

// ImageWriter assembles the constant pool, command table and code bytes
// produced by the compiler into a single executable image.
type ImageWriter struct {
	ConstPool  []uint32
	GlobalSize uint16
	StackSize  uint16
	Commands   []Command
	Code       []byte
}

// AddConst appends a 32-bit word to the constant pool and returns its
// id, or ErrTooManyConstants if the pool is full.
func (w *ImageWriter) AddConst(word uint32) (uint8, error) {
	if len(w.ConstPool) >= ConstIdSize {
		return 0, ErrTooManyConstants
	}
	id := uint8(len(w.ConstPool))
	w.ConstPool = append(w.ConstPool, word)
	return id, nil
}

// AddCommand appends a command-table entry, rejecting duplicate names.
func (w *ImageWriter) AddCommand(cmd Command) error {
	for _, existing := range w.Commands {
		if existing.Name == cmd.Name {
			return ErrDuplicateCommand
		}
	}
	w.Commands = append(w.Commands, cmd)
	return nil
}

// Bytes serializes the accumulated state into a complete image per the
// layout in the binary contract: magic, header, constant pool, command
// table (0x00-terminated), then code.
func (w *ImageWriter) Bytes() ([]byte, error) {
	if len(w.ConstPool) > 0xffff {
		return nil, ErrTooManyConstants
	}

	header := EncodeHeader(Header{
		ConstSize:  uint16(len(w.ConstPool)),
		GlobalSize: w.GlobalSize,
		StackSize:  w.StackSize,
	})

	buf := make([]byte, 0, HeaderSize+4*len(w.ConstPool)+CommandEntrySize*(len(w.Commands)+1)+len(w.Code))
	buf = append(buf, header[:]...)

	for _, word := range w.ConstPool {
		buf = append(buf, byte(word), byte(word>>8), byte(word>>16), byte(word>>24))
	}

	for _, cmd := range w.Commands {
		if len(cmd.Name) > CommandNameSize {
			return nil, ErrExecutableTooBig
		}
		entry := EncodeCommandEntry(CommandEntry{
			Name:       cmd.Name,
			ParamCount: cmd.ParamCount,
			InitOffset: cmd.InitOffset,
			LoopOffset: cmd.LoopOffset,
		})
		buf = append(buf, entry[:]...)
	}
	// terminator: a single zero byte where a name would start
	buf = append(buf, 0)

	buf = append(buf, w.Code...)
	return buf, nil
}

// CodeBase returns the offset of the first code byte within an image
// produced with the same commands and constant pool as w, i.e. the
// origin for every internal code address.
func (w *ImageWriter) CodeBase() int {
	return HeaderSize + 4*len(w.ConstPool) + CommandEntrySize*len(w.Commands) + 1
}
