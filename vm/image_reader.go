package vm

import "errors"

// ErrImageTruncated is returned when an image ends before a fixed-size
// field it was expected to contain.
var ErrImageTruncated = errors.New("vm: image truncated")

// ErrBadMagic is returned when an image does not begin with the 'arly'
// signature.
var ErrBadMagic = errors.New("vm: bad image magic")

// Image is the fully decoded, structured form of an executable image,
// as consumed by the decompiler and by tests that want to inspect a
// compiled program without driving it through the VM.
type Image struct {
	Header   Header
	Consts   []uint32
	Commands []CommandEntry
	CodeBase int
	Code     []byte
}

// DecodeImage parses a complete image byte slice.
func DecodeImage(data []byte) (*Image, error) {
	hdr, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}

	off := HeaderSize
	consts := make([]uint32, hdr.ConstSize)
	for i := range consts {
		if off+4 > len(data) {
			return nil, ErrImageTruncated
		}
		consts[i] = uint32(data[off]) | uint32(data[off+1])<<8 | uint32(data[off+2])<<16 | uint32(data[off+3])<<24
		off += 4
	}

	var commands []CommandEntry
	for {
		if off >= len(data) {
			return nil, ErrImageTruncated
		}
		if data[off] == 0 {
			off++
			break
		}
		entry, err := DecodeCommandEntry(data[off:])
		if err != nil {
			return nil, err
		}
		commands = append(commands, entry)
		off += CommandEntrySize
	}

	return &Image{
		Header:   hdr,
		Consts:   consts,
		Commands: commands,
		CodeBase: off,
		Code:     data[off:],
	}, nil
}

// FindCommand looks up a command by name.
func (img *Image) FindCommand(name string) (CommandEntry, bool) {
	for _, cmd := range img.Commands {
		if cmd.Name == name {
			return cmd, true
		}
	}
	return CommandEntry{}, false
}
