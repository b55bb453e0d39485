package vm

import "testing"

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{ConstSize: 3, GlobalSize: 10, StackSize: 64}
	buf := EncodeHeader(h)
	got, err := DecodeHeader(buf[:])
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if got != h {
		t.Fatalf("DecodeHeader() = %+v, want %+v", got, h)
	}
}

func TestDecodeHeaderBadMagic(t *testing.T) {
	buf := EncodeHeader(Header{})
	buf[0] = 'x'
	_, err := DecodeHeader(buf[:])
	if err != ErrBadMagic {
		t.Fatalf("DecodeHeader() err = %v, want ErrBadMagic", err)
	}
}

func TestDecodeHeaderTruncated(t *testing.T) {
	_, err := DecodeHeader([]byte{'a', 'r', 'l'})
	if err != ErrImageTruncated {
		t.Fatalf("DecodeHeader() err = %v, want ErrImageTruncated", err)
	}
}

func TestCommandEntryRoundTrip(t *testing.T) {
	e := CommandEntry{Name: "blink", ParamCount: 2, InitOffset: 5, LoopOffset: 42}
	buf := EncodeCommandEntry(e)
	got, err := DecodeCommandEntry(buf[:])
	if err != nil {
		t.Fatalf("DecodeCommandEntry: %v", err)
	}
	if got != e {
		t.Fatalf("DecodeCommandEntry() = %+v, want %+v", got, e)
	}
}

func TestCommandEntryNamePadding(t *testing.T) {
	e := CommandEntry{Name: "go", ParamCount: 0}
	buf := EncodeCommandEntry(e)
	for i := 2; i < CommandNameSize; i++ {
		if buf[i] != 0 {
			t.Fatalf("buf[%d] = %d, want 0 padding", i, buf[i])
		}
	}
}
