package vm

import "testing"

func TestDecodeImageTruncatedConstPool(t *testing.T) {
	h := EncodeHeader(Header{ConstSize: 2, GlobalSize: 0, StackSize: 0})
	_, err := DecodeImage(h[:])
	if err != ErrImageTruncated {
		t.Fatalf("DecodeImage() = %v, want ErrImageTruncated", err)
	}
}

func TestDecodeImageTruncatedCommandTable(t *testing.T) {
	h := EncodeHeader(Header{})
	data := append(h[:], 'b') // a non-zero name byte but no full entry follows
	_, err := DecodeImage(data)
	if err != ErrImageTruncated {
		t.Fatalf("DecodeImage() = %v, want ErrImageTruncated", err)
	}
}

func TestDecodeImageFindCommand(t *testing.T) {
	w := &ImageWriter{Code: []byte{byte(OpReturn)}}
	if err := w.AddCommand(Command{Name: "a", ParamCount: 0}); err != nil {
		t.Fatalf("AddCommand: %v", err)
	}
	if err := w.AddCommand(Command{Name: "b", ParamCount: 1, InitOffset: 1}); err != nil {
		t.Fatalf("AddCommand: %v", err)
	}
	data, err := w.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	img, err := DecodeImage(data)
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}

	entry, ok := img.FindCommand("b")
	if !ok {
		t.Fatalf("FindCommand(\"b\") not found")
	}
	if entry.ParamCount != 1 || entry.InitOffset != 1 {
		t.Fatalf("FindCommand(\"b\") = %+v, unexpected", entry)
	}

	if _, ok := img.FindCommand("missing"); ok {
		t.Fatalf("FindCommand(\"missing\") unexpectedly found")
	}
}
