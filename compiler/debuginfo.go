package compiler

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var debugEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("compiler: failed to create CBOR enc mode: %v", err))
	}
	debugEncMode = em
}

// MarshalAnnotations serializes a Result's line annotations to CBOR, for
// a sidecar debug-info file shipped alongside an image that has had its
// annotations stripped (the image itself carries none; Decompile needs
// them passed in separately).
func MarshalAnnotations(annotations []Annotation) ([]byte, error) {
	return debugEncMode.Marshal(annotations)
}

// UnmarshalAnnotations deserializes a sidecar debug-info blob produced
// by MarshalAnnotations.
func UnmarshalAnnotations(data []byte) ([]Annotation, error) {
	var annotations []Annotation
	if err := cbor.Unmarshal(data, &annotations); err != nil {
		return nil, fmt.Errorf("compiler: unmarshal annotations: %w", err)
	}
	return annotations, nil
}
