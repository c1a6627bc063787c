// Package accountcodec decodes raw account buffers into typed values.
//
// Programs on the ledger serialize account state under one of three
// conventions: an 8-byte discriminator tag followed by a borsh body, plain
// self-describing borsh, or a fixed-offset packed layout. The raw bytes do
// not identify which convention is in use, so the caller always states the
// expected encoding; the codec classifies failures instead of returning
// zeroed or partial data.
package accountcodec

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// DiscriminatorLen is the width of the leading tag in tagged account data.
const DiscriminatorLen = 8

var (
	// ErrSchemaMismatch is returned when a tagged buffer's discriminator
	// does not match the expected tag.
	ErrSchemaMismatch = errors.New("account discriminator mismatch")

	// ErrMalformed is returned when a buffer cannot be deserialized
	// (truncated or inconsistent length fields).
	ErrMalformed = errors.New("malformed account data")

	// ErrTooShort is returned when a buffer is smaller than the minimum
	// its encoding requires.
	ErrTooShort = errors.New("account data too short")
)

// Discriminator derives the 8-byte tag for a named account type, following
// the sha256("account:<Name>") convention.
func Discriminator(name string) [DiscriminatorLen]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var tag [DiscriminatorLen]byte
	copy(tag[:], sum[:DiscriminatorLen])
	return tag
}

// DecodeTagged verifies that data begins with the expected discriminator
// and borsh-decodes the remainder into out.
func DecodeTagged(data []byte, want [DiscriminatorLen]byte, out interface{}) error {
	if len(data) < DiscriminatorLen {
		return fmt.Errorf("%w: %d bytes, need at least %d", ErrTooShort, len(data), DiscriminatorLen)
	}
	if !bytes.Equal(data[:DiscriminatorLen], want[:]) {
		return fmt.Errorf("%w: got %x, want %x", ErrSchemaMismatch, data[:DiscriminatorLen], want)
	}
	return DecodeBorsh(data[DiscriminatorLen:], out)
}

// DecodeBorsh decodes a self-describing borsh buffer into out.
func DecodeBorsh(data []byte, out interface{}) error {
	if err := bin.NewBorshDecoder(data).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// DecodePacked interprets data as a fixed-offset packed structure. The
// caller supplies the layout's total size; fields are read at their declared
// offsets in little-endian order.
func DecodePacked(data []byte, packedLen int, out interface{}) error {
	if packedLen <= 0 {
		return fmt.Errorf("%w: invalid packed length %d", ErrMalformed, packedLen)
	}
	if len(data) < packedLen {
		return fmt.Errorf("%w: %d bytes, layout needs %d", ErrTooShort, len(data), packedLen)
	}
	if err := bin.NewBinDecoder(data[:packedLen]).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
