// Package gameid generates sortable identifiers for games and archive
// records: a UUIDv7 rendered as 26 characters of Crockford base32.
package gameid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length is the number of characters in a generated ID
const Length = 26

// Generate returns a new time-ordered ID
func Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the system random source does
		id = uuid.New()
	}
	return Encode(id)
}

// Encode renders a UUID as 26 base32 characters. The 128 bits are read as a
// single big-endian number padded with two leading zero bits.
func Encode(id uuid.UUID) string {
	var out [Length]byte
	var acc uint32
	bits := 2 // leading pad bits
	pos := 0
	for _, b := range id {
		acc = acc<<8 | uint32(b)
		bits += 8
		for bits >= 5 {
			bits -= 5
			out[pos] = alphabet[(acc>>uint(bits))&0x1f]
			pos++
		}
	}
	return string(out[:])
}

// Decode parses an ID produced by Encode
func Decode(s string) (uuid.UUID, error) {
	if err := Validate(s); err != nil {
		return uuid.Nil, err
	}
	var id uuid.UUID
	var acc uint32
	bits := -2 // drop the pad bits
	pos := 0
	for i := 0; i < len(s); i++ {
		acc = acc<<5 | uint32(strings.IndexByte(alphabet, s[i]))
		bits += 5
		if bits >= 8 {
			bits -= 8
			id[pos] = byte(acc >> uint(bits))
			pos++
		}
	}
	return id, nil
}

// Validate checks that s could have been produced by Generate
func Validate(s string) error {
	if len(s) != Length {
		return fmt.Errorf("game ID must be exactly %d characters, got %d", Length, len(s))
	}
	if s[0] > '7' {
		return fmt.Errorf("game ID first character must be 0-7, got %c", s[0])
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(alphabet, s[i]) < 0 {
			return fmt.Errorf("invalid character %c at position %d", s[i], i)
		}
	}
	return nil
}
