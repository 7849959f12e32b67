package domain

import (
	"math/rand"
	"regexp"
)

// CodeAlphabet excludes visually ambiguous glyphs: no I/O (confusable with
// 1/0) and no 0/1 themselves.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the fixed length of a generated room code.
const CodeLength = 6

// RoomCode is a 6-character human-shareable room identifier.
type RoomCode string

var codePattern = regexp.MustCompile(`^[ABCDEFGHJKLMNPQRSTUVWXYZ23456789]{6}$`)

// Valid reports whether c matches the room-code alphabet and length. It does
// not check whether the code is registered.
func (c RoomCode) Valid() bool {
	return codePattern.MatchString(string(c))
}

// DrawCode returns a uniformly random RoomCode over CodeAlphabet. Callers
// that need uniqueness (the registry) must retry on collision themselves;
// this is a pure draw with no notion of what codes are already taken.
func DrawCode(rng *rand.Rand) RoomCode {
	buf := make([]byte, CodeLength)
	for i := range buf {
		buf[i] = CodeAlphabet[rng.Intn(len(CodeAlphabet))]
	}
	return RoomCode(buf)
}
