package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	inviteCodePrefix  = "SPLIT-"
	inviteCodeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	inviteCodeDigits  = "0123456789"
)

// GenerateInviteCode builds a code like SPLIT-ABC123. Uniqueness is the
// caller's concern; regenerate on collision.
func GenerateInviteCode() string {
	code := make([]byte, 0, len(inviteCodePrefix)+6)
	code = append(code, inviteCodePrefix...)
	for i := 0; i < 3; i++ {
		code = append(code, inviteCodeLetters[randIndex(len(inviteCodeLetters))])
	}
	for i := 0; i < 3; i++ {
		code = append(code, inviteCodeDigits[randIndex(len(inviteCodeDigits))])
	}
	return string(code)
}

func randIndex(n int) int {
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand only fails if the platform source is broken
		panic(fmt.Sprintf("invite code generation: %v", err))
	}
	return int(idx.Int64())
}
