package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	mrand "math/rand"
)

// GenerateID returns a random hex string of the given byte length
func GenerateID(byteLen int) string {
	b := make([]byte, byteLen)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// GuestName returns a fallback display name like "Guest4821"
func GuestName() string {
	return fmt.Sprintf("Guest%d", mrand.Intn(9999))
}
