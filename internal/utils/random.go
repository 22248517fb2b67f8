package utils

import "math/rand"

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// RandomID returns n random lowercase alphanumeric characters. Used for
// locally-unique identifiers (project ids, slug suffixes), not for secrets.
func RandomID(n int) string {
	b := make([]byte, n)

	for i := range b {
		b[i] = idAlphabet[rand.Intn(len(idAlphabet))]
	}

	return string(b)
}
