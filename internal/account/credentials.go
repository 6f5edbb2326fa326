// Corsarr - Discord request bot for Radarr, Sonarr, and Jellyfin
// Copyright 2026 Corsarr contributors
// SPDX-License-Identifier: MIT
// https://github.com/corsarr/corsarr

package account

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// passwordAlphabet keeps generated passwords easy to type on TV remotes
// and phone keyboards.
const passwordAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// passwordLength is the generated password length.
const passwordLength = 15

// newUsername derives a short random username. Collisions are
// vanishingly unlikely at this scale; if the server ever rejects one,
// the failure propagates like any other create error and the user
// reissues the command.
func newUsername() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "guest-" + id[:8]
}

// newPassword generates a random password from the lowercase
// alphanumeric alphabet using crypto/rand.
func newPassword() (string, error) {
	var b strings.Builder
	b.Grow(passwordLength)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := 0; i < passwordLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		b.WriteByte(passwordAlphabet[n.Int64()])
	}
	return b.String(), nil
}
