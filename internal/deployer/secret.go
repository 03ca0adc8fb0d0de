// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package deployer

import (
	"math/rand"

	"github.com/juju/utils/v4"
)

// randomSecret returns a random alphanumeric secret of the given
// length, containing at least one each of lower-alpha, upper-alpha,
// and digit.
func randomSecret(length int) string {
	if length < 4 {
		length = 4
	}
	validRunes := append(utils.LowerAlpha, utils.Digits...)
	validRunes = append(validRunes, utils.UpperAlpha...)

	quarter := length / 4
	lowerAlpha := utils.RandomString(quarter, utils.LowerAlpha)
	upperAlpha := utils.RandomString(quarter, utils.UpperAlpha)
	digits := utils.RandomString(quarter, utils.Digits)
	mixed := utils.RandomString(length-3*quarter, validRunes)
	secret := []rune(lowerAlpha + upperAlpha + digits + mixed)
	for i := len(secret) - 1; i >= 1; i-- {
		j := rand.Intn(i + 1)
		secret[i], secret[j] = secret[j], secret[i]
	}
	return string(secret)
}
