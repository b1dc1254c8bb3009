package profile

import (
	"strings"

	"github.com/hackgods/telehealth-social/internal/apperr"
)

var ErrInvalidCPF = apperr.New(apperr.InvalidInput, "invalid CPF format")

// NormalizeCPF drops every non digit, so "111.444.777-35" becomes "11144477735".
func NormalizeCPF(raw string) string {
	var b strings.Builder
	b.Grow(11)
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateCPF returns the normalized CPF or ErrInvalidCPF.
func ValidateCPF(raw string) (string, error) {
	cpf := NormalizeCPF(raw)
	if len(cpf) != 11 || allSame(cpf) {
		return "", ErrInvalidCPF
	}

	d := make([]int, 11)
	for i := range cpf {
		d[i] = int(cpf[i] - '0')
	}

	if checkDigit(d[:9]) != d[9] || checkDigit(d[:10]) != d[10] {
		return "", ErrInvalidCPF
	}
	return cpf, nil
}

func IsValidCPF(raw string) bool {
	_, err := ValidateCPF(raw)
	return err == nil
}

// checkDigit weighs digits from len+1 down to 2.
func checkDigit(digits []int) int {
	sum := 0
	weight := len(digits) + 1
	for _, v := range digits {
		sum += v * weight
		weight--
	}
	rem := (sum * 10) % 11
	if rem == 10 || rem == 11 {
		return 0
	}
	return rem
}

func allSame(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}
