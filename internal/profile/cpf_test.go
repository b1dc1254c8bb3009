package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/telehealth-social/internal/apperr"
)

func TestValidateCPF(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		valid bool
	}{
		{name: "formatted valid", input: "111.444.777-35", want: "11144477735", valid: true},
		{name: "digits only", input: "52998224725", want: "52998224725", valid: true},
		{name: "spaces and slashes", input: " 529 982 247/25 ", want: "52998224725", valid: true},
		{name: "repeated digits", input: "111.111.111-11", valid: false},
		{name: "all zeros", input: "000.000.000-00", valid: false},
		{name: "truncated", input: "1114447773", valid: false},
		{name: "too long", input: "111444777350", valid: false},
		{name: "wrong first check digit", input: "111.444.777-45", valid: false},
		{name: "wrong second check digit", input: "111.444.777-36", valid: false},
		{name: "empty", input: "", valid: false},
		{name: "letters only", input: "abc.def.ghi-jk", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateCPF(tt.input)
			if !tt.valid {
				require.Error(t, err)
				assert.True(t, apperr.Is(err, apperr.InvalidInput))
				assert.False(t, IsValidCPF(tt.input))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, IsValidCPF(tt.input))
		})
	}
}

func TestCheckDigitRemainderTenMapsToZero(t *testing.T) {
	// 1,0,0,0,0,0,0,0,1 weighted 10..2 sums to 12; 120 % 11 == 10.
	assert.Equal(t, 0, checkDigit([]int{1, 0, 0, 0, 0, 0, 0, 0, 1}))
}
