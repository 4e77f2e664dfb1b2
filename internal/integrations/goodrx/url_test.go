package goodrx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPriceURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Ibuprofen", "https://www.goodrx.com/ibuprofen"},
		{"Amoxicillin 500mg capsules", "https://www.goodrx.com/amoxicillin"},
		{"  Hydrocortisone cream", "https://www.goodrx.com/hydrocortisone"},
		{"Tylenol,", "https://www.goodrx.com/tylenol"},
		{"", "https://www.goodrx.com/"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, PriceURL(tc.in), "in=%q", tc.in)
	}
}
