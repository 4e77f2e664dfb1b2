// Package goodrx builds GoodRx price-comparison links.
package goodrx

import (
	"net/url"
	"strings"
)

const baseURL = "https://www.goodrx.com/"

// PriceURL returns the price page for the first word of a medication name.
func PriceURL(medication string) string {
	fields := strings.Fields(strings.ToLower(medication))
	if len(fields) == 0 {
		return baseURL
	}
	return baseURL + url.PathEscape(strings.Trim(fields[0], ".,;:()"))
}
