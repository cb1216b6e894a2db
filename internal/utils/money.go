package utils

import "fmt"

// FormatCents renders an integer cent amount as a decimal string, e.g.
// 12345 -> "123.45". Money never leaves integer representation internally;
// this is for notes and messages only.
func FormatCents(cents int32) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// SplitProportionally divides totalCents across weights, rounding each share
// to the nearest cent. The last non-zero weight absorbs the rounding
// remainder so that the shares always sum exactly to totalCents.
//
// A zero-sum weight slice yields all-zero shares.
func SplitProportionally(totalCents int32, weights []int32) []int32 {
	shares := make([]int32, len(weights))

	var weightSum int64
	for _, w := range weights {
		weightSum += int64(w)
	}
	if weightSum <= 0 || totalCents <= 0 {
		return shares
	}

	last := -1
	for i, w := range weights {
		if w > 0 {
			last = i
		}
	}

	var allocated int32
	for i, w := range weights {
		if w <= 0 || i == last {
			continue
		}
		// Round half up in int64 space to avoid overflow on the product.
		share := (int64(totalCents)*int64(w) + weightSum/2) / weightSum
		shares[i] = int32(share)
		allocated += int32(share)
	}
	shares[last] = totalCents - allocated

	return shares
}
