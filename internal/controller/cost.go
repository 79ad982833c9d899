/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package controller

import "strconv"

// parseFloatOrZero parses a cost string tolerantly: a malformed or empty
// value is never fatal to a reconcile, it just contributes zero to a
// rollup.
func parseFloatOrZero(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// formatCost renders a rolled-up cost the same way status.totalCost/
// status.cost fields are declared across the API: a plain base-10 USD
// string, not scientific notation.
func formatCost(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
