/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package controller

import (
	"encoding/json"
	"reflect"
)

// specChanged reports whether embeddedSpecJSON (the CELLFORGE_CELL_SPEC env
// var read back from a running workload) differs structurally from the
// Cell's current spec. Comparison is key-order independent: both sides are
// unmarshaled into generic maps and compared with reflect.DeepEqual, rather
// than compared as strings, so it holds for arbitrary nested structure
// rather than just a flat set of fields. A missing or unparseable embedded
// spec always counts as changed, since there is nothing to trust.
func specChanged(currentSpec interface{}, embeddedSpecJSON string) bool {
	if embeddedSpecJSON == "" {
		return true
	}

	currentJSON, err := json.Marshal(currentSpec)
	if err != nil {
		return true
	}

	var current, embedded map[string]interface{}
	if err := json.Unmarshal(currentJSON, &current); err != nil {
		return true
	}
	if err := json.Unmarshal([]byte(embeddedSpecJSON), &embedded); err != nil {
		return true
	}

	return !reflect.DeepEqual(current, embedded)
}
