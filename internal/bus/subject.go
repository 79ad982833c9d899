/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package bus implements the subject-addressed message bus surface: pattern
// matching, the wire envelope, and a NATS-backed client satisfying it.
package bus

import "strings"

// Match reports whether subject matches pattern under the dot-delimited
// wildcard grammar: "*" matches exactly one token, ">" matches one-or-more
// trailing tokens and must be the final pattern token. A pattern without
// wildcards requires equal token count and per-token equality.
func Match(pattern, subject string) bool {
	pTokens := strings.Split(pattern, ".")
	sTokens := strings.Split(subject, ".")

	for i, pt := range pTokens {
		if pt == ">" {
			// ">" must be the final token and must consume at least one
			// remaining subject token.
			return i == len(pTokens)-1 && i < len(sTokens)
		}
		if i >= len(sTokens) {
			return false
		}
		if pt == "*" {
			continue
		}
		if pt != sTokens[i] {
			return false
		}
	}
	return len(pTokens) == len(sTokens)
}

// MatchAny reports whether subject matches any of patterns.
func MatchAny(patterns []string, subject string) bool {
	for _, p := range patterns {
		if Match(p, subject) {
			return true
		}
	}
	return false
}

// Subjects for the bus as named in the external-interface contract.
func InboxSubject(namespace, cellName string) string {
	return "cell." + namespace + "." + cellName + ".inbox"
}

func OutboxSubject(namespace, cellName string) string {
	return "cell." + namespace + "." + cellName + ".outbox"
}

func EventsSubject(namespace, cellName string) string {
	return "cell.events." + namespace + "." + cellName
}
