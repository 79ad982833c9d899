/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package cmd

import (
	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
)

// missionOutput returns the output of the mission's entrypoint completion
// check (named "response" by convention, matching the gateway's check
// naming), falling back to the mission's status message.
func missionOutput(m *cellforgev1alpha1.Mission) string {
	for _, c := range m.Status.Checks {
		if c.Name == "response" && c.Output != "" {
			return c.Output
		}
	}
	return m.Status.Message
}

func isTerminalMissionPhase(phase cellforgev1alpha1.MissionPhase) bool {
	switch phase {
	case cellforgev1alpha1.MissionPhaseSucceeded, cellforgev1alpha1.MissionPhaseFailed:
		return true
	default:
		return false
	}
}
