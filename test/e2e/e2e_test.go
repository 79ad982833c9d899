//go:build e2e

/*
Copyright (c) 2026 GeneClackman
SPDX-License-Identifier: MIT
*/

package e2e

import (
	"fmt"
	"os/exec"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const namespace = "cellforge-system"

var _ = Describe("controller", Ordered, func() {
	BeforeAll(func() {
		By("creating manager namespace")
		cmd := exec.Command("kubectl", "create", "ns", namespace)
		_, _ = run(cmd)

		By("installing CRDs")
		cmd = exec.Command("make", "install")
		_, err := run(cmd)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		By("removing manager namespace")
		cmd := exec.Command("kubectl", "delete", "ns", namespace)
		_, _ = run(cmd)
	})

	Context("Operator", func() {
		It("should run successfully", func() {
			var controllerPodName string
			var err error

			var projectimage = "example.com/cellforge:v0.0.1"

			By("building the manager image")
			cmd := exec.Command("make", "docker-build", fmt.Sprintf("IMG=%s", projectimage))
			_, err = run(cmd)
			ExpectWithOffset(1, err).NotTo(HaveOccurred())

			By("deploying the controller-manager")
			cmd = exec.Command("make", "deploy", fmt.Sprintf("IMG=%s", projectimage))
			_, err = run(cmd)
			ExpectWithOffset(1, err).NotTo(HaveOccurred())

			By("validating that the controller-manager pod is running as expected")
			verifyControllerUp := func() error {
				cmd = exec.Command("kubectl", "get",
					"pods", "-l", "control-plane=controller-manager",
					"-o", "go-template={{ range .items }}"+
						"{{ if not .metadata.deletionTimestamp }}"+
						"{{ .metadata.name }}"+
						"{{ \"\\n\" }}{{ end }}{{ end }}",
					"-n", namespace,
				)

				podOutput, err := run(cmd)
				ExpectWithOffset(2, err).NotTo(HaveOccurred())
				podNames := nonEmptyLines(string(podOutput))
				if len(podNames) != 1 {
					return fmt.Errorf("expect 1 controller pod running, but got %d", len(podNames))
				}
				controllerPodName = podNames[0]
				ExpectWithOffset(2, controllerPodName).Should(ContainSubstring("controller-manager"))

				cmd = exec.Command("kubectl", "get",
					"pods", controllerPodName, "-o", "jsonpath={.status.phase}",
					"-n", namespace,
				)
				status, err := run(cmd)
				ExpectWithOffset(2, err).NotTo(HaveOccurred())
				if string(status) != "Running" {
					return fmt.Errorf("controller pod in %s status", status)
				}
				return nil
			}
			EventuallyWithOffset(1, verifyControllerUp, time.Minute, time.Second).Should(Succeed())
		})
	})

	Context("Cell lifecycle", func() {
		It("should run a standalone cell to completion in echo mode", func() {
			By("creating a standalone Cell")
			cmd := exec.Command("kubectl", "apply", "-f", "-")
			cmd.Stdin = cellManifest("e2e-echo-cell", "open", "")
			_, err := run(cmd)
			Expect(err).NotTo(HaveOccurred())

			By("waiting for the cell to reach a terminal phase")
			verifyCellTerminal := func() error {
				cmd = exec.Command("kubectl", "get", "cell", "e2e-echo-cell",
					"-n", namespace, "-o", "jsonpath={.status.phase}")
				output, err := run(cmd)
				if err != nil {
					return err
				}
				phase := string(output)
				if phase != "Completed" && phase != "Failed" {
					return fmt.Errorf("cell phase is %s, waiting for terminal", phase)
				}
				return nil
			}
			EventuallyWithOffset(1, verifyCellTerminal, 2*time.Minute, 5*time.Second).Should(Succeed())

			By("checking the cell accrued a cost")
			cmd = exec.Command("kubectl", "get", "cell", "e2e-echo-cell",
				"-n", namespace, "-o", "jsonpath={.status.totalCost}")
			output, err := run(cmd)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(output)).NotTo(BeEmpty())

			By("cleaning up")
			cmd = exec.Command("kubectl", "delete", "cell", "e2e-echo-cell", "-n", namespace)
			_, _ = run(cmd)
		})

		It("should deny spawning a child when recursion spawn policy is disabled", func() {
			By("creating a cell with spawning disabled")
			cmd := exec.Command("kubectl", "apply", "-f", "-")
			cmd.Stdin = cellManifest("e2e-locked-cell", "disabled", "")
			_, err := run(cmd)
			Expect(err).NotTo(HaveOccurred())

			By("requesting a spawn via a SpawnRequest")
			cmd = exec.Command("kubectl", "apply", "-f", "-")
			cmd.Stdin = spawnRequestManifest("e2e-locked-spawn", "e2e-locked-cell")
			_, err = run(cmd)
			Expect(err).NotTo(HaveOccurred())

			By("verifying the spawn request is rejected, not materialised as a Cell")
			verifyRejected := func() error {
				cmd = exec.Command("kubectl", "get", "cell", "e2e-locked-spawn-spawn", "-n", namespace)
				if _, err := run(cmd); err == nil {
					return fmt.Errorf("expected spawned cell to not exist")
				}
				return nil
			}
			EventuallyWithOffset(1, verifyRejected, time.Minute, 5*time.Second).Should(Succeed())

			By("cleaning up")
			cmd = exec.Command("kubectl", "delete", "spawnrequest", "e2e-locked-spawn", "-n", namespace)
			_, _ = run(cmd)
			cmd = exec.Command("kubectl", "delete", "cell", "e2e-locked-cell", "-n", namespace)
			_, _ = run(cmd)
		})
	})

	Context("Mission orchestration", func() {
		It("should drive a Mission against an entrypoint Cell through to completion checks", func() {
			By("creating the entrypoint cell and its mission")
			cmd := exec.Command("kubectl", "apply", "-f", "-")
			cmd.Stdin = cellManifest("e2e-mission-cell", "open", "")
			_, err := run(cmd)
			Expect(err).NotTo(HaveOccurred())

			cmd = exec.Command("kubectl", "apply", "-f", "-")
			cmd.Stdin = missionManifest("e2e-mission", "e2e-mission-cell", "summarize the input file")
			_, err = run(cmd)
			Expect(err).NotTo(HaveOccurred())

			By("waiting for the mission to reach a terminal or waiting phase")
			verifyMissionProgress := func() error {
				cmd = exec.Command("kubectl", "get", "mission", "e2e-mission",
					"-n", namespace, "-o", "jsonpath={.status.phase}")
				output, err := run(cmd)
				if err != nil {
					return err
				}
				phase := string(output)
				if phase != "Succeeded" && phase != "Failed" && phase != "Retrying" {
					return fmt.Errorf("mission phase is %s, waiting for progress", phase)
				}
				return nil
			}
			EventuallyWithOffset(1, verifyMissionProgress, 5*time.Minute, 10*time.Second).Should(Succeed())

			By("cleaning up")
			cmd = exec.Command("kubectl", "delete", "mission", "e2e-mission", "-n", namespace)
			_, _ = run(cmd)
			cmd = exec.Command("kubectl", "delete", "cell", "e2e-mission-cell", "-n", namespace)
			_, _ = run(cmd)
		})
	})
})

// run executes cmd and returns its combined output, printing the command
// line to the Ginkgo writer for diagnosability on failure.
func run(cmd *exec.Cmd) ([]byte, error) {
	GinkgoWriter.Printf("running: %s\n", strings.Join(cmd.Args, " "))
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s failed with error %w: %s", strings.Join(cmd.Args, " "), err, string(output))
	}
	return output, nil
}

func nonEmptyLines(output string) []string {
	var lines []string
	for _, line := range strings.Split(output, "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func cellManifest(name, spawnPolicy, parentRef string) *strings.Reader {
	parentLine := ""
	if parentRef != "" {
		parentLine = fmt.Sprintf("  parentRef: %s\n", parentRef)
	}
	manifest := fmt.Sprintf(`apiVersion: cellforge.io/v1alpha1
kind: Cell
metadata:
  name: %s
  namespace: %s
spec:
%s  mind:
    provider: echo
    model: echo-1
    systemPrompt: "you are a test cell"
  recursion:
    maxDepth: 3
    maxDescendants: 5
    spawnPolicy: %s
  resources:
    maxCostPerHour: "1.00"
    maxTotalCost: "5.00"
`, name, namespace, parentLine, spawnPolicy)
	return strings.NewReader(manifest)
}

func spawnRequestManifest(name, requestor string) *strings.Reader {
	manifest := fmt.Sprintf(`apiVersion: cellforge.io/v1alpha1
kind: SpawnRequest
metadata:
  name: %s
  namespace: %s
spec:
  requestorCellID: %s
  reason: "e2e recursion-denial check"
  requestedSpec:
    mind:
      provider: echo
      model: echo-1
    recursion:
      maxDepth: 3
      maxDescendants: 5
      spawnPolicy: open
`, name, namespace, requestor)
	return strings.NewReader(manifest)
}

func missionManifest(name, cellRef, objective string) *strings.Reader {
	manifest := fmt.Sprintf(`apiVersion: cellforge.io/v1alpha1
kind: Mission
metadata:
  name: %s
  namespace: %s
spec:
  cellRef: %s
  objective: "%s"
  entrypoint:
    cell: %s
    message: "%s"
  completion:
    checks:
      - name: response
        type: nonEmpty
`, name, namespace, cellRef, objective, cellRef, objective)
	return strings.NewReader(manifest)
}
