/*
Copyright (c) 2026 GeneClackman
SPDX-License-Identifier: MIT
*/

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"sigs.k8s.io/controller-runtime/pkg/client"

	cellforgev1alpha1 "github.com/hortator-ai/cellforge/api/v1alpha1"
)

var (
	watchRefresh string
	watchCell    string
	watchAllNS   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live TUI dashboard of Cells",
	Long: `Launch a full-screen terminal UI showing a live, auto-refreshing
dashboard of Cells with their spawn hierarchy, details, and logs.

Examples:
  cellctl watch
  cellctl watch --refresh 5s
  cellctl watch --cell fix-api-0
  cellctl watch -A`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchRefresh, "refresh", "r", "2s", "Refresh interval (e.g. 2s, 5s)")
	watchCmd.Flags().StringVarP(&watchCell, "cell", "t", "", "Focus on a specific cell and its descendants")
	watchCmd.Flags().BoolVarP(&watchAllNS, "all-namespaces", "A", false, "Watch all namespaces")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dur, err := time.ParseDuration(watchRefresh)
	if err != nil {
		return fmt.Errorf("invalid refresh interval: %w", err)
	}

	ti := textinput.New()
	ti.Placeholder = "namespace..."
	ti.CharLimit = 63

	m := model{
		namespace:  getNamespace(),
		allNS:      watchAllNS,
		focusCell:  watchCell,
		refreshInt: dur,
		k8sClient:  k8sClient,
		clientset:  clientset,
		nsInput:    ti,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// --- Messages ---

type tickMsg struct{}
type cellsMsg struct {
	items []cellItem
	err   error
}
type logsMsg struct {
	lines []string
	err   error
}
type namespacesMsg struct {
	items []string
	err   error
}

// --- Model ---

type model struct {
	cells      []cellItem
	cursor     int
	width      int
	height     int
	namespace  string
	namespaces []string // discovered namespaces for cycling
	nsIndex    int      // current index in namespaces slice
	allNS      bool
	focusCell  string
	refreshInt time.Duration
	k8sClient  client.Client
	clientset  *kubernetes.Clientset
	lastErr    error
	logLines   []string
	showLogs   bool
	showDetail bool

	// Namespace text input mode
	nsInput     textinput.Model
	nsInputMode bool

	// Describe (full spec + status message) view
	showDescribe bool

	// Status summary panel
	showSummary bool
}

type cellItem struct {
	cell   cellforgev1alpha1.Cell
	depth  int
	prefix string
}

// --- Logo ---

const cellforgeLogo = `  ██████╗███████╗██╗     ██╗     ███████╗ ██████╗ ██████╗  ██████╗ ███████╗
 ██╔════╝██╔════╝██║     ██║     ██╔════╝██╔═══██╗██╔══██╗██╔════╝ ██╔════╝
 ██║     █████╗  ██║     ██║     █████╗  ██║   ██║██████╔╝██║  ███╗█████╗
 ██║     ██╔══╝  ██║     ██║     ██╔══╝  ██║   ██║██╔══██╗██║   ██║██╔══╝
 ╚██████╗███████╗███████╗███████╗██║     ╚██████╔╝██║  ██║╚██████╔╝███████╗
  ╚═════╝╚══════╝╚══════╝╚══════╝╚═╝      ╚═════╝ ╚═╝  ╚═╝ ╚═════╝ ╚══════╝`

// --- Styles ---

var (
	styleTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).MarginLeft(1)
	styleSubtle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleFooter = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	styleRunning   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))  // yellow
	styleCompleted = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))  // green
	styleFailed    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))   // red
	stylePending   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // gray
	stylePaused    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))  // cyan

	styleOpen            = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5")) // magenta
	styleApprovalGated   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4")) // blue
	styleSpawnRestricted = lipgloss.NewStyle().Faint(true)

	styleSelected = lipgloss.NewStyle().Background(lipgloss.Color("236")).Foreground(lipgloss.Color("15"))
	styleCostOk   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleCostHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	styleBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("99"))

	styleLogo = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

// --- Tea interface ---

func (m model) Init() tea.Cmd {
	return tea.Batch(fetchCells(m), fetchNamespaces(m), tick(m.refreshInt))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// If namespace input mode is active, delegate to text input
	if m.nsInputMode {
		return m.updateNsInput(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.logLines = nil
			}
		case "down", "j":
			if m.cursor < len(m.cells)-1 {
				m.cursor++
				m.logLines = nil
			}
		case "enter":
			m.showDetail = !m.showDetail
			m.showDescribe = false // close describe when toggling details
		case "l":
			m.showLogs = !m.showLogs
			if m.showLogs && len(m.cells) > 0 {
				return m, fetchLogs(m)
			}
			m.logLines = nil
		case "r":
			return m, fetchCells(m)
		case "n":
			// Open namespace text input
			m.nsInputMode = true
			m.nsInput.SetValue(m.namespace)
			m.nsInput.Focus()
			return m, nil
		case "N":
			// Cycle to previous namespace (quick)
			if len(m.namespaces) > 0 {
				m.nsIndex = (m.nsIndex - 1 + len(m.namespaces)) % len(m.namespaces)
				m.namespace = m.namespaces[m.nsIndex]
				m.allNS = false
				m.cursor = 0
				m.logLines = nil
				return m, fetchCells(m)
			}
		case "A":
			// Toggle all-namespaces
			m.allNS = !m.allNS
			m.cursor = 0
			m.logLines = nil
			return m, fetchCells(m)
		case "D":
			// Toggle describe view (full spec + status message)
			m.showDescribe = !m.showDescribe
		case "S":
			// Toggle status summary panel
			m.showSummary = !m.showSummary
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		return m, tea.Batch(fetchCells(m), tick(m.refreshInt))

	case cellsMsg:
		m.lastErr = msg.err
		if msg.err == nil {
			m.cells = msg.items
			if m.cursor >= len(m.cells) && len(m.cells) > 0 {
				m.cursor = len(m.cells) - 1
			}
		}
		if m.showLogs && len(m.cells) > 0 {
			return m, fetchLogs(m)
		}

	case logsMsg:
		if msg.err == nil {
			m.logLines = msg.lines
		}

	case namespacesMsg:
		if msg.err == nil {
			m.namespaces = msg.items
			// Set nsIndex to current namespace
			for i, ns := range m.namespaces {
				if ns == m.namespace {
					m.nsIndex = i
					break
				}
			}
		}
	}

	return m, nil
}

// updateNsInput handles input while namespace text input is active.
func (m model) updateNsInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			// Accept the input
			ns := strings.TrimSpace(m.nsInput.Value())
			if ns != "" {
				m.namespace = ns
				m.allNS = false
				m.cursor = 0
				m.logLines = nil
			}
			m.nsInputMode = false
			m.nsInput.Blur()
			return m, fetchCells(m)
		case "esc":
			// Cancel
			m.nsInputMode = false
			m.nsInput.Blur()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.nsInput, cmd = m.nsInput.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	contentWidth := m.width - 2
	if contentWidth < 40 {
		contentWidth = 40
	}

	var sections []string

	// --- Header ---
	nsLabel := m.namespace
	if m.allNS {
		nsLabel = "all"
	}
	logo := styleLogo.Render(cellforgeLogo)
	nsLine := styleSubtle.Render(fmt.Sprintf("                        namespace: %s", nsLabel))
	headerContent := lipgloss.JoinVertical(lipgloss.Left, logo, nsLine)
	headerBox := styleBorder.Width(contentWidth).Render(headerContent)
	sections = append(sections, headerBox)

	// --- Error ---
	if m.lastErr != nil {
		errBox := styleBorder.
			Width(contentWidth).
			BorderForeground(lipgloss.Color("9")).
			Render(fmt.Sprintf("  Error: %v", m.lastErr))
		sections = append(sections, errBox)
	}

	// --- Cells ---
	maxVisible := m.height - 16
	if m.showDetail {
		maxVisible -= 8
	}
	if m.showLogs {
		maxVisible -= 8
	}
	if maxVisible < 3 {
		maxVisible = 3
	}

	var cellLines []string
	if len(m.cells) == 0 {
		cellLines = append(cellLines, "  No cells found.")
	} else {
		for i, item := range m.cells {
			if i >= maxVisible {
				cellLines = append(cellLines, fmt.Sprintf("  ... and %d more", len(m.cells)-i))
				break
			}
			line := renderCellLine(item, contentWidth-4)
			if i == m.cursor {
				line = styleSelected.Render(line)
			}
			cellLines = append(cellLines, line)
		}
	}

	cellContent := strings.Join(cellLines, "\n")
	cellBox := styleBorder.Width(contentWidth).Render(cellContent)
	cellBox = injectBorderTitle(cellBox, " Cells ", " ↑↓ navigate ")
	sections = append(sections, cellBox)

	// --- Details ---
	if m.showDetail && m.cursor < len(m.cells) {
		detailContent := renderDetails(m.cells[m.cursor], contentWidth-4)
		detailBox := styleBorder.Width(contentWidth).Render(detailContent)
		detailBox = injectBorderTitle(detailBox, " Details ", "")
		sections = append(sections, detailBox)
	}

	// --- Describe (full spec + status) ---
	if m.showDescribe && m.cursor < len(m.cells) {
		describeContent := renderDescribe(m.cells[m.cursor], contentWidth-4)
		describeBox := styleBorder.Width(contentWidth).Render(describeContent)
		describeBox = injectBorderTitle(describeBox, " Describe ", " D toggle ")
		sections = append(sections, describeBox)
	}

	// --- Status Summary ---
	if m.showSummary {
		summaryContent := renderSummary(m.cells, contentWidth-4)
		summaryBox := styleBorder.Width(contentWidth).Render(summaryContent)
		summaryBox = injectBorderTitle(summaryBox, " Summary ", " S toggle ")
		sections = append(sections, summaryBox)
	}

	// --- Namespace Input ---
	if m.nsInputMode {
		inputContent := fmt.Sprintf("  Namespace: %s", m.nsInput.View())
		inputBox := styleBorder.Width(contentWidth).
			BorderForeground(lipgloss.Color("11")).
			Render(inputContent)
		inputBox = injectBorderTitle(inputBox, " Set Namespace ", " Enter confirm │ Esc cancel ")
		sections = append(sections, inputBox)
	}

	// --- Logs ---
	if m.showLogs {
		var logContent string
		if len(m.logLines) == 0 {
			logContent = "  (no logs)"
		} else {
			var lines []string
			for _, l := range m.logLines {
				lines = append(lines, "  "+l)
			}
			logContent = strings.Join(lines, "\n")
		}
		logBox := styleBorder.Width(contentWidth).Render(logContent)
		logBox = injectBorderTitle(logBox, " Logs (tail) ", "")
		sections = append(sections, logBox)
	}

	// --- Footer ---
	footer := styleFooter.Render(fmt.Sprintf("  q quit │ ↑↓ select │ Enter details │ D describe │ S summary │ l logs │ n namespace │ A all-ns │ r refresh ─── %s", m.refreshInt))
	sections = append(sections, footer)

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

// injectBorderTitle replaces part of the top border line with a title and optional right-side hint.
func injectBorderTitle(box string, title string, hint string) string {
	lines := strings.Split(box, "\n")
	if len(lines) == 0 {
		return box
	}
	top := []rune(lines[0])
	titleRunes := []rune(styleTitle.Render(title))

	// Insert title after first 2 border chars
	if len(top) > 3 {
		result := string(top[:2]) + string(titleRunes)
		remaining := len(top) - 2 - lipgloss.Width(string(titleRunes))
		if hint != "" && remaining > len(hint)+2 {
			hintRendered := styleSubtle.Render(hint)
			hintWidth := lipgloss.Width(hintRendered)
			padding := remaining - hintWidth
			if padding > 0 {
				for i := 0; i < padding; i++ {
					result += "─"
				}
				result += hintRendered
			} else {
				for i := 0; i < remaining; i++ {
					result += "─"
				}
			}
		} else {
			if remaining > 0 {
				for i := 0; i < remaining; i++ {
					result += "─"
				}
			}
		}
		result += string(top[len(top)-1:])
		lines[0] = result
	}
	return strings.Join(lines, "\n")
}

// --- Rendering helpers ---

func phaseIcon(phase cellforgev1alpha1.CellPhase) string {
	switch phase {
	case cellforgev1alpha1.CellPhaseCompleted:
		return styleCompleted.Render("✓")
	case cellforgev1alpha1.CellPhaseFailed:
		return styleFailed.Render("✗")
	case cellforgev1alpha1.CellPhaseRunning:
		return styleRunning.Render("●")
	case cellforgev1alpha1.CellPhasePaused:
		return stylePaused.Render("◐")
	case cellforgev1alpha1.CellPhasePending:
		return stylePending.Render("○")
	default:
		return stylePending.Render("?")
	}
}

func spawnPolicyStyle(policy cellforgev1alpha1.SpawnPolicy) lipgloss.Style {
	switch policy {
	case cellforgev1alpha1.SpawnPolicyOpen:
		return styleOpen
	case cellforgev1alpha1.SpawnPolicyApprovalRequired:
		return styleApprovalGated
	default:
		return styleSpawnRestricted
	}
}

func phaseStyle(phase cellforgev1alpha1.CellPhase) lipgloss.Style {
	switch phase {
	case cellforgev1alpha1.CellPhaseRunning:
		return styleRunning
	case cellforgev1alpha1.CellPhaseCompleted:
		return styleCompleted
	case cellforgev1alpha1.CellPhaseFailed:
		return styleFailed
	case cellforgev1alpha1.CellPhasePaused:
		return stylePaused
	default:
		return stylePending
	}
}

func renderCellLine(item cellItem, _ int) string {
	c := item.cell
	icon := phaseIcon(c.Status.Phase)
	name := truncate(c.Name, 24)
	policy := spawnPolicyStyle(c.Spec.Recursion.SpawnPolicy).Render(fmt.Sprintf("%-18s", c.Spec.Recursion.SpawnPolicy))
	phase := phaseStyle(c.Status.Phase).Render(fmt.Sprintf("%-12s", string(c.Status.Phase)))
	dur := elapsed(c)
	cost := c.Status.TotalCost
	if cost == "" {
		cost = "-"
	} else {
		cost = "$" + cost
	}

	indent := strings.Repeat("  ", item.depth)
	prefix := item.prefix

	return fmt.Sprintf("  %s%s%s %-24s %s %s %-8s %6s", indent, prefix, icon, name, policy, phase, dur, cost)
}

func elapsed(c cellforgev1alpha1.Cell) string {
	end := time.Now()
	if c.Status.LastActive != nil {
		end = c.Status.LastActive.Time
	}
	d := end.Sub(c.CreationTimestamp.Time)
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%02ds", mins, secs)
}

func renderDetails(item cellItem, _ int) string {
	c := item.cell
	var b strings.Builder
	b.WriteString(fmt.Sprintf("  Name: %s\n", c.Name))
	b.WriteString(fmt.Sprintf("  Model: %-20s SpawnPolicy: %-18s Formation: %s\n",
		c.Spec.Mind.Model, c.Spec.Recursion.SpawnPolicy, c.Spec.FormationRef))

	tokIn, tokOut := int64(0), int64(0)
	if c.Status.TotalTokens != nil {
		tokIn = c.Status.TotalTokens.Input
		tokOut = c.Status.TotalTokens.Output
	}
	cost := c.Status.TotalCost
	if cost == "" {
		cost = "0.00"
	}
	costStr := "$" + cost

	// Color cost based on budget
	if c.Spec.Resources.MaxTotalCost != "" {
		maxCost, err1 := strconv.ParseFloat(c.Spec.Resources.MaxTotalCost, 64)
		curCost, err2 := strconv.ParseFloat(cost, 64)
		if err1 == nil && err2 == nil && maxCost > 0 {
			if curCost/maxCost > 0.8 {
				costStr = styleCostHigh.Render(costStr)
			} else {
				costStr = styleCostOk.Render(costStr)
			}
		}
	}

	b.WriteString(fmt.Sprintf("  Tokens: %s in / %s out    Cost: %s\n",
		formatInt(tokIn), formatInt(tokOut), costStr))

	b.WriteString(fmt.Sprintf("  Pod: %-28s Elapsed: %s\n", c.Status.PodName, elapsed(c)))

	if len(c.Spec.Tools) > 0 {
		var names []string
		for _, t := range c.Spec.Tools {
			names = append(names, t.Name)
		}
		b.WriteString(fmt.Sprintf("  Tools: [%s]\n", strings.Join(names, ", ")))
	}

	return b.String()
}

func renderDescribe(item cellItem, maxWidth int) string {
	c := item.cell
	var b strings.Builder

	b.WriteString(fmt.Sprintf("  Name:      %s\n", c.Name))
	b.WriteString(fmt.Sprintf("  Namespace: %s\n", c.Namespace))
	b.WriteString(fmt.Sprintf("  Phase:     %s\n", string(c.Status.Phase)))
	b.WriteString(fmt.Sprintf("  Provider:  %s\n", c.Spec.Mind.Provider))
	b.WriteString(fmt.Sprintf("  Model:     %s\n", c.Spec.Mind.Model))

	if len(c.Spec.Tools) > 0 {
		var names []string
		for _, t := range c.Spec.Tools {
			names = append(names, t.Name)
		}
		b.WriteString(fmt.Sprintf("  Tools:     [%s]\n", strings.Join(names, ", ")))
	}
	if c.Spec.Resources.MaxTotalCost != "" || c.Spec.Resources.MaxCostPerHour != "" {
		var parts []string
		if c.Spec.Resources.MaxCostPerHour != "" {
			parts = append(parts, fmt.Sprintf("per-hour=$%s", c.Spec.Resources.MaxCostPerHour))
		}
		if c.Spec.Resources.MaxTotalCost != "" {
			parts = append(parts, fmt.Sprintf("total=$%s", c.Spec.Resources.MaxTotalCost))
		}
		b.WriteString(fmt.Sprintf("  Budget:    %s\n", strings.Join(parts, ", ")))
	}
	if c.Spec.ParentRef != "" {
		b.WriteString(fmt.Sprintf("  Parent:    %s\n", c.Spec.ParentRef))
	}
	b.WriteString(fmt.Sprintf("  Recursion: spawnPolicy=%s maxDepth=%d maxDescendants=%d\n",
		c.Spec.Recursion.SpawnPolicy, c.Spec.Recursion.MaxDepth, c.Spec.Recursion.MaxDescendants))

	// System prompt
	if c.Spec.Mind.SystemPrompt != "" {
		prompt := c.Spec.Mind.SystemPrompt
		if len(prompt) > maxWidth*4 {
			prompt = prompt[:maxWidth*4] + "..."
		}
		b.WriteString("\n  ── System Prompt ──\n")
		for _, line := range strings.Split(prompt, "\n") {
			b.WriteString("  " + line + "\n")
		}
	}

	// Message
	if c.Status.Message != "" {
		b.WriteString("\n  ── Message ──\n")
		message := c.Status.Message
		if len(message) > maxWidth*6 {
			message = message[:maxWidth*6] + "\n  ...(truncated)"
		}
		for _, line := range strings.Split(message, "\n") {
			b.WriteString("  " + line + "\n")
		}
	}

	return b.String()
}

func renderSummary(items []cellItem, _ int) string {
	if len(items) == 0 {
		return "  No cells."
	}

	phaseCounts := make(map[cellforgev1alpha1.CellPhase]int)
	policyCounts := make(map[cellforgev1alpha1.SpawnPolicy]int)
	totalCost := 0.0
	totalTokensIn := int64(0)
	totalTokensOut := int64(0)

	for _, item := range items {
		c := item.cell
		phaseCounts[c.Status.Phase]++
		policyCounts[c.Spec.Recursion.SpawnPolicy]++

		if c.Status.TotalTokens != nil {
			totalTokensIn += c.Status.TotalTokens.Input
			totalTokensOut += c.Status.TotalTokens.Output
		}
		if c.Status.TotalCost != "" {
			if cost, err := strconv.ParseFloat(c.Status.TotalCost, 64); err == nil {
				totalCost += cost
			}
		}
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("  Total Cells: %d\n\n", len(items)))

	// Phase breakdown
	b.WriteString("  By Phase:\n")
	phases := []cellforgev1alpha1.CellPhase{
		cellforgev1alpha1.CellPhaseRunning,
		cellforgev1alpha1.CellPhasePending,
		cellforgev1alpha1.CellPhasePaused,
		cellforgev1alpha1.CellPhaseCompleted,
		cellforgev1alpha1.CellPhaseFailed,
	}
	for _, phase := range phases {
		if count := phaseCounts[phase]; count > 0 {
			icon := phaseIcon(phase)
			b.WriteString(fmt.Sprintf("    %s %-16s %d\n", icon, string(phase), count))
		}
	}

	// Spawn policy breakdown
	b.WriteString("\n  By Spawn Policy:\n")
	policies := []cellforgev1alpha1.SpawnPolicy{
		cellforgev1alpha1.SpawnPolicyOpen,
		cellforgev1alpha1.SpawnPolicyApprovalRequired,
		cellforgev1alpha1.SpawnPolicyBlueprintOnly,
		cellforgev1alpha1.SpawnPolicyDisabled,
	}
	for _, policy := range policies {
		if count := policyCounts[policy]; count > 0 {
			b.WriteString(fmt.Sprintf("    %-20s %d\n", policy, count))
		}
	}

	// Totals
	b.WriteString(fmt.Sprintf("\n  Tokens: %s in / %s out\n",
		formatInt(totalTokensIn), formatInt(totalTokensOut)))
	b.WriteString(fmt.Sprintf("  Cost:   $%.4f\n", totalCost))

	return b.String()
}

func formatInt(n int64) string {
	s := fmt.Sprintf("%d", n)
	if n < 1000 {
		return s
	}
	// Simple comma formatting
	parts := []string{}
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, ",")
}

// --- Commands ---

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func fetchCells(m model) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cellList := &cellforgev1alpha1.CellList{}
		opts := []client.ListOption{}
		if !m.allNS {
			opts = append(opts, client.InNamespace(m.namespace))
		}
		if err := m.k8sClient.List(ctx, cellList, opts...); err != nil {
			return cellsMsg{err: err}
		}

		// Build parent→children map
		byName := make(map[string]*cellforgev1alpha1.Cell)
		childMap := make(map[string][]string)
		roots := []string{}

		for i := range cellList.Items {
			c := &cellList.Items[i]
			byName[c.Name] = c
			if c.Spec.ParentRef != "" {
				childMap[c.Spec.ParentRef] = append(childMap[c.Spec.ParentRef], c.Name)
			} else {
				roots = append(roots, c.Name)
			}
		}

		// If focusing on a specific cell
		if m.focusCell != "" {
			roots = []string{m.focusCell}
		}

		// Flatten tree
		var items []cellItem
		for _, name := range roots {
			c, ok := byName[name]
			if !ok {
				continue
			}
			flattenTree(c, byName, childMap, 0, "", &items)
		}

		return cellsMsg{items: items}
	}
}

func flattenTree(cell *cellforgev1alpha1.Cell, byName map[string]*cellforgev1alpha1.Cell, childMap map[string][]string, depth int, prefix string, out *[]cellItem) {
	*out = append(*out, cellItem{cell: *cell, depth: depth, prefix: prefix})

	children := childMap[cell.Name]
	for i, childName := range children {
		child, ok := byName[childName]
		if !ok {
			continue
		}
		isLast := i == len(children)-1
		var connector string
		if isLast {
			connector = "└─ "
		} else {
			connector = "├─ "
		}
		flattenTree(child, byName, childMap, depth+1, connector, out)
	}
}

func fetchNamespaces(m model) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		nsList, err := m.clientset.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
		if err != nil {
			return namespacesMsg{err: err}
		}

		var names []string
		for _, ns := range nsList.Items {
			names = append(names, ns.Name)
		}
		return namespacesMsg{items: names}
	}
}

func fetchLogs(m model) tea.Cmd {
	return func() tea.Msg {
		if m.cursor >= len(m.cells) {
			return logsMsg{}
		}
		cell := m.cells[m.cursor].cell
		if cell.Status.PodName == "" {
			return logsMsg{lines: []string{"(no pod assigned)"}}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		ns := cell.Namespace
		if ns == "" {
			ns = m.namespace
		}

		tailLines := int64(20)
		opts := &corev1.PodLogOptions{
			Container: "agent",
			TailLines: &tailLines,
		}

		stream, err := m.clientset.CoreV1().Pods(ns).GetLogs(cell.Status.PodName, opts).Stream(ctx)
		if err != nil {
			return logsMsg{lines: []string{fmt.Sprintf("(error: %v)", err)}}
		}
		defer func() { _ = stream.Close() }()

		var lines []string
		scanner := bufio.NewScanner(stream)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		return logsMsg{lines: lines}
	}
}
