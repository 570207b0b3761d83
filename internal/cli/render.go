package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gomlx/go-minbpe/tokenizers/bpe"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("147"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	idStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	bytesStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("241")).Padding(0, 1)
)

// renderModel renders the model for the "print" shell command: its sizes, and every merge with the
// bytes it expands to. Base entries are the identity, and are only summarized.
func renderModel(m *bpe.Model) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("BPE model"))
	sb.WriteByte('\n')
	fmt.Fprintf(&sb, "%s %d\n", labelStyle.Render("vocab_size:"), m.VocabSize())
	fmt.Fprintf(&sb, "%s %d\n", labelStyle.Render("num_merges:"), m.NumMerges())
	fmt.Fprintf(&sb, "%s %d (256 base entries)\n", labelStyle.Render("vocab entries:"), m.Len())

	rules := m.Merges()
	if len(rules) > 0 {
		sb.WriteString(labelStyle.Render("merges:"))
		width := len(strconv.Itoa(int(rules[len(rules)-1].ID)))
		for _, rule := range rules {
			entry, _ := m.Lookup(rule.ID)
			fmt.Fprintf(&sb, "\n  (%*d,%*d) -> %s  %s", width, rule.Pair.Left, width, rule.Pair.Right,
				idStyle.Render(strconv.Itoa(int(rule.ID))), bytesStyle.Render(strconv.Quote(string(entry))))
		}
	}
	return boxStyle.Render(sb.String())
}
