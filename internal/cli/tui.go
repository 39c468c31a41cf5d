package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/proxysheet/pkg/integrations/scryfall"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// PrintingListModel - Interactive printing selection
// =============================================================================

// PrintingListModel is the bubbletea model for choosing one printing of a card.
type PrintingListModel struct {
	Name     string
	Cards    []scryfall.Card
	Cursor   int
	Selected *scryfall.Card
	Height   int
	Offset   int
}

// NewPrintingListModel creates a new printing list model.
func NewPrintingListModel(name string, cards []scryfall.Card) PrintingListModel {
	return PrintingListModel{
		Name:   name,
		Cards:  cards,
		Height: 15,
	}
}

func (m PrintingListModel) Init() tea.Cmd {
	return nil
}

func (m PrintingListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Cards)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "home", "g":
			m.Cursor, m.Offset = 0, 0
		case "end", "G":
			m.Cursor = len(m.Cards) - 1
			m.Offset = max(0, m.Cursor-m.Height+1)
		case "enter":
			if len(m.Cards) == 0 {
				return m, tea.Quit
			}
			card := m.Cards[m.Cursor]
			m.Selected = &card
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m PrintingListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Printings of " + m.Name))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Cards))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		c := m.Cards[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		faces := ""
		if c.DoubleFaced() {
			faces = "⇄"
		}
		rows = append(rows, []string{cursor, strings.ToUpper(c.Set), c.Number, c.SetName, c.Released, faces})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Set", "No.", "Set Name", "Released", "DFC").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col == 4 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Cards))))

	return b.String()
}
