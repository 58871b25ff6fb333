package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/studiowebux/reqflow/internal/types"
)

// ErrSelectionCancelled is returned when the user quits a selector
var ErrSelectionCancelled = errors.New("selection cancelled")

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2).Bold(true)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	hintStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1).MarginLeft(2)
)

type recipeItem struct {
	id     types.RecipeID
	name   string
	method string
	url    string
}

func (i recipeItem) FilterValue() string {
	return i.name + " " + string(i.id)
}

func (i recipeItem) Title() string {
	return fmt.Sprintf("%s %s", i.method, i.name)
}

func (i recipeItem) Description() string { return i.url }

func newRecipeItems(recipes []types.Recipe) []list.Item {
	items := make([]list.Item, 0, len(recipes))
	for i := range recipes {
		r := &recipes[i]
		items = append(items, recipeItem{
			id:     r.ID,
			name:   r.DisplayName(),
			method: r.Method,
			url:    r.URL,
		})
	}
	return items
}

type selectorModel struct {
	list     list.Model
	choice   types.RecipeID
	quitting bool
}

func (m selectorModel) Init() tea.Cmd {
	return nil
}

func (m selectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		// Let the list handle keys while the filter input is open
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			m.choice = ""
			return m, tea.Quit

		case "enter":
			if i, ok := m.list.SelectedItem().(recipeItem); ok {
				m.choice = i.id
			}
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m selectorModel) View() string {
	if m.quitting {
		return ""
	}

	help := helpStyle.Render("↑/↓: navigate • /: filter • enter: send • q/ctrl+c: cancel")
	return fmt.Sprintf("%s\n\n%s", m.list.View(), help)
}

// promptForRecipe shows an interactive list of the collection's requests
func promptForRecipe(recipes []types.Recipe) (types.RecipeID, error) {
	if len(recipes) == 0 {
		return "", fmt.Errorf("collection has no requests")
	}

	const defaultWidth = 80
	const listHeight = 14

	l := list.New(newRecipeItems(recipes), itemDelegate{}, defaultWidth, listHeight)
	l.Title = "Select a request"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	p := tea.NewProgram(selectorModel{list: l})
	finalModel, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("error running selector: %w", err)
	}

	result := finalModel.(selectorModel)
	if result.choice == "" {
		return "", ErrSelectionCancelled
	}
	return result.choice, nil
}

// itemDelegate renders one line per recipe with its URL dimmed
type itemDelegate struct{}

func (d itemDelegate) Height() int                             { return 1 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(recipeItem)
	if !ok {
		return
	}

	str := fmt.Sprintf("%d. %s %s", index+1, i.Title(), hintStyle.Render(i.url))

	fn := itemStyle.Render
	if index == m.Index() {
		fn = func(s ...string) string {
			return selectedItemStyle.Render("> " + strings.Join(s, " "))
		}
	}

	fmt.Fprint(w, fn(str))
}
