package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styling
var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#0a84ff")).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#30d158")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#ff453a")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(1, 2)
)

const (
	focusMenu  = "menu"
	focusOrder = "order"

	stateSubmitted = "submitted"
)

// Model defines the application state
type Model struct {
	client     *ApiClient
	menu       list.Model
	orderTable table.Model
	inputs     []textinput.Model
	inputIndex int
	spinner    spinner.Model
	page       *PageView
	focus      string
	loading    bool
	error      string
}

// menuItem represents a menu entry in the list
type menuItem struct {
	row CatalogRow
}

// FilterValue implements list.Item interface
func (i menuItem) FilterValue() string { return i.row.Name }

// Title implements list.Item interface
func (i menuItem) Title() string { return i.row.Emoji + " " + i.row.Name }

// Description implements list.Item interface
func (i menuItem) Description() string {
	return fmt.Sprintf("%s · %s", i.row.Ingredients, i.row.PriceText)
}

func initialModel(client *ApiClient) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	menu := list.New(nil, list.NewDefaultDelegate(), 48, 16)
	menu.Title = "Jimmy's Diner"
	menu.SetShowHelp(false)
	menu.SetFilteringEnabled(false)

	orderTable := table.New(
		table.WithColumns([]table.Column{
			{Title: "Item", Width: 20},
			{Title: "Price", Width: 10},
		}),
		table.WithHeight(6),
	)

	labels := []string{"Name", "Card number", "CVV"}
	inputs := make([]textinput.Model, len(labels))
	for i, label := range labels {
		ti := textinput.New()
		ti.Placeholder = label
		ti.Prompt = fmt.Sprintf("%-12s ", label)
		ti.CharLimit = 64
		ti.Width = 30
		inputs[i] = ti
	}
	inputs[2].CharLimit = 4
	inputs[2].EchoMode = textinput.EchoPassword

	return Model{
		client:     client,
		menu:       menu,
		orderTable: orderTable,
		inputs:     inputs,
		spinner:    s,
		focus:      focusMenu,
		loading:    true,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, startSession(m.client))
}

// Update handles UI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.menu.SetSize(msg.Width-h, (msg.Height-v)/2)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case viewMsg:
		m.loading = false
		m.error = ""
		return m.apply(msg.page), nil

	case errorMsg:
		m.loading = false
		if errors.Is(msg.err, ErrSessionGone) {
			m.error = "Session expired, starting a new order"
			m.page = nil
			return m, startSession(m.client)
		}
		var apiErr *APIError
		if errors.As(msg.err, &apiErr) && apiErr.View != nil {
			m = m.apply(apiErr.View)
		}
		m.error = msg.err.Error()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.page == nil || m.loading {
			return m, nil
		}
		if m.page.Visibility.PaymentOverlay {
			return m.updatePayment(msg)
		}
		return m.updateOrdering(msg)
	}

	return m, nil
}

func (m Model) updateOrdering(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "tab":
		if m.focus == focusMenu && len(m.page.Order.Rows) > 0 {
			m.focus = focusOrder
			m.orderTable.Focus()
		} else {
			m.focus = focusMenu
			m.orderTable.Blur()
		}
		return m, nil
	case "n":
		if m.page.State == stateSubmitted {
			m.loading = true
			return m, restartSession(m.client)
		}
	case "c":
		if m.page.Visibility.CompleteButton && m.page.State != stateSubmitted {
			m.loading = true
			return m, call(m.client.Complete)
		}
	case "enter", "+", "a":
		if m.focus == focusMenu {
			if selected, ok := m.menu.SelectedItem().(menuItem); ok {
				m.loading = true
				return m, call(func() (*PageView, error) { return m.client.AddItem(selected.row.ID) })
			}
		}
	case "x", "-", "delete", "backspace":
		if m.focus == focusOrder {
			cursor := m.orderTable.Cursor()
			if cursor >= 0 && cursor < len(m.page.Order.Rows) {
				id := m.page.Order.Rows[cursor].RemoveID
				m.loading = true
				return m, call(func() (*PageView, error) { return m.client.RemoveItem(id) })
			}
		}
	}

	var cmd tea.Cmd
	if m.focus == focusOrder {
		m.orderTable, cmd = m.orderTable.Update(msg)
	} else {
		m.menu, cmd = m.menu.Update(msg)
	}
	return m, cmd
}

func (m Model) updatePayment(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.loading = true
		return m, call(m.client.Cancel)
	case "tab", "down":
		return m.focusInput(m.inputIndex + 1), nil
	case "shift+tab", "up":
		return m.focusInput(m.inputIndex - 1), nil
	case "enter":
		if m.inputIndex < len(m.inputs)-1 {
			return m.focusInput(m.inputIndex + 1), nil
		}
		name := strings.TrimSpace(m.inputs[0].Value())
		card := strings.TrimSpace(m.inputs[1].Value())
		cvv := strings.TrimSpace(m.inputs[2].Value())
		if name == "" || card == "" || cvv == "" {
			m.error = "All payment fields are required"
			return m, nil
		}
		m.loading = true
		return m, call(func() (*PageView, error) { return m.client.Pay(name, card, cvv) })
	}

	var cmd tea.Cmd
	m.inputs[m.inputIndex], cmd = m.inputs[m.inputIndex].Update(msg)
	return m, cmd
}

func (m Model) focusInput(i int) Model {
	n := len(m.inputs)
	m.inputIndex = (i + n) % n
	for j := range m.inputs {
		if j == m.inputIndex {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
	return m
}

// apply paints a server view into the widgets
func (m Model) apply(page *PageView) Model {
	if page == nil {
		return m
	}
	wasPrompt := m.page != nil && m.page.Visibility.PaymentOverlay
	m.page = page

	if len(m.menu.Items()) == 0 {
		items := make([]list.Item, len(page.Menu))
		for i, row := range page.Menu {
			items[i] = menuItem{row: row}
		}
		m.menu.SetItems(items)
	}

	rows := make([]table.Row, len(page.Order.Rows))
	for i, row := range page.Order.Rows {
		rows[i] = table.Row{row.Name, row.PriceText}
	}
	m.orderTable.SetRows(rows)
	if len(rows) == 0 {
		m.focus = focusMenu
		m.orderTable.Blur()
	} else if m.orderTable.Cursor() >= len(rows) {
		m.orderTable.SetCursor(len(rows) - 1)
	}

	switch {
	case page.Visibility.PaymentOverlay && !wasPrompt:
		for i := range m.inputs {
			m.inputs[i].SetValue("")
		}
		m = m.focusInput(0)
	case !page.Visibility.PaymentOverlay:
		for i := range m.inputs {
			m.inputs[i].Blur()
		}
	}
	return m
}

// View renders the UI
func (m Model) View() string {
	if m.page == nil {
		status := m.spinner.View() + " Connecting to " + m.client.BaseURL
		if m.error != "" {
			status += "\n" + errorStyle.Render(m.error)
		}
		return docStyle.Render(status)
	}

	var b strings.Builder
	b.WriteString(m.menu.View())
	b.WriteString("\n")

	if m.page.Visibility.CheckoutSection {
		b.WriteString("\n" + titleStyle.Render("Your order") + "\n\n")
		b.WriteString(m.orderTable.View() + "\n")
		b.WriteString(fmt.Sprintf("\nTotal price: %s\n", m.page.Order.TotalText))
		if m.page.Visibility.CompleteButton {
			b.WriteString(infoStyle.Render("Complete order (c)") + "\n")
		}
	}

	if m.page.Visibility.PaymentOverlay {
		var form strings.Builder
		form.WriteString(titleStyle.Render("Enter card details") + "\n\n")
		for _, in := range m.inputs {
			form.WriteString(in.View() + "\n")
		}
		form.WriteString("\n" + helpStyle.Render("tab: next field · enter: pay · esc: cancel"))
		b.WriteString("\n" + modalStyle.Render(form.String()) + "\n")
	}

	if m.page.Visibility.SuccessPanel {
		b.WriteString("\n" + successStyle.Render(m.page.SuccessMessage) + "\n")
		if m.page.Reference != "" {
			b.WriteString(helpStyle.Render("Reference: "+m.page.Reference) + "\n")
		}
	}

	if m.loading {
		b.WriteString("\n" + m.spinner.View() + " working...\n")
	}
	if m.error != "" {
		b.WriteString("\n" + errorStyle.Render(m.error) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render(m.help()))
	return docStyle.Render(b.String())
}

func (m Model) help() string {
	switch {
	case m.page.Visibility.PaymentOverlay:
		return "ctrl+c: quit"
	case m.page.State == stateSubmitted:
		return "n: new order · q: quit"
	case m.focus == focusOrder:
		return "↑/↓: select line · x: remove · tab: menu · c: complete · q: quit"
	default:
		return "↑/↓: select dish · enter: add · tab: order · c: complete · q: quit"
	}
}

// Custom message types for the tea.Model
type viewMsg struct {
	page *PageView
}

type errorMsg struct {
	err error
}

func call(fn func() (*PageView, error)) tea.Cmd {
	return func() tea.Msg {
		page, err := fn()
		if err != nil {
			return errorMsg{err: err}
		}
		return viewMsg{page: page}
	}
}

func startSession(client *ApiClient) tea.Cmd {
	return call(client.StartSession)
}

func restartSession(client *ApiClient) tea.Cmd {
	return call(func() (*PageView, error) {
		_ = client.EndSession()
		return client.StartSession()
	})
}

func main() {
	apiURL := flag.String("api", "", "Ordering API base URL (default $DINER_API_URL or "+defaultBaseURL+")")
	flag.Parse()

	client := NewApiClient(*apiURL)
	if err := client.CheckHealth(); err != nil {
		fmt.Printf("Error: API server at %s is not available: %v\n", client.BaseURL, err)
		os.Exit(1)
	}

	p := tea.NewProgram(initialModel(client), tea.WithAltScreen())
	_, err := p.Run()
	if endErr := client.EndSession(); endErr != nil && err == nil {
		fmt.Printf("Warning: could not end session: %v\n", endErr)
	}
	if err != nil {
		fmt.Printf("Error running program: %v", err)
		os.Exit(1)
	}
}
