package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/arbor-sh/arbor/pkg/outline/engine"
	"github.com/arbor-sh/arbor/pkg/outline/node"
	"github.com/arbor-sh/arbor/pkg/outline/uistate"
	"github.com/arbor-sh/arbor/pkg/outline/view"
)

// inputMode says what the text input is collecting.
type inputMode int

const (
	inputNone inputMode = iota
	inputRename
	inputCreateChild
	inputCreateRoot
)

// Options configures the TUI application.
type Options struct {
	Engine  *engine.Engine
	Saver   *uistate.Saver
	Windows uistate.State
}

// Model is the main Bubble Tea model for the arbor TUI.
type Model struct {
	engine  *engine.Engine
	saver   *uistate.Saver
	windows uistate.State
	tree    *TreeView

	input     textinput.Model
	inputMode inputMode

	status string

	sub *engine.Subscriber

	width  int
	height int
}

// changeMsg carries a broadcast change into the update loop.
type changeMsg engine.Change

// NewModel creates a new TUI model with the given options.
func NewModel(opts Options) Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 48

	m := Model{
		engine:  opts.Engine,
		saver:   opts.Saver,
		windows: opts.Windows,
		tree:    NewTreeView(opts.Engine.Index(), opts.Engine.State()),
		input:   ti,
		width:   80,
		height:  24,
	}
	m.sub = opts.Engine.Events().Subscribe()

	// Restore the window's focus root if the node still exists.
	if len(m.windows.Tabs) > 0 {
		if id := m.windows.Tabs[0].FocusedNodeID; id != "" && m.engine.Index().Contains(id) {
			m.engine.State().FocusedID = id
		}
	}
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return m.listenForChanges()
}

// listenForChanges forwards broadcast changes into the update loop.
func (m Model) listenForChanges() tea.Cmd {
	return func() tea.Msg {
		change, ok := <-m.sub.Changes
		if !ok {
			return nil
		}
		return changeMsg(change)
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case changeMsg:
		return m, m.listenForChanges()

	case tea.KeyMsg:
		if m.inputMode != inputNone {
			return m.updateInput(msg)
		}
		if m.engine.State().Dialogs.DeleteID != "" {
			return m.updateConfirm(msg)
		}
		return m.updateNormal(msg)
	}

	return m, nil
}

// updateNormal handles keys outside of any dialog.
func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	state := m.engine.State()

	switch msg.String() {
	case "q", "ctrl+c":
		m.persistWindow(true)
		m.engine.Events().Unsubscribe(m.sub.ID)
		return m, tea.Quit

	case "up", "k":
		m.engine.MoveUp()
	case "down", "j":
		m.engine.MoveDown()
	case "right", "l":
		m.engine.MoveRight(ctx)
		m.persistWindow(false)
	case "left", "h":
		m.engine.MoveLeft()
		m.persistWindow(false)
	case "esc":
		m.engine.ExitFocus()
		m.persistWindow(false)

	case " ":
		if n, ok := m.selection(); ok {
			if _, isTask := n.Task(); isTask {
				if _, done := m.engine.ToggleTask(ctx, n); !done {
					m.status = "toggle failed"
				}
			}
		}

	case "enter":
		if n, ok := m.selection(); ok {
			switch n.Type {
			case node.TypeSmartFolder:
				if !m.engine.ExecuteSmartFolder(ctx, n) {
					m.status = "smart folder unavailable"
				}
			case node.TypeTemplate:
				if _, done := m.engine.InstantiateTemplate(ctx, n); !done {
					m.status = "instantiate failed"
				}
			default:
				if state.IsExpanded(n.ID) {
					state.Collapse(n.ID)
				} else {
					state.Expand(n.ID)
				}
			}
		}

	case "r":
		if n, ok := m.selection(); ok {
			m.inputMode = inputRename
			m.input.SetValue(n.Title)
			m.input.CursorEnd()
			m.input.Focus()
			state.IsEditing = true
		}

	case "a":
		parentID := ""
		if n, ok := m.selection(); ok {
			parentID = n.ID
		}
		state.Dialogs.Create = &view.CreateRequest{ParentID: parentID, Type: node.TypeTask}
		m.inputMode = inputCreateChild
		m.input.SetValue("")
		m.input.Focus()
		state.IsEditing = true
	case "A":
		state.Dialogs.Create = &view.CreateRequest{Type: node.TypeTask}
		m.inputMode = inputCreateRoot
		m.input.SetValue("")
		m.input.Focus()
		state.IsEditing = true

	case "d":
		if n, ok := m.selection(); ok {
			state.Dialogs.DeleteID = n.ID
		}

	case "K":
		m.moveSelection(ctx, view.PlaceAbove)
	case "J":
		m.moveSelection(ctx, view.PlaceBelow)

	case "R":
		if !m.engine.Refresh(ctx) {
			m.status = "sync failed, showing last known list"
		} else {
			m.status = ""
		}
	}

	return m, nil
}

// updateInput handles keys while the text input is open.
func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()

	switch msg.String() {
	case "esc":
		m.closeInput()
		return m, nil

	case "enter":
		title := m.input.Value()
		mode := m.inputMode
		createReq := m.engine.State().Dialogs.Create
		m.closeInput()
		if title == "" {
			return m, nil
		}

		switch mode {
		case inputRename:
			if n, ok := m.selection(); ok {
				if _, done := m.engine.Rename(ctx, n.ID, title); !done {
					m.status = "rename failed"
				}
			}
		case inputCreateChild, inputCreateRoot:
			if createReq == nil {
				createReq = &view.CreateRequest{Type: node.TypeTask}
			}
			if _, done := m.engine.Create(ctx, createReq.Type, title, createReq.ParentID); !done {
				m.status = "create failed"
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// updateConfirm handles the delete confirmation dialog.
func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	dialogs := &m.engine.State().Dialogs
	switch msg.String() {
	case "y", "enter":
		if n, ok := m.engine.Index().Node(dialogs.DeleteID); ok {
			if !m.engine.Delete(context.Background(), n) {
				m.status = "delete failed"
			}
		}
		dialogs.DeleteID = ""
	case "n", "esc":
		dialogs.DeleteID = ""
	}
	return m, nil
}

// closeInput resets the text input, clears any pending create request,
// and leaves editing mode.
func (m *Model) closeInput() {
	m.engine.State().Dialogs.Create = nil
	m.inputMode = inputNone
	m.input.Blur()
	m.engine.State().IsEditing = false
}

// selection returns the currently selected node.
func (m Model) selection() (node.Node, bool) {
	id := m.engine.State().SelectedID
	if id == "" {
		return node.Node{}, false
	}
	return m.engine.Index().Node(id)
}

// moveSelection drags the selected node one slot within its siblings.
func (m Model) moveSelection(ctx context.Context, place view.Placement) {
	n, ok := m.selection()
	if !ok {
		return
	}

	var siblings []node.Node
	if n.IsRoot() {
		siblings = m.engine.Index().Roots()
	} else {
		siblings = m.engine.Index().Children(n.ParentID)
	}

	pos := -1
	for i, sibling := range siblings {
		if sibling.ID == n.ID {
			pos = i
			break
		}
	}
	var targetID string
	switch {
	case place == view.PlaceAbove && pos > 0:
		targetID = siblings[pos-1].ID
	case place == view.PlaceBelow && pos >= 0 && pos+1 < len(siblings):
		targetID = siblings[pos+1].ID
	default:
		return
	}

	plan, err := view.PlanMove(siblings, n.ID, targetID, place)
	if err != nil {
		return
	}
	if !m.engine.ApplyReorder(ctx, plan) {
		m.status = "reorder failed"
	} else {
		m.status = plan.Description
	}
}

// persistWindow mirrors the focus root into the window state. The
// immediate flag forces a write, used on quit.
func (m *Model) persistWindow(immediate bool) {
	if len(m.windows.Tabs) == 0 {
		m.windows = uistate.DefaultState()
	}
	m.windows.Tabs[0].FocusedNodeID = m.engine.State().FocusedID

	if immediate {
		_ = m.saver.SaveImmediately(m.windows)
		return
	}
	m.saver.Update(m.windows)
}

// View renders the outline.
func (m Model) View() string {
	header := titleStyle.Render("arbor")
	if m.engine.State().InFocusMode() {
		if focused, ok := m.engine.Index().Node(m.engine.State().FocusedID); ok {
			header += "  " + focusCrumbStyle.Render("⤷ "+focused.Title)
		}
	}

	bodyHeight := m.height - 6
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	visible := m.engine.Navigator().Visible()
	body := m.tree.Render(visible, m.width-4, bodyHeight)

	deleteID := m.engine.State().Dialogs.DeleteID

	var footer string
	switch {
	case deleteID != "":
		title := deleteID
		if n, ok := m.engine.Index().Node(deleteID); ok {
			title = n.Title
		}
		footer = dialogBoxStyle.Render(fmt.Sprintf("Delete %q and everything under it? (y/n)", title))
	case m.inputMode == inputRename:
		footer = "Rename: " + m.input.View()
	case m.inputMode == inputCreateChild, m.inputMode == inputCreateRoot:
		footer = "Title: " + m.input.View()
	case m.status != "":
		footer = statusTextStyle.Render(m.status)
	default:
		footer = helpStyle.Render("j/k move  h/l collapse/expand  space toggle  a add  r rename  d delete  J/K reorder  R sync  q quit")
	}

	return outerBoxStyle.Width(m.width - 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, body, footer),
	)
}
