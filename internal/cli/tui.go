package cli

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/scalebar/pkg/errors"
	"github.com/matzehuels/scalebar/pkg/magnification"
	"github.com/matzehuels/scalebar/pkg/overlay"
	"github.com/matzehuels/scalebar/pkg/pipeline"
	"github.com/matzehuels/scalebar/pkg/preview"
	"github.com/matzehuels/scalebar/pkg/task"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

const (
	marginStep     = 10
	listHeight     = 6
	minPreviewCols = 20
)

type (
	previewMsg preview.Result
	fileMsg    fsnotify.Event
)

// =============================================================================
// previewModel - Interactive preview browser
// =============================================================================

type previewModelConfig struct {
	Tasks        []task.Task
	Current      string
	Mode         pipeline.Mode
	MarginLeft   int
	MarginBottom int
	Width        int
	Out          string
	Controller   *preview.Controller
	Save         func([]task.Task) error
	SaveMargins  func(left, bottom int) error
}

type previewModel struct {
	tasks        []task.Task
	cursor       int
	offset       int
	mode         pipeline.Mode
	marginLeft   int
	marginBottom int
	width        int
	out          string

	ctrl        *preview.Controller
	save        func([]task.Task) error
	saveMargins func(left, bottom int) error
	watcher     *fsnotify.Watcher

	seq          uint64
	result       *preview.Result
	status       string
	dirty        bool // task edits not yet saved
	marginsDirty bool

	cols, rows int
}

func newPreviewModel(cfg previewModelConfig) previewModel {
	m := previewModel{
		tasks:        cfg.Tasks,
		mode:         cfg.Mode,
		marginLeft:   cfg.MarginLeft,
		marginBottom: cfg.MarginBottom,
		width:        cfg.Width,
		out:          cfg.Out,
		ctrl:         cfg.Controller,
		save:         cfg.Save,
		saveMargins:  cfg.SaveMargins,
		cols:         80,
		rows:         24,
	}
	for i, t := range m.tasks {
		if t.ID == cfg.Current {
			m.cursor = i
		}
	}
	return m
}

func (m previewModel) current() task.Task {
	return m.tasks[m.cursor]
}

func (m previewModel) request() pipeline.PreviewRequest {
	return pipeline.NewPreviewRequest(m.current(), m.marginLeft, m.marginBottom, m.mode, m.width)
}

// trigger schedules a render of the current state.
func (m *previewModel) trigger() {
	if len(m.tasks) == 0 || m.ctrl == nil {
		return
	}
	m.seq = m.ctrl.Trigger(m.request())
}

func (m previewModel) Init() tea.Cmd {
	m.trigger()
	return m.waitForFile()
}

func (m previewModel) waitForFile() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	w := m.watcher
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return nil
				}
				return fileMsg(ev)
			case _, ok := <-w.Errors:
				if !ok {
					return nil
				}
			}
		}
	}
}

func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case previewMsg:
		if msg.Seq < m.seq {
			return m, nil
		}
		r := preview.Result(msg)
		m.result = &r
		return m, nil

	case fileMsg:
		if len(m.tasks) > 0 && sameFile(msg.Name, m.current().ImagePath) {
			m.status = "image changed on disk"
			m.trigger()
		}
		return m, m.waitForFile()

	case tea.WindowSizeMsg:
		m.cols, m.rows = msg.Width, msg.Height
	}
	return m, nil
}

func (m previewModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if len(m.tasks) == 0 {
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			if m.cursor < m.offset {
				m.offset = m.cursor
			}
			m.trigger()
		}
	case "down", "j":
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
			if m.cursor >= m.offset+listHeight {
				m.offset = m.cursor - listHeight + 1
			}
			m.trigger()
		}
	case "tab", " ":
		if m.mode == pipeline.ModeProcessed {
			m.mode = pipeline.ModeOriginal
		} else {
			m.mode = pipeline.ModeProcessed
		}
		m.trigger()
	case "m", "M":
		step := 1
		if msg.String() == "M" {
			step = -1
		}
		m.tasks[m.cursor].Magnification = cycleMagnification(m.current().Magnification, step)
		m.dirty = true
		m.trigger()
	case "a":
		m.tasks[m.cursor].Alignment = (m.current().Alignment + 1) % (overlay.AlignRight + 1)
		m.dirty = true
		m.trigger()
	case "left", "h":
		m.setMargins(m.marginLeft-marginStep, m.marginBottom)
	case "right", "l":
		m.setMargins(m.marginLeft+marginStep, m.marginBottom)
	case "[":
		m.setMargins(m.marginLeft, m.marginBottom-marginStep)
	case "]":
		m.setMargins(m.marginLeft, m.marginBottom+marginStep)
	case "s":
		m.status = m.saveAll()
	case "w":
		m.status = m.writeCurrent()
	}
	return m, nil
}

// setMargins clamps both margins at zero and re-renders if either changed.
func (m *previewModel) setMargins(left, bottom int) {
	left, bottom = max(0, left), max(0, bottom)
	if left == m.marginLeft && bottom == m.marginBottom {
		return
	}
	m.marginLeft, m.marginBottom = left, bottom
	m.marginsDirty = true
	m.trigger()
}

// saveAll writes task edits to the queue and margin changes to the
// settings, reporting what was saved.
func (m *previewModel) saveAll() string {
	if !m.dirty && !m.marginsDirty {
		return "nothing to save"
	}
	var saved []string
	if m.dirty {
		if m.save == nil {
			return "saving the queue is not available"
		}
		if err := m.save(m.tasks); err != nil {
			return "save failed: " + errors.UserMessage(err)
		}
		m.dirty = false
		saved = append(saved, "queue")
	}
	if m.marginsDirty {
		if m.saveMargins == nil {
			return "saving margins is not available"
		}
		if err := m.saveMargins(m.marginLeft, m.marginBottom); err != nil {
			return "save failed: " + errors.UserMessage(err)
		}
		m.marginsDirty = false
		saved = append(saved, "margins")
	}
	return strings.Join(saved, " and ") + " saved"
}

func (m previewModel) writeCurrent() string {
	if m.result == nil || m.result.Preview == nil {
		return "no preview to write yet"
	}
	out := m.out
	if out == "" {
		out = previewPath(m.current())
	}
	if err := os.WriteFile(out, m.result.Preview.Data, 0o644); err != nil {
		return "write failed: " + err.Error()
	}
	return "wrote " + filepath.Base(out)
}

// cycleMagnification moves step entries through the catalog, wrapping at
// either end.
func cycleMagnification(o magnification.Option, step int) magnification.Option {
	all := magnification.All()
	for i, c := range all {
		if c.Ratio == o.Ratio {
			return all[(i+step+len(all))%len(all)]
		}
	}
	return magnification.Default()
}

func (m previewModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Scale Bar Preview"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ task  tab mode  m/M magnification  a align  ←/→ left  [/] bottom  s save  w write  q quit"))
	b.WriteString("\n\n")

	if len(m.tasks) == 0 {
		b.WriteString(listDimStyle.Render("Queue is empty"))
		return b.String()
	}

	b.WriteString(m.taskTable())
	b.WriteString("\n")
	b.WriteString(m.settingsLine())
	b.WriteString("\n\n")
	b.WriteString(m.previewBody())
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(listDimStyle.Render("  " + m.status))
	}
	return b.String()
}

func (m previewModel) taskTable() string {
	end := min(m.offset+listHeight, len(m.tasks))

	rows := [][]string{}
	for i := m.offset; i < end; i++ {
		t := m.tasks[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, t.Name(), t.Magnification.DisplayText(), t.Alignment.String()})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Image", "Magnification", "Align").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.offset+row == m.cursor {
				return listSelectedStyle
			}
			return listNormalStyle
		})

	return t.Render() + "\n" + listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.tasks)))
}

func (m previewModel) settingsLine() string {
	parts := []string{
		StyleHighlight.Render(string(m.mode)),
		fmt.Sprintf("margins %d/%d", m.marginLeft, m.marginBottom),
	}
	if m.dirty || m.marginsDirty {
		parts = append(parts, StyleWarning.Render("unsaved"))
	}
	if m.ctrl != nil {
		parts = append(parts, listDimStyle.Render(m.ctrl.State().String()))
	}
	return "  " + strings.Join(parts, listDimStyle.Render(" · "))
}

func (m previewModel) previewBody() string {
	r := m.result
	switch {
	case r == nil:
		return listDimStyle.Render("  rendering…")
	case r.Err != nil:
		code := errors.GetCode(r.Err)
		return styleFailed.Render(fmt.Sprintf("  %s: %s", code, errors.UserMessage(r.Err)))
	}

	cols := max(minPreviewCols, m.cols-4)
	rows := max(4, m.rows-listHeight-12)
	blocks, err := renderBlocks(r.Preview.Data, cols, rows)
	if err != nil {
		return styleFailed.Render("  " + err.Error())
	}

	state := "fresh"
	if r.Preview.Cached {
		state = "cached"
	}
	info := listDimStyle.Render(fmt.Sprintf("  %s · %dx%d · %s", filepath.Base(r.Request.ImagePath), r.Preview.Width, r.Preview.Height, state))
	return blocks + "\n" + info
}

// renderBlocks draws a PNG with upper half blocks, two pixel rows per text
// row, fitted into cols x rows cells.
func renderBlocks(data []byte, cols, rows int) (string, error) {
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode preview: %w", err)
	}
	img := imaging.Fit(src, cols, rows*2, imaging.Box)
	bounds := img.Bounds()

	var b strings.Builder
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 2 {
		b.WriteString("  ")
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			top := img.NRGBAAt(x, y)
			bottom := top
			if y+1 < bounds.Max.Y {
				bottom = img.NRGBAAt(x, y+1)
			}
			b.WriteString(lipgloss.NewStyle().
				Foreground(hexColor(top)).
				Background(hexColor(bottom)).
				Render("▀"))
		}
		if y+2 < bounds.Max.Y {
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

func hexColor(c color.Color) lipgloss.Color {
	r, g, b, _ := c.RGBA()
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8))
}
