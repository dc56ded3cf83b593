package cmd

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rubiojr/hnsearch/pkg/session"
	"github.com/rubiojr/hnsearch/pkg/view"
)

// loadedModel returns a model whose session finished its first search.
func loadedModel(t *testing.T) tuiModel {
	t.Helper()
	sess, err := newSession(testConfig(t), "tui-test")
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	t.Cleanup(sess.Close)

	m := newTUIModel(sess, "redux")
	if _, err := sess.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := sess.WaitIdle(ctx)
	if err != nil {
		t.Fatalf("WaitIdle: %v", err)
	}

	next, _ := m.Update(snapshotMsg(snap))
	return next.(tuiModel)
}

func press(t *testing.T, m tuiModel, key string) (tuiModel, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	return next.(tuiModel), cmd
}

func TestTUISortToggle(t *testing.T) {
	m := loadedModel(t)

	m, _ = press(t, m, "4")
	if m.sorter != (view.Sorter{Key: view.SortPoints}) {
		t.Fatalf("unexpected sorter %+v", m.sorter)
	}
	if hits := m.visibleHits(); hits[0].ObjectID != "2" {
		t.Errorf("expected highest points first, got %s", hits[0].ObjectID)
	}

	m, _ = press(t, m, "4")
	if !m.sorter.Reverse {
		t.Error("second press should reverse")
	}
	m, _ = press(t, m, "0")
	if m.sorter.Key != view.SortNone {
		t.Errorf("expected unsorted, got %+v", m.sorter)
	}
}

func TestTUIDismissSelected(t *testing.T) {
	m := loadedModel(t)

	m, _ = press(t, m, "down")
	if m.cursor != 1 {
		t.Fatalf("expected cursor on second row, got %d", m.cursor)
	}

	m, cmd := press(t, m, "d")
	if cmd == nil {
		t.Fatal("expected dismiss command")
	}
	if msg := cmd(); msg != nil {
		t.Fatalf("dismiss failed: %v", msg)
	}

	snap, err := m.sess.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Hits) != 1 || snap.Hits[0].ObjectID != "1" {
		t.Errorf("expected hit 2 dismissed, got %+v", snap.Hits)
	}

	next, _ := m.Update(snapshotMsg(snap))
	m = next.(tuiModel)
	if m.cursor != 0 {
		t.Errorf("cursor should be clamped to the remaining row, got %d", m.cursor)
	}
}

func TestTUISearchInput(t *testing.T) {
	m := loadedModel(t)

	m, _ = press(t, m, "/")
	if !m.input.Focused() {
		t.Fatal("expected input focus")
	}
	m.input.SetValue("")
	m, _ = press(t, m, "g")
	m, _ = press(t, m, "o")
	if m.input.Value() != "go" {
		t.Fatalf("input = %q", m.input.Value())
	}

	m, cmd := press(t, m, "enter")
	if m.input.Focused() {
		t.Error("enter should leave the input")
	}
	if msg := cmd(); msg != nil {
		t.Fatalf("submit failed: %v", msg)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := m.sess.WaitIdle(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.ActiveTerm != "go" {
		t.Errorf("expected go submitted, got %q", snap.ActiveTerm)
	}
}

func TestTUIView(t *testing.T) {
	m := loadedModel(t)
	out := m.View()
	for _, want := range []string{"redux", "Redux", "Actions", "q quit"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m.snap.Err = session.ErrClosed
	if out := m.View(); !strings.Contains(out, "Something went wrong.") || strings.Contains(out, "Actions") {
		t.Errorf("failed view should hide results:\n%s", out)
	}

	m, cmd := press(t, m, "q")
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestTUIActionError(t *testing.T) {
	m := loadedModel(t)
	next, _ := m.Update(actionErrMsg{session.ErrEmptyTerm})
	m = next.(tuiModel)
	if !strings.Contains(m.View(), session.ErrEmptyTerm.Error()) {
		t.Error("expected action error shown")
	}
}
