package editor

import (
	"image"

	"segmate/internal/draw"
)

// Command is one undoable step.
type Command interface {
	Text() string
	Undo()
	Redo()
}

// UndoStack is a linear command list with a cursor. Commands before the
// cursor are done, commands from the cursor on can be redone.
type UndoStack struct {
	commands []Command
	index    int
	limit    int

	listeners []func(index int)
}

// NewUndoStack creates an unbounded stack.
func NewUndoStack() *UndoStack {
	return &UndoStack{}
}

// SetLimit bounds the number of kept commands; 0 means unbounded. Excess
// redo commands are dropped first, then the oldest done ones.
func (s *UndoStack) SetLimit(n int) {
	if n < 0 {
		n = 0
	}
	s.limit = n
	if s.trim() {
		s.changed()
	}
}

// Limit returns the command limit, 0 if unbounded.
func (s *UndoStack) Limit() int {
	return s.limit
}

// Push records cmd as done. Everything after the cursor is discarded. The
// command is not executed: the edit it describes has already happened.
func (s *UndoStack) Push(cmd Command) {
	s.commands = append(s.commands[:s.index], cmd)
	s.index = len(s.commands)
	s.trim()
	s.changed()
}

func (s *UndoStack) trim() bool {
	if s.limit == 0 || len(s.commands) <= s.limit {
		return false
	}
	if keep := max(s.index, s.limit); keep < len(s.commands) {
		clear(s.commands[keep:])
		s.commands = s.commands[:keep]
	}
	if drop := len(s.commands) - s.limit; drop > 0 {
		s.commands = append([]Command(nil), s.commands[drop:]...)
		s.index -= drop
	}
	return true
}

// Undo reverts the command before the cursor. It returns false if there is
// nothing to undo.
func (s *UndoStack) Undo() bool {
	if !s.CanUndo() {
		return false
	}
	s.index--
	s.commands[s.index].Undo()
	s.changed()
	return true
}

// Redo re-applies the command at the cursor. It returns false if there is
// nothing to redo.
func (s *UndoStack) Redo() bool {
	if !s.CanRedo() {
		return false
	}
	cmd := s.commands[s.index]
	s.index++
	cmd.Redo()
	s.changed()
	return true
}

func (s *UndoStack) CanUndo() bool { return s.index > 0 }
func (s *UndoStack) CanRedo() bool { return s.index < len(s.commands) }

// UndoText returns the label of the command Undo would revert.
func (s *UndoStack) UndoText() string {
	if !s.CanUndo() {
		return ""
	}
	return s.commands[s.index-1].Text()
}

// RedoText returns the label of the command Redo would apply.
func (s *UndoStack) RedoText() string {
	if !s.CanRedo() {
		return ""
	}
	return s.commands[s.index].Text()
}

// Index returns the cursor position.
func (s *UndoStack) Index() int { return s.index }

// Count returns the number of commands on the stack.
func (s *UndoStack) Count() int { return len(s.commands) }

// Clear drops all commands.
func (s *UndoStack) Clear() {
	s.commands = nil
	s.index = 0
	s.changed()
}

// OnIndexChanged registers fn to be called after every push, undo, redo and
// clear.
func (s *UndoStack) OnIndexChanged(fn func(index int)) {
	s.listeners = append(s.listeners, fn)
}

func (s *UndoStack) changed() {
	for _, fn := range s.listeners {
		fn(s.index)
	}
}

// SnapshotCommand swaps a whole layer buffer. It keeps private copies of
// both states and hands out fresh copies, so later edits to a restored
// buffer never reach the stack.
type SnapshotCommand struct {
	text   string
	image  int
	layer  int
	before *image.RGBA
	after  *image.RGBA

	restore func(cmd *SnapshotCommand, buf *image.RGBA, verb string)
}

// NewSnapshotCommand copies before and after. restore is called with a copy
// of the state to put back into the layer.
func NewSnapshotCommand(text string, imageIdx, layer int, before, after *image.RGBA, restore func(cmd *SnapshotCommand, buf *image.RGBA, verb string)) *SnapshotCommand {
	return &SnapshotCommand{
		text:    text,
		image:   imageIdx,
		layer:   layer,
		before:  draw.Clone(before),
		after:   draw.Clone(after),
		restore: restore,
	}
}

func (c *SnapshotCommand) Text() string { return c.text }

// ImageIndex returns the image the command belongs to.
func (c *SnapshotCommand) ImageIndex() int { return c.image }

// LayerIndex returns the layer the command belongs to.
func (c *SnapshotCommand) LayerIndex() int { return c.layer }

func (c *SnapshotCommand) Undo() {
	if c.restore != nil {
		c.restore(c, draw.Clone(c.before), "Undo")
	}
}

func (c *SnapshotCommand) Redo() {
	if c.restore != nil {
		c.restore(c, draw.Clone(c.after), "Redo")
	}
}

// FuncCommand runs plain functions on undo and redo.
type FuncCommand struct {
	Label    string
	UndoFunc func()
	RedoFunc func()
}

func (c *FuncCommand) Text() string { return c.Label }

func (c *FuncCommand) Undo() {
	if c.UndoFunc != nil {
		c.UndoFunc()
	}
}

func (c *FuncCommand) Redo() {
	if c.RedoFunc != nil {
		c.RedoFunc()
	}
}
