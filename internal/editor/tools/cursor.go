package tools

import "segmate/internal/editor"

// Cursor edits nothing. It is the tool every editor starts with.
type Cursor struct {
	editor.BaseTool
}

// NewCursor creates a cursor tool.
func NewCursor() editor.Tool {
	return &Cursor{}
}
