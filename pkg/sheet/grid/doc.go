// Package grid describes the fixed geometry of a printable sheet.
//
// # Overview
//
// A [Template] is a page size plus an ordered list of equal-size cells laid
// out as a rows×columns grid. Cells are numbered in row-major order:
//
//	row = i / Columns
//	col = i % Columns
//
// The front of the card in slot i is drawn into cell i. Its back is drawn
// into cell [Template.Mirror](i), the same row with the column reversed, so
// that after the sheet is flipped on its long edge for duplex printing the
// back lands behind the front.
//
// # Reference Template
//
// [Reference] returns the reference sheet used by every export unless a
// caller builds its own with [New]: a 3600×5400 page, 3 columns × 6 rows of
// 1101×804 cells. Cards are drawn rotated by 90°, which is why the cells are
// landscape while the cards are portrait.
package grid
