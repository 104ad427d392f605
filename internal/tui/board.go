package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/notnil/chess"
)

var pieceGlyphs = map[chess.Piece]string{
	chess.WhiteKing:   "♔",
	chess.WhiteQueen:  "♕",
	chess.WhiteRook:   "♖",
	chess.WhiteBishop: "♗",
	chess.WhiteKnight: "♘",
	chess.WhitePawn:   "♙",
	chess.BlackKing:   "♚",
	chess.BlackQueen:  "♛",
	chess.BlackRook:   "♜",
	chess.BlackBishop: "♝",
	chess.BlackKnight: "♞",
	chess.BlackPawn:   "♟",
}

var (
	lightSquareStyle = lipgloss.NewStyle().Background(lipgloss.Color("#B58863")).Foreground(lipgloss.Color("#1A1A1A"))
	darkSquareStyle  = lipgloss.NewStyle().Background(lipgloss.Color("#8A5A3C")).Foreground(lipgloss.Color("#1A1A1A"))
	targetStyle      = lipgloss.NewStyle().Background(lipgloss.Color("#3C8A5A")).Foreground(lipgloss.Color("#F0F0F0"))
	coordStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// renderBoard draws the position as an 8x8 grid with rank and file
// coordinates. flipped shows the board from Black's side. targets maps
// square names (e.g. "e4") to the number of counted moves landing there;
// those squares are highlighted and squares hit more than once show the
// count instead of the occupant.
func renderBoard(pos *chess.Position, flipped bool, targets map[string]int) string {
	board := pos.Board()
	var b strings.Builder
	for row := 0; row < 8; row++ {
		rank := 7 - row
		if flipped {
			rank = row
		}
		b.WriteString(coordStyle.Render(string(rune('1' + rank))))
		b.WriteByte(' ')
		for col := 0; col < 8; col++ {
			file := col
			if flipped {
				file = 7 - col
			}
			sq := chess.Square(rank*8 + file)
			cell := " " + glyphAt(board, sq) + " "
			style := darkSquareStyle
			if (rank+file)%2 == 1 {
				style = lightSquareStyle
			}
			if n, ok := targets[sq.String()]; ok {
				style = targetStyle
				if n > 1 && n < 10 {
					cell = " " + string(rune('0'+n)) + " "
				}
			}
			b.WriteString(style.Render(cell))
		}
		b.WriteByte('\n')
	}
	b.WriteString("  ")
	for col := 0; col < 8; col++ {
		file := col
		if flipped {
			file = 7 - col
		}
		b.WriteString(coordStyle.Render(" " + string(rune('a'+file)) + " "))
	}
	return b.String()
}

func glyphAt(board *chess.Board, sq chess.Square) string {
	piece := board.Piece(sq)
	if glyph, ok := pieceGlyphs[piece]; ok {
		return glyph
	}
	return " "
}

// targetCounts folds a target list into per-square counts for rendering.
func targetCounts(squares []string) map[string]int {
	counts := make(map[string]int, len(squares))
	for _, sq := range squares {
		counts[sq]++
	}
	return counts
}
