package tictactoe

import (
	"errors"
	"strings"
	"unicode"
)

const (
	// Size is the number of cells on the board.
	Size = 9

	emptyID   int8 = 0
	maxTokens      = 2
)

var (
	ErrInvalidToken   = errors.New("invalid player token")
	ErrTooManyPlayers = errors.New("board already has two players")
)

// lines are checked in this order: rows, columns, diagonals.
var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Lines returns the eight winning lines in check order.
func Lines() [8][3]int {
	return lines
}

// ValidToken reports whether token can label a player: non-empty and
// free of whitespace.
func ValidToken(token string) bool {
	if token == "" {
		return false
	}

	return !strings.ContainsFunc(token, unicode.IsSpace)
}

// Board is a 3x3 grid. Cells hold 0 for empty or the numeric id of the
// registered token that occupies them.
type Board struct {
	cells  [Size]int8
	tokens []string
}

func New(tokens ...string) (*Board, error) {
	b := &Board{tokens: make([]string, 0, maxTokens)}
	for _, t := range tokens {
		if _, err := b.AddPlayer(t); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// AddPlayer registers token and returns its id. Ids start at 1 and follow
// registration order. Registering a known token returns its existing id.
func (b *Board) AddPlayer(token string) (int8, error) {
	if !ValidToken(token) {
		return emptyID, ErrInvalidToken
	}

	if id, ok := b.PlayerID(token); ok {
		return id, nil
	}

	if len(b.tokens) >= maxTokens {
		return emptyID, ErrTooManyPlayers
	}

	b.tokens = append(b.tokens, token)
	return int8(len(b.tokens)), nil
}

func (b *Board) PlayerID(token string) (int8, bool) {
	for i, t := range b.tokens {
		if t == token {
			return int8(i + 1), true
		}
	}

	return emptyID, false
}

// Token returns the token registered under id, or "" for empty/unknown ids.
func (b *Board) Token(id int8) string {
	if id <= emptyID || int(id) > len(b.tokens) {
		return ""
	}

	return b.tokens[id-1]
}

func (b *Board) Tokens() []string {
	tokens := make([]string, len(b.tokens))
	copy(tokens, b.tokens)
	return tokens
}

func (b *Board) Reset() {
	b.cells = [Size]int8{}
}

func (b *Board) IsValidMove(pos int) bool {
	return inBounds(pos) && b.cells[pos] == emptyID
}

// PlaceToken marks pos with token. It returns false and leaves the board
// untouched if the move is invalid or the token was never registered.
func (b *Board) PlaceToken(pos int, token string) bool {
	if !b.IsValidMove(pos) {
		return false
	}

	id, ok := b.PlayerID(token)
	if !ok {
		return false
	}

	b.cells[pos] = id
	return true
}

// ClearPosition empties a single cell. Out of range positions are ignored.
func (b *Board) ClearPosition(pos int) {
	if !inBounds(pos) {
		return
	}

	b.cells[pos] = emptyID
}

// At returns the token at pos, or "" if the cell is empty or out of range.
func (b *Board) At(pos int) string {
	if !inBounds(pos) {
		return ""
	}

	return b.Token(b.cells[pos])
}

func (b *Board) Cells() [Size]int8 {
	return b.cells
}

// CheckForWinner returns the token owning the first complete line.
func (b *Board) CheckForWinner() (string, bool) {
	for _, l := range lines {
		id := b.cells[l[0]]
		if id == emptyID {
			continue
		}

		if b.cells[l[1]] == id && b.cells[l[2]] == id {
			return b.Token(id), true
		}
	}

	return "", false
}

func (b *Board) IsFull() bool {
	for _, c := range b.cells {
		if c == emptyID {
			return false
		}
	}

	return true
}

// IsTerminal reports whether the board has a winner or no empty cell.
func (b *Board) IsTerminal() bool {
	if _, ok := b.CheckForWinner(); ok {
		return true
	}

	return b.IsFull()
}

// Hash is the canonical state key: one digit per cell in row-major order,
// '0' for empty and the player id otherwise.
func (b *Board) Hash() string {
	var buf [Size]byte
	for i, c := range b.cells {
		buf[i] = '0' + byte(c)
	}

	return string(buf[:])
}

// ValidMovesForHash returns the positions marked empty in hash.
func ValidMovesForHash(hash string) []int {
	moves := make([]int, 0, Size)
	for i := 0; i < len(hash) && i < Size; i++ {
		if hash[i] == '0' {
			moves = append(moves, i)
		}
	}

	return moves
}

func (b *Board) OpenPositions() []int {
	moves := make([]int, 0, Size)
	for i, c := range b.cells {
		if c == emptyID {
			moves = append(moves, i)
		}
	}

	return moves
}

func (b *Board) Clone() *Board {
	return &Board{
		cells:  b.cells,
		tokens: b.Tokens(),
	}
}

// String renders the board as three rows, empty cells showing their index.
func (b *Board) String() string {
	s := strings.Builder{}
	for i := range Size {
		mark := b.At(i)
		if mark == "" {
			mark = string(rune('0' + i))
		}

		s.WriteString(" " + mark + " ")
		if (i+1)%3 != 0 {
			s.WriteString("|")
			continue
		}

		s.WriteString("\n")
		if i < Size-1 {
			s.WriteString("-----------\n")
		}
	}

	return s.String()
}

func inBounds(pos int) bool {
	return pos >= 0 && pos < Size
}
