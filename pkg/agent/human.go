package agent

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Zarux/tttagents/pkg/tictactoe"
)

// Human asks for moves on out and reads them from in, one per line.
type Human struct {
	Player
	in  *bufio.Scanner
	out io.Writer
}

func NewHuman(token string, in io.Reader, out io.Writer) (*Human, error) {
	p, err := NewPlayer(token)
	if err != nil {
		return nil, err
	}

	return &Human{Player: p, in: bufio.NewScanner(in), out: out}, nil
}

// SelectMove keeps asking until a valid position is entered. It returns
// NoAction only when the input is exhausted.
func (h *Human) SelectMove(b *tictactoe.Board) int {
	for {
		fmt.Fprintf(h.out, "%s\n%s to move (0-8): ", b, h.Token())
		if !h.in.Scan() {
			return NoAction
		}

		pos, err := strconv.Atoi(strings.TrimSpace(h.in.Text()))
		if err != nil || !b.IsValidMove(pos) {
			fmt.Fprintln(h.out, "invalid move, try again")
			continue
		}

		return pos
	}
}

func (h *Human) ReceiveOutcome(reward float64, _ Trajectory) {
	switch {
	case reward > 0:
		fmt.Fprintln(h.out, "you win")
	case reward < 0:
		fmt.Fprintln(h.out, "you lose")
	default:
		fmt.Fprintln(h.out, "draw")
	}
}
