package mcts

import (
	"math"
	"slices"

	"github.com/Zarux/tttagents/pkg/tictactoe"
)

type node struct {
	Parent   *node
	Children []*node

	Move  int
	Token string

	Wins   float64
	Visits int

	UntriedMoves []int

	agent *Agent
}

func (n *node) canExpand() bool {
	return len(n.UntriedMoves) > 0
}

func (n *node) uctValue() float64 {
	if n.Visits == 0 {
		return math.Inf(1)
	}

	explorationParam := n.agent.explorationParam
	parentVisits := n.Parent.Visits
	nWinRate := n.Wins / float64(n.Visits)
	logPVisit := math.Log(float64(parentVisits))

	return nWinRate + explorationParam*math.Sqrt(logPVisit/float64(n.Visits))
}

func (n *node) selectChild() *node {
	best := n.Children[0]
	bestVal := best.uctValue()

	for _, c := range n.Children[1:] {
		v := c.uctValue()
		if v > bestVal {
			best = c
			bestVal = v
		}
	}

	return best
}

// expand plays one untried move for token and attaches the child.
func (n *node) expand(board *tictactoe.Board, token string) *node {
	move := n.UntriedMoves[n.agent.rng.IntN(len(n.UntriedMoves))]
	n.UntriedMoves = slices.DeleteFunc(n.UntriedMoves, func(cmp int) bool {
		return cmp == move
	})

	board.PlaceToken(move, token)

	var untried []int
	if !board.IsTerminal() {
		untried = board.OpenPositions()
	}

	child := &node{
		Parent:       n,
		Move:         move,
		Token:        token,
		UntriedMoves: untried,
		agent:        n.agent,
	}

	n.Children = append(n.Children, child)
	return child
}

const winValue = 1
const drawValue = 0.6

func (n *node) backpropagate(winner string) {
	for n != nil {
		n.Visits++
		switch winner {
		case "":
			n.Wins += drawValue
		case n.Token:
			n.Wins += winValue
		}

		n = n.Parent
	}
}
