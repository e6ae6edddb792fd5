package game

import (
	"fmt"
)

// AutoPlayResult summarises an automatic run
type AutoPlayResult struct {
	Status Status `json:"status"`
	Reason Reason `json:"reason,omitempty"`
	Moves  int    `json:"moves"`
	Flips  int    `json:"flips"`
}

// AutoPlay drives a started game until it ends or maxMoves placements have
// been made (0 means no limit). A pending card is placed first; after that it
// flips the suggested pile and places the card on its own rank, which is the
// only legal target.
func AutoPlay(g *Game, maxMoves int) (AutoPlayResult, error) {
	res := AutoPlayResult{Status: g.Status()}
	if err := g.requirePlaying("autoplay"); err != nil {
		return res, err
	}
	for !g.Status().Terminal() {
		if maxMoves > 0 && res.Moves >= maxMoves {
			break
		}

		card, pending := g.CurrentCard()
		if !pending {
			pile, ok := g.NextFlipPile()
			if !ok {
				break
			}
			flipped, err := g.Flip(pile)
			if err != nil {
				return res, fmt.Errorf("auto flip %s: %w", pile, err)
			}
			res.Flips++
			card = flipped
		}

		placed, err := g.Place(card.Rank)
		if err != nil {
			return res, fmt.Errorf("auto place %s: %w", card, err)
		}
		res.Moves++
		res.Reason = placed.Reason
	}
	res.Status = g.Status()
	return res, nil
}
