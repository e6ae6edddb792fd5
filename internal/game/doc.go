// Package game implements clock patience: thirteen rank-named piles dealt
// face down from one deck, revealed one card at a time and placed on the
// pile matching the card's rank.
//
// # Basic Usage
//
//	d := deck.NewDeck(deck.WithSeed(deck.SeedFromID("default")))
//	g := game.New(d, game.WithRules(game.OriginalRules{}))
//	g.Shuffle(26)
//	g.Start()
//	for pile, ok := g.NextFlipPile(); ok; pile, ok = g.NextFlipPile() {
//	    card, _ := g.Flip(pile)
//	    res, _ := g.Place(card.Rank)
//	    if res.GameOver {
//	        break
//	    }
//	}
//
// # Rules
//
// Placement outcomes are decided by a RuleSet. Each accepted placement runs
// three triggers in a fixed order:
//   - own-pile completion: a pile reaching four cards from its own stack
//     ends the game, as a win only when that move completes everything
//   - four Kings: the fourth King placed face up ends the game, as a loss
//     while any card is still face down
//   - global completion: all thirteen piles full with nothing face down
//
// OriginalRules evaluates the own-pile trigger after the card lands;
// AlternativeRules evaluates it beforehand with a one-card lookahead.
//
// Game has no internal locking. Rejected operations return *Error and leave
// the game untouched.
package game
