package main

import (
	"fmt"
	"strings"

	"github.com/lox/clockpatience/internal/deck"
	"github.com/lox/clockpatience/internal/game"
)

// ShuffleCmd previews the deterministic deck order for a game identifier
type ShuffleCmd struct {
	GameID   string `kong:"name='game-id',default='default',help='Game identifier the deck seed is derived from'"`
	Cut      []int  `kong:"short='c',help='Cut point for each shuffle, in order (repeatable)'"`
	Unseeded bool   `kong:"help='Use the unseeded deck a reset produces'"`
	Deal     bool   `kong:"help='Also show the dealt face-down piles'"`
}

func (c *ShuffleCmd) Run() error {
	opts := []deck.Option{}
	if !c.Unseeded {
		seed := deck.SeedFromID(c.GameID)
		opts = append(opts, deck.WithSeed(seed))
		fmt.Printf("Game %q seed %d\n", c.GameID, seed)
	}
	g := game.New(deck.NewDeck(opts...), game.WithID(c.GameID))

	printDeck("start", g.Deck().Cards())
	for i, cut := range c.Cut {
		cards, err := g.Shuffle(cut)
		if err != nil {
			return err
		}
		printDeck(fmt.Sprintf("#%d cut %d", i+1, cut), cards)
	}

	if !c.Deal {
		return nil
	}
	// Start deals from the front of the deck, four cards per pile from A to K
	cards := g.Deck().Cards()
	fmt.Println("Dealt piles (face down, next flip first):")
	for i, rank := range deck.AllRanks() {
		lo := min(i*game.PileSize, len(cards))
		hi := min(lo+game.PileSize, len(cards))
		fmt.Printf("  %2s: %s\n", rank, formatCards(cards[lo:hi]))
	}
	return nil
}

func printDeck(label string, cards []deck.Card) {
	fmt.Printf("%s:\n", label)
	for i := 0; i < len(cards); i += deck.NumRanks {
		end := min(i+deck.NumRanks, len(cards))
		fmt.Printf("  %s\n", formatCards(cards[i:end]))
	}
}

func formatCards(cards []deck.Card) string {
	parts := make([]string, len(cards))
	for i, card := range cards {
		parts[i] = fmt.Sprintf("%3s", card)
	}
	return strings.Join(parts, " ")
}
