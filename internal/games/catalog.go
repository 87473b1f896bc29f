package games

// Game is one entry of the static catalog. Rewards are fixed per game and
// paid in whole FCFA; nothing is computed from performance.
type Game struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Reward      int64  `json:"reward"`
	DurationSec int    `json:"duration_sec"`
	Difficulty  string `json:"difficulty"`
	Image       string `json:"image"`
}

// Catalog mirrors the launch lineup.
var Catalog = []Game{
	{ID: "1", Title: "Quiz Culture", Category: "Quiz", Reward: 500, DurationSec: 180, Difficulty: "easy", Image: "🧠"},
	{ID: "2", Title: "Memory Master", Category: "Mémoire", Reward: 750, DurationSec: 300, Difficulty: "medium", Image: "🎯"},
	{ID: "3", Title: "Speed Math", Category: "Mathématiques", Reward: 1000, DurationSec: 240, Difficulty: "hard", Image: "🔢"},
	{ID: "4", Title: "Word Puzzle", Category: "Mots", Reward: 600, DurationSec: 180, Difficulty: "easy", Image: "📝"},
	{ID: "5", Title: "Color Match", Category: "Réflexes", Reward: 450, DurationSec: 120, Difficulty: "easy", Image: "🎨"},
	{ID: "6", Title: "Logic Quest", Category: "Logique", Reward: 850, DurationSec: 360, Difficulty: "medium", Image: "🧩"},
	{ID: "7", Title: "Geo Master", Category: "Quiz", Reward: 700, DurationSec: 240, Difficulty: "medium", Image: "🌍"},
	{ID: "8", Title: "Pattern Pro", Category: "Logique", Reward: 900, DurationSec: 300, Difficulty: "hard", Image: "🔷"},
}

// Find returns the catalog entry for id.
func Find(id string) (Game, bool) {
	for _, g := range Catalog {
		if g.ID == id {
			return g, true
		}
	}
	return Game{}, false
}

// ByCategory filters the catalog; an empty category returns everything.
func ByCategory(category string) []Game {
	if category == "" {
		return Catalog
	}
	var out []Game
	for _, g := range Catalog {
		if g.Category == category {
			out = append(out, g)
		}
	}
	return out
}
