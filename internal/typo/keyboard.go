// internal/typo/keyboard.go
package typo

// layout is the ЙЦУКЕН keyboard as physical rows. The '.' key holds its
// geometric slot so neighbourhoods match the real keyboard, but it is never
// offered as a replacement.
var layout = [][]rune{
	[]rune("йцукенгшщзхъ"),
	[]rune("фывапролджэ"),
	[]rune("ячсмитьбю."),
}

const placeholderKey = '.'

// Neighbours groups the letters around a key by physical distance.
type Neighbours struct {
	// Level1 holds the letters in the 8-neighbourhood.
	Level1 []rune
	// Level2 holds letters one more hop away, excluding Level1 and the key itself.
	Level2 []rune
	// Other holds every remaining layout letter.
	Other []rune
}

// adjacency is built once at package initialization and never mutated.
var adjacency = buildAdjacency()

type position struct{ row, col int }

var directions = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

func adjacentKeys(p position) []rune {
	keys := make([]rune, 0, len(directions))
	for _, d := range directions {
		r, c := p.row+d[0], p.col+d[1]
		if r < 0 || r >= len(layout) || c < 0 || c >= len(layout[r]) {
			continue
		}
		keys = append(keys, layout[r][c])
	}
	return keys
}

func buildAdjacency() map[rune]Neighbours {
	positions := make(map[rune]position)
	var letters []rune
	for r, row := range layout {
		for c, key := range row {
			positions[key] = position{r, c}
			if key != placeholderKey {
				letters = append(letters, key)
			}
		}
	}

	table := make(map[rune]Neighbours, len(letters))
	for _, letter := range letters {
		near := adjacentKeys(positions[letter])
		inLevel1 := make(map[rune]bool, len(near))
		for _, k := range near {
			inLevel1[k] = true
		}

		inLevel2 := make(map[rune]bool)
		var level2 []rune
		for _, n := range near {
			for _, k := range adjacentKeys(positions[n]) {
				if k == letter || inLevel1[k] || inLevel2[k] {
					continue
				}
				inLevel2[k] = true
				level2 = append(level2, k)
			}
		}

		var other []rune
		for _, k := range letters {
			if k != letter && !inLevel1[k] && !inLevel2[k] {
				other = append(other, k)
			}
		}

		table[letter] = Neighbours{
			Level1: lettersOnly(near),
			Level2: lettersOnly(level2),
			Other:  other,
		}
	}
	return table
}

func lettersOnly(keys []rune) []rune {
	out := make([]rune, 0, len(keys))
	for _, k := range keys {
		if k != placeholderKey {
			out = append(out, k)
		}
	}
	return out
}

// Lookup returns the neighbourhoods of a lowercase layout letter.
func Lookup(letter rune) (Neighbours, bool) {
	n, ok := adjacency[letter]
	return n, ok
}
