package game

import "strings"

// Marker is a rank symbol the evaluator is instructed to print next to each player.
type Marker struct {
	Symbol string
	Label  string
	Points int
}

// Markers are checked in this order. Every rank is worth the same flat award;
// the label is informational only.
var Markers = []Marker{
	{Symbol: "🥇", Label: "GOLD MEDAL", Points: 10},
	{Symbol: "🥈", Label: "SILVER MEDAL", Points: 10},
	{Symbol: "🥉", Label: "BRONZE MEDAL", Points: 10},
	{Symbol: "🤔", Label: "PARTICIPATION TROPHY", Points: 10},
	{Symbol: "🚨", Label: "We Need to Talk", Points: 10},
}

// markerRadius is how many runes on each side of a marker are searched for a name.
const markerRadius = 100

// ExtractAwards recovers per-player round awards from free-form evaluator text.
// For each marker present, only its first occurrence is considered; a player is
// awarded the first marker whose surrounding window mentions their name
// (case-insensitive). Every player is present in the result, defaulting to 0.
// The result is keyed by player ID.
func ExtractAwards(text string, players []Player) map[string]int {
	awards := make(map[string]int, len(players))
	runes := []rune(text)

	windows := make([]string, len(Markers))
	for i, m := range Markers {
		idx := runeIndex(runes, []rune(m.Symbol))
		if idx < 0 {
			continue
		}
		lo := idx - markerRadius
		if lo < 0 {
			lo = 0
		}
		hi := idx + markerRadius
		if hi > len(runes) {
			hi = len(runes)
		}
		windows[i] = strings.ToLower(string(runes[lo:hi]))
	}

	for _, p := range players {
		awards[p.ID] = 0
		name := strings.ToLower(strings.TrimSpace(p.Name))
		if name == "" {
			continue
		}
		for i, m := range Markers {
			if windows[i] == "" {
				continue
			}
			if strings.Contains(windows[i], name) {
				awards[p.ID] = m.Points
				break
			}
		}
	}
	return awards
}

func runeIndex(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j := range needle {
			if haystack[i+j] != needle[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}
