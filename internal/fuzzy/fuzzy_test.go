package fuzzy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"doom", "doom", 100},
		{"kitten", "sitting", 62},
		{"half", "half-life", 62},
		{"abc", "xyz", 0},
		{"abc", "", 0},
		{"", "", 0},
		{"ÉTÉ", "ÉTÉ", 100},
		// 200/80 = 2.5 and 600/80 = 7.5 round half to even.
		{"a" + strings.Repeat("b", 39), "a" + strings.Repeat("c", 39), 2},
		{"abc" + strings.Repeat("b", 37), "abc" + strings.Repeat("x", 37), 8},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, Ratio(tt.a, tt.b))
			assert.Equal(t, tt.want, Ratio(tt.b, tt.a), "ratio is symmetric")
		})
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		query     string
		want      float64
	}{
		{"exact", "Doom", "doom", 100},
		{"exact with case", "DOOM ETERNAL", "doom eternal", 100},
		{"prefix phrase", "Doom Eternal", "doom", 100},
		{"unicode case folding", "ÉTOILE", "étoile", 100},
		{"ordered alignment", "Eternal Doom", "doom eternal", 50},
		{"cursor stays on miss", "Portal 2", "xyz portal", 50},
		{"hyphen as word break", "Half-Life 2", "Half Life 2", 98},
		{"reordered words", "Half Life 2", "Life Half 2", 200.0 / 3},
		{"empty query", "Doom", "", 0},
		{"blank query", "Doom", "   ", 0},
		{"empty candidate", "", "doom", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.candidate, tt.query), 1e-9)
		})
	}
}

func TestScore_PunctuationInsensitive(t *testing.T) {
	assert.GreaterOrEqual(t, Score("Half-Life 2", "Half Life 2"), 90.0)
	assert.GreaterOrEqual(t, Score("Baldur's Gate 3", "baldurs gate 3"), 90.0)
	assert.GreaterOrEqual(t, Score("S.T.A.L.K.E.R. 2", "stalker 2"), 90.0)
}

func TestScore_ReorderingNeverHelps(t *testing.T) {
	assert.Less(t, Score("Half Life 2", "Life Half 2"), Score("Half Life 2", "Half Life 2"))
	assert.Less(t, Score("Doom Eternal", "eternal doom"), Score("Doom Eternal", "doom eternal"))
}

func TestScore_IdentityAndRange(t *testing.T) {
	names := []string{
		"Counter-Strike 2", "Dota 2", "Stardew Valley", "NieR:Automata™",
		"Tom Clancy's Rainbow Six® Siege", "東方Project", "A", "Half-Life: Alyx",
	}

	for _, n := range names {
		assert.InDelta(t, 100, Score(n, n), 1e-9, n)
		assert.InDelta(t, 100, Score(n, strings.ToUpper(n)), 1e-9, n)
		for _, q := range names {
			s := Score(n, q)
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 100.0)
		}
	}
}

func TestStripPunctuation(t *testing.T) {
	assert.Equal(t, "halflife 2", stripPunctuation("half-life 2", false))
	assert.Equal(t, "half life 2", stripPunctuation("half-life 2", true))
	assert.Equal(t, "snake_case", stripPunctuation("snake_case", false))
	assert.Equal(t, "naïve café", stripPunctuation("naïve café!", false))
}

func BenchmarkScore(b *testing.B) {
	for b.Loop() {
		Score("The Elder Scrolls V: Skyrim Special Edition", "elder scrolls skyrim")
	}
}
