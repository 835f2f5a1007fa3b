package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameMatchScore(t *testing.T) {
	assert.Equal(t, 1.0, NameMatchScore("Apple", " apple "))
	assert.Equal(t, 1.0, NameMatchScore("carrot", "Carrots, raw"))
	assert.Equal(t, 1.0, NameMatchScore("tomato", "Tomate"))
	assert.Equal(t, 1.0, NameMatchScore("chicken breast", "Chicken, broilers or fryers, breast, meat only, cooked, roasted"))
	assert.Equal(t, 0.0, NameMatchScore("banana", "Apple, raw"))
	assert.Equal(t, 0.0, NameMatchScore("", "Apple, raw"))
}

func TestNameMatchScore_Bounded(t *testing.T) {
	pairs := [][2]string{
		{"olive oil", "Olives, ripe, canned"},
		{"rice", "Rice, white, long-grain, cooked"},
		{"zucchini", "Courgette"},
		{"a", "b"},
		{"chocolate cookie brand", "Cookie"},
	}
	for _, p := range pairs {
		s := NameMatchScore(p[0], p[1])
		assert.GreaterOrEqual(t, s, 0.0, p)
		assert.LessOrEqual(t, s, 1.0, p)
	}
}

func TestExtractMustTokens(t *testing.T) {
	assert.Equal(t, []string{"egg"}, ExtractMustTokens("boiled large eggs"))
	assert.Equal(t, []string{"chicken", "breast"}, ExtractMustTokens("grilled chicken breasts 200g"))
	assert.Equal(t, []string{"raw"}, ExtractMustTokens("raw"))
	assert.Empty(t, ExtractMustTokens(""))
}

func TestMustTokensMatch(t *testing.T) {
	assert.True(t, MustTokensMatch("grilled chicken", "Chicken, roasted"))
	assert.True(t, MustTokensMatch("zucchini", "Courgette, raw"))
	assert.False(t, MustTokensMatch("rice", "Beans, black"))
	assert.False(t, MustTokensMatch("", "Beans, black"))
}
