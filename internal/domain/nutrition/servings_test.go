package nutrition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseServings(t *testing.T) {
	s := func(v string) *string { return &v }

	assert.Equal(t, 4, ParseServings(s("Serves 4-6")))
	assert.Equal(t, 8, ParseServings(s("8 servings")))
	assert.Equal(t, 12, ParseServings(s("Makes about 12 cookies")))
	assert.Equal(t, 1, ParseServings(nil))
	assert.Equal(t, 1, ParseServings(s("")))
	assert.Equal(t, 1, ParseServings(s("a crowd")))
	assert.Equal(t, 1, ParseServings(s("0")))
	assert.Equal(t, 1, ParseServings(s("99999999999999999999999")))
}

func TestNormalizeServings(t *testing.T) {
	assert.Equal(t, 1, NormalizeServings(0))
	assert.Equal(t, 1, NormalizeServings(-3))
	assert.Equal(t, 6, NormalizeServings(6))
}
