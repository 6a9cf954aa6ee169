package emit

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiteralJSON(t *testing.T) {
	for _, num := range []float64{0, 1.5, math.Inf(1), math.Inf(-1), math.NaN()} {
		b, err := json.Marshal([]Literal{{Kind: NumberLiteral, Num: num}})
		require.NoError(t, err)
		var got []Literal
		require.NoError(t, json.Unmarshal(b, &got))
		require.Len(t, got, 1)
		if math.IsNaN(num) {
			assert.True(t, math.IsNaN(got[0].Num))
		} else {
			assert.Equal(t, num, got[0].Num)
		}
	}

	cooked := "a"
	in := Literal{Kind: TemplateLiteral, Cooked: []*string{&cooked, nil}, Raw: []string{"a", `\u`}}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	var got Literal
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, in, got)
}
