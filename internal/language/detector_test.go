package language

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/trade-ledger/constants"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		name string
		text string
		want constants.Language
	}{
		{"swahili sale", "nimeuza nyanya leo", constants.Swahili},
		{"english sale", "I sold tomatoes today", constants.English},
		{"mixed case swahili", "NIMENUNUA Sukari kilo 2", constants.Swahili},
		{"swahili with punctuation", "Deni: John, 500/=", constants.Swahili},
		{"substring is not a keyword", "bananas and kayaks", constants.English},
		{"empty", "", constants.English},
		{"numbers only", "500 200", constants.English},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Detect(c.text))
		})
	}
}

func TestResolve(t *testing.T) {
	assert.Equal(t, constants.Swahili, Resolve("I sold tomatoes", "sw"))
	assert.Equal(t, constants.English, Resolve("nimeuza nyanya", "english"))
	assert.Equal(t, constants.Swahili, Resolve("nimeuza nyanya", ""))
	assert.Equal(t, constants.English, Resolve("sold rice", "fr"))
}
