package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestAcceptedSourcesIsTotal(t *testing.T) {
	for _, k := range AllPortKinds() {
		_, ok := acceptedSources[k]
		assert.True(t, ok, "port kind %s has no adjacency entry", k)
	}
	assert.Len(t, acceptedSources, len(AllPortKinds()), "adjacency table lists an undeclared kind")

	for target, sources := range acceptedSources {
		for _, s := range sources {
			assert.True(t, s.Valid(), "%s accepts undeclared kind %s", target, s)
		}
	}
}

func TestIsCompatible(t *testing.T) {
	tests := []struct {
		source   PortKind
		target   PortKind
		expected bool
	}{
		{PortFileRef, PortDocument, true},
		{PortDocument, PortFileRef, false},
		{PortText, PortJSON, true},
		{PortJSON, PortText, false},
		{PortLLMResponse, PortText, true},
		{PortChunkArray, PortTextArray, true},
		{PortImage, PortText, false},
		{PortNumber, PortBoolean, false},
		{PortKind("custom"), PortKind("custom"), true},
		{PortKind("custom"), PortText, false},
		{PortKind("custom"), PortAny, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.source)+"->"+string(tt.target), func(t *testing.T) {
			assert.Equal(t, tt.expected, IsCompatible(tt.source, tt.target))
		})
	}
}

func TestIsCompatible_IdentityAndAny(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		k := rapid.SampledFrom(AllPortKinds()).Draw(rt, "kind")

		if !IsCompatible(k, k) {
			rt.Fatalf("%s is not compatible with itself", k)
		}
		if !IsCompatible(PortAny, k) || !IsCompatible(k, PortAny) {
			rt.Fatalf("%s is not compatible with any in both directions", k)
		}
	})
}
