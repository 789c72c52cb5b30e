package capability

// PortKind is the data type carried by a port. The set is closed.
type PortKind string

const (
	PortText          PortKind = "text"
	PortNumber        PortKind = "number"
	PortBoolean       PortKind = "boolean"
	PortJSON          PortKind = "json"
	PortFileRef       PortKind = "file-ref"
	PortDocument      PortKind = "document"
	PortImage         PortKind = "image"
	PortVector        PortKind = "vector"
	PortTextArray     PortKind = "text[]"
	PortChunkArray    PortKind = "chunk[]"
	PortLLMResponse   PortKind = "llm-response"
	PortSearchResults PortKind = "search-result[]"
	PortAny           PortKind = "any"
)

// AllPortKinds returns every declared port kind, in declaration order.
func AllPortKinds() []PortKind {
	return []PortKind{
		PortText,
		PortNumber,
		PortBoolean,
		PortJSON,
		PortFileRef,
		PortDocument,
		PortImage,
		PortVector,
		PortTextArray,
		PortChunkArray,
		PortLLMResponse,
		PortSearchResults,
		PortAny,
	}
}

// Valid reports whether k is one of the declared port kinds.
func (k PortKind) Valid() bool {
	_, ok := acceptedSources[k]
	return ok
}

// acceptedSources maps a target kind to the source kinds that may flow into
// it besides itself and PortAny. Every declared kind has an entry.
var acceptedSources = map[PortKind][]PortKind{
	PortText:          {PortNumber, PortBoolean, PortLLMResponse, PortDocument},
	PortNumber:        {},
	PortBoolean:       {},
	PortJSON:          {PortText, PortNumber, PortBoolean, PortTextArray, PortChunkArray, PortLLMResponse, PortSearchResults, PortVector},
	PortFileRef:       {},
	PortDocument:      {PortFileRef, PortText},
	PortImage:         {PortFileRef},
	PortVector:        {},
	PortTextArray:     {PortChunkArray, PortSearchResults},
	PortChunkArray:    {},
	PortLLMResponse:   {},
	PortSearchResults: {},
	PortAny:           {},
}

// IsCompatible reports whether a value produced by a source port may be wired
// into a target port.
func IsCompatible(source, target PortKind) bool {
	if source == target || source == PortAny || target == PortAny {
		return true
	}
	for _, k := range acceptedSources[target] {
		if k == source {
			return true
		}
	}
	return false
}
