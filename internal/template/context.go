package template

// MergeContexts merges data maps; later maps win.
func MergeContexts(contexts ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, c := range contexts {
		for k, v := range c {
			out[k] = v
		}
	}
	return out
}
