package config

// Redaction replaces secret values in Redacted output.
const Redaction = "[REDACTED]"

// Redacted returns a copy of c with secrets replaced, safe to log or serve.
func (c Config) Redacted() Config {
	out := c
	out.AllowedCategories = append([]string(nil), c.AllowedCategories...)
	if out.Server.Token != "" {
		out.Server.Token = Redaction
	}
	if out.LLM.APIKey != "" {
		out.LLM.APIKey = Redaction
	}
	return out
}
