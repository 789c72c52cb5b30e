package plugin

const mcpServersRepo = "https://github.com/modelcontextprotocol/servers/tree/main/src/"

var catalog = []Available{
	{Name: "filesystem", Description: "Read, write, search and move files", Runtime: RuntimeNode, Category: "io"},
	{Name: "brave-search", Description: "Web search through the Brave Search API", Runtime: RuntimeNode, Category: "search"},
	{Name: "github", Description: "GitHub issues, pull requests and repositories", Runtime: RuntimeNode, Category: "devtools"},
	{Name: "sqlite", Description: "Query and modify SQLite databases", Runtime: RuntimeNode, Category: "storage"},
	{Name: "puppeteer", Description: "Browser automation for scraping and screenshots", Runtime: RuntimeNode, Category: "web"},
	{Name: "google-maps", Description: "Geocoding and directions through Google Maps", Runtime: RuntimeNode, Category: "location"},
	{Name: "slack", Description: "Slack messaging", Runtime: RuntimeNode, Category: "messaging"},
	{Name: "memory", Description: "Knowledge-graph backed long-term memory", Runtime: RuntimeNode, Category: "storage"},
}

// Catalog returns the recommended plugins. Installed is always false; use
// Manager.Available to mark the installed ones.
func Catalog() []Available {
	out := make([]Available, len(catalog))
	for i, a := range catalog {
		a.Source = mcpServersRepo + a.Name
		out[i] = a
	}
	return out
}
