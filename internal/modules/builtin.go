package modules

// Built-in palette modules. Core modules are always active in the IDE.
var builtinModules = []Descriptor{
	{ID: "ui", Name: "UI", Type: TypeCore, Description: "Core blocks for building page layouts and widgets"},
	{ID: "values", Name: "Values", Type: TypeCore, Description: "Core text, number and variable blocks"},
	{ID: "linkedin", Name: "LinkedIn", Type: TypePublicAPI, Description: "LinkedIn REST API: profile, connections and posts"},
	{ID: "openai", Name: "OpenAI", Type: TypePublicAPI, Description: "OpenAI API: chat completions, models and embeddings"},
	{ID: "mcp", Name: "MCP", Type: TypePublicAPI, Description: "Model Context Protocol tool server"},
}

var builtinSpecs = map[string]Spec{
	"linkedin": {
		BaseURL: "https://api.linkedin.com/v2",
		Auth:    true,
		Blocks: map[string]Block{
			"get_profile":     {Method: "GET", Path: "/me", Summary: "Get my profile", Params: []Param{}},
			"get_person":      {Method: "GET", Path: "/people/{id}", Summary: "Get person", Params: []Param{{Name: "id"}}},
			"get_connections": {Method: "GET", Path: "/connections", Summary: "List connections", Params: []Param{}},
			"share_post":      {Method: "POST", Path: "/ugcPosts", Summary: "Share a post", Params: []Param{{Name: "text"}}},
		},
	},
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Auth:    true,
		Blocks: map[string]Block{
			"chat_completion":  {Method: "POST", Path: "/chat/completions", Summary: "Chat completion", Params: []Param{{Name: "prompt"}}},
			"list_models":      {Method: "GET", Path: "/models", Summary: "List models", Params: []Param{}},
			"create_embedding": {Method: "POST", Path: "/embeddings", Summary: "Create embedding", Params: []Param{{Name: "input"}}},
		},
	},
	"mcp": {
		BaseURL: "http://localhost:8080/mcp",
		Auth:    false,
		Blocks: map[string]Block{
			"list_tools":     {Method: "GET", Path: "/tools", Summary: "List tools", Params: []Param{}},
			"call_tool":      {Method: "POST", Path: "/tools/{name}/call", Summary: "Call tool", Params: []Param{{Name: "name"}}},
			"list_resources": {Method: "GET", Path: "/resources", Summary: "List resources", Params: []Param{}},
		},
	},
}
