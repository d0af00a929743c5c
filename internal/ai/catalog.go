package ai

// ProviderInfo is the static catalog entry for one provider: instant UI
// defaults before any network call, and the fallback when a live model-list
// fetch fails.
type ProviderInfo struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	DefaultModel string  `json:"default_model"`
	Models       []Model `json:"models"`
}

// GlobalFallbackModel is returned when a provider declares neither a default
// nor any static model.
const GlobalFallbackModel = "qwen/qwen-vl-plus:free"

const (
	ProviderGroq       = "groq"
	ProviderHelpingAI  = "helpingai"
	ProviderOpenRouter = "openrouter"
)

var catalog = []ProviderInfo{
	{
		ID:           ProviderGroq,
		Name:         "Groq",
		DefaultModel: "llama3-70b-8192",
		Models: []Model{
			{ID: "llama3-70b-8192", Name: "Llama-3 70B", Description: "Groq language model", ContextLength: 8192},
			{ID: "llama3-8b-8192", Name: "Llama-3 8B", Description: "Groq language model", ContextLength: 8192},
			{ID: "mixtral-8x7b-32768", Name: "Mixtral 8x7B", Description: "Groq language model", ContextLength: 32768},
		},
	},
	{
		ID:           ProviderHelpingAI,
		Name:         "HelpingAI",
		DefaultModel: "HelpingAI2.5-10B",
		Models: []Model{
			{ID: "HelpingAI2.5-10B", Name: "HelpingAI2.5-10B", Description: "HelpingAI language model", ContextLength: 4096},
		},
	},
	{
		ID:           ProviderOpenRouter,
		Name:         "OpenRouter",
		DefaultModel: "qwen/qwen-vl-plus:free",
		Models: []Model{
			{ID: "qwen/qwen-vl-plus:free", Name: "qwen/qwen-vl-plus:free", Description: "OpenRouter language model", ContextLength: 4096},
		},
	},
}

// Catalog returns the static provider catalog in declaration order.
func Catalog() []ProviderInfo {
	out := make([]ProviderInfo, len(catalog))
	copy(out, catalog)
	return out
}

// CatalogEntry looks up one provider's static entry.
func CatalogEntry(providerID string) (ProviderInfo, bool) {
	for _, p := range catalog {
		if p.ID == providerID {
			return p, true
		}
	}
	return ProviderInfo{}, false
}

// StaticModels returns the built-in model list for a provider.
func StaticModels(providerID string) []Model {
	p, ok := CatalogEntry(providerID)
	if !ok {
		return nil
	}
	return append([]Model(nil), p.Models...)
}

// ResolveDefaultModel never returns an empty model id for a registered
// provider: declared default, else first static model, else the global
// fallback.
func ResolveDefaultModel(providerID string) string {
	p, ok := CatalogEntry(providerID)
	if !ok {
		return GlobalFallbackModel
	}
	if p.DefaultModel != "" {
		return p.DefaultModel
	}
	if len(p.Models) > 0 {
		return p.Models[0].ID
	}
	return GlobalFallbackModel
}
