package config

// VariantPreset describes the chat settings of a model variant.
type VariantPreset struct {
	Path            string
	Title           string
	Greeting        string
	Fallback        string
	AssistantAvatar string
}

// variantPresets maps each variant to its chat settings.
var variantPresets = map[Variant]VariantPreset{
	VariantDefault: {
		Path:            "/ask-ia",
		Title:           "Leis Ambientais",
		Greeting:        "Olá! Como posso ajudar você hoje?",
		Fallback:        "Desculpe, ocorreu um erro ao tentar conectar-me à IA.",
		AssistantAvatar: "🤖",
	},
	VariantO3: {
		Path:            "/ask-ia-o3",
		Title:           "Leis Ambientais (o3)",
		Greeting:        "🧠 Olá! Sou o modelo o3 da OpenAI. Como posso ajudar você hoje?",
		Fallback:        "Desculpe, ocorreu um erro ao tentar conectar-me ao modelo o3.",
		AssistantAvatar: "🧠",
	},
	VariantO3Mini: {
		Path:            "/ask-ia-o3-mini",
		Title:           "Leis Ambientais (o3-mini)",
		Greeting:        "🧠 Olá! Sou o modelo o3-mini da OpenAI. Como posso ajudar você hoje?",
		Fallback:        "Desculpe, ocorreu um erro ao tentar conectar-me ao modelo o3-mini.",
		AssistantAvatar: "🧠",
	},
}

// DefaultUploadPatterns are the file name patterns accepted for upload.
var DefaultUploadPatterns = []string{"*.pdf"}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BackendURL:     "http://localhost:8000",
		Variant:        VariantDefault,
		TimeoutSeconds: 120,
		DBPath:         ".leischat/leischat.db",
		Chat: ChatConfig{
			UserAvatar: "👤",
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Upload: UploadConfig{
			Patterns:  DefaultUploadPatterns,
			MaxSizeMB: 50,
		},
	}
}

// GetPreset returns the preset of the given variant, or the default
// variant's preset when it is unknown.
func GetPreset(v Variant) VariantPreset {
	if p, ok := variantPresets[v]; ok {
		return p
	}
	return variantPresets[VariantDefault]
}

// ChatSettings returns the chat settings with empty fields filled from the
// variant preset.
func (c *Config) ChatSettings() ChatConfig {
	p := GetPreset(c.Variant)
	out := c.Chat
	if out.Path == "" {
		out.Path = p.Path
	}
	if out.Title == "" {
		out.Title = p.Title
	}
	if out.Greeting == "" {
		out.Greeting = p.Greeting
	}
	if out.Fallback == "" {
		out.Fallback = p.Fallback
	}
	if out.AssistantAvatar == "" {
		out.AssistantAvatar = p.AssistantAvatar
	}
	if out.UserAvatar == "" {
		out.UserAvatar = "👤"
	}
	return out
}
