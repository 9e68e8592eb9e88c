package config

// Variant selects the chat model variant the backend serves.
type Variant string

const (
	VariantDefault Variant = "default"
	VariantO3      Variant = "o3"
	VariantO3Mini  Variant = "o3-mini"
)

// Config is the top-level leischat configuration, corresponding to .leischat.yml.
type Config struct {
	BackendURL     string       `yaml:"backend_url" koanf:"backend_url"`
	UserID         string       `yaml:"user_id" koanf:"user_id"`
	Variant        Variant      `yaml:"variant" koanf:"variant"`
	TimeoutSeconds int          `yaml:"timeout_seconds" koanf:"timeout_seconds"`
	DBPath         string       `yaml:"db_path" koanf:"db_path"`
	Chat           ChatConfig   `yaml:"chat" koanf:"chat"`
	Server         ServerConfig `yaml:"server" koanf:"server"`
	Upload         UploadConfig `yaml:"upload" koanf:"upload"`
}

// ChatConfig holds the chat page settings. Empty strings fall back to the
// variant preset.
type ChatConfig struct {
	Path            string `yaml:"path,omitempty" koanf:"path"`
	Title           string `yaml:"title,omitempty" koanf:"title"`
	Greeting        string `yaml:"greeting,omitempty" koanf:"greeting"`
	Fallback        string `yaml:"fallback,omitempty" koanf:"fallback"`
	AssistantAvatar string `yaml:"assistant_avatar,omitempty" koanf:"assistant_avatar"`
	UserAvatar      string `yaml:"user_avatar,omitempty" koanf:"user_avatar"`
	Lazy            bool   `yaml:"lazy" koanf:"lazy"`
	Markdown        bool   `yaml:"markdown" koanf:"markdown"`
}

// ServerConfig holds the UI server settings.
type ServerConfig struct {
	Port           int      `yaml:"port" koanf:"port"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty" koanf:"allowed_origins"`
}

// UploadConfig holds the document upload settings.
type UploadConfig struct {
	Patterns  []string `yaml:"patterns" koanf:"patterns"`
	MaxSizeMB int      `yaml:"max_size_mb" koanf:"max_size_mb"`
}
