package i18n

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yml
var localesFS embed.FS

// Translations holds all translation strings organized by section
type Translations struct {
	Download DownloadTranslations `yaml:"download" json:"download"`
	Fetch    FetchTranslations    `yaml:"fetch" json:"fetch"`
	Errors   ErrorTranslations    `yaml:"errors" json:"errors"`
	Config   ConfigTranslations   `yaml:"config" json:"config"`
	Server   ServerTranslations   `yaml:"server" json:"server"`
}

type DownloadTranslations struct {
	Downloading string `yaml:"downloading" json:"downloading"`
	Completed   string `yaml:"completed" json:"completed"`
	Failed      string `yaml:"failed" json:"failed"`
	Progress    string `yaml:"progress" json:"progress"`
	Speed       string `yaml:"speed" json:"speed"`
	ETA         string `yaml:"eta" json:"eta"`
	Elapsed     string `yaml:"elapsed" json:"elapsed"`
	AvgSpeed    string `yaml:"avg_speed" json:"avg_speed"`
	FileSaved   string `yaml:"file_saved" json:"file_saved"`
	CancelHint  string `yaml:"cancel_hint" json:"cancel_hint"`
}

// FetchTranslations labels the fields of a resolved post
type FetchTranslations struct {
	Resolving string `yaml:"resolving" json:"resolving"`
	Type      string `yaml:"type" json:"type"`
	Author    string `yaml:"author" json:"author"`
	Caption   string `yaml:"caption" json:"caption"`
	Thumbnail string `yaml:"thumbnail" json:"thumbnail"`
	Media     string `yaml:"media" json:"media"`
	Shortcode string `yaml:"shortcode" json:"shortcode"`
}

// ErrorTranslations are the caller-visible failure messages
type ErrorTranslations struct {
	InvalidURL     string `yaml:"invalid_url" json:"invalid_url"`
	InvalidType    string `yaml:"invalid_type" json:"invalid_type"`
	FetchFailed    string `yaml:"fetch_failed" json:"fetch_failed"`
	Timeout        string `yaml:"timeout" json:"timeout"`
	ServerError    string `yaml:"server_error" json:"server_error"`
	DownloadFailed string `yaml:"download_failed" json:"download_failed"`
	DownloadError  string `yaml:"download_error" json:"download_error"`
	Unauthorized   string `yaml:"unauthorized" json:"unauthorized"`
	ConfigNotFound string `yaml:"config_not_found" json:"config_not_found"`
	NotFound       string `yaml:"not_found" json:"not_found"`
}

type ConfigTranslations struct {
	Path    string `yaml:"path" json:"path"`
	Saved   string `yaml:"saved" json:"saved"`
	Exists  string `yaml:"exists" json:"exists"`
	Default string `yaml:"default" json:"default"`
}

// ServerTranslations holds translations for server messages
type ServerTranslations struct {
	NoConfigWarning string `yaml:"no_config_warning" json:"no_config_warning"`
	RunInitHint     string `yaml:"run_init_hint" json:"run_init_hint"`
	Listening       string `yaml:"listening" json:"listening"`
}

var (
	translationsCache = make(map[string]*Translations)
	cacheMutex        sync.RWMutex
	defaultLang       = "en"
)

// SupportedLanguages returns all available language codes
var SupportedLanguages = []struct {
	Code string
	Name string
}{
	{"en", "English"},
	{"vi", "Tiếng Việt"},
}

// IsSupported reports whether lang has a locale file
func IsSupported(lang string) bool {
	for _, l := range SupportedLanguages {
		if l.Code == lang {
			return true
		}
	}
	return false
}

// GetTranslations returns translations for the specified language
func GetTranslations(lang string) *Translations {
	cacheMutex.RLock()
	if t, ok := translationsCache[lang]; ok {
		cacheMutex.RUnlock()
		return t
	}
	cacheMutex.RUnlock()

	t, err := loadTranslations(lang)
	if err != nil {
		if lang != defaultLang {
			return GetTranslations(defaultLang)
		}
		return &Translations{}
	}

	cacheMutex.Lock()
	translationsCache[lang] = t
	cacheMutex.Unlock()

	return t
}

func loadTranslations(lang string) (*Translations, error) {
	filename := fmt.Sprintf("locales/%s.yml", lang)
	data, err := localesFS.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var t Translations
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, err
	}

	return &t, nil
}

// T is a convenience function for getting translations
func T(lang string) *Translations {
	return GetTranslations(lang)
}
