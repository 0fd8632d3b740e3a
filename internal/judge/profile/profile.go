// Package profile defines language toolchain profiles and their registry.
package profile

import (
	"strings"

	"github.com/google/shlex"

	appErr "github.com/DGSSZ-PLIELab/SSL-OJ-sub000/pkg/errors"
)

// LanguageProfile describes how to compile and run one language.
// Profiles are immutable after registry construction.
type LanguageProfile struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	SourceFile string `yaml:"sourceFile"`
	// BinaryFile is the artifact the compile command must produce.
	// Empty for interpreted languages.
	BinaryFile     string `yaml:"binaryFile"`
	CompileEnabled bool   `yaml:"compileEnabled"`
	// CompileCmdTpl and RunCmdTpl may reference {src} and {bin}.
	// Templates expand to an argument vector, never a shell string.
	CompileCmdTpl string   `yaml:"compileCmdTpl"`
	RunCmdTpl     string   `yaml:"runCmdTpl"`
	Env           []string `yaml:"env"`
	// Multipliers (>=1) compensate for interpreter/VM overhead.
	TimeMultiplier   float64 `yaml:"timeMultiplier"`
	MemoryMultiplier float64 `yaml:"memoryMultiplier"`
}

// Registry is a read-only language lookup table, safe for concurrent use.
type Registry struct {
	languages map[string]LanguageProfile
}

// NewRegistry builds a registry from profile definitions.
// Later entries with the same ID override earlier ones, which lets a config
// file extend or replace the built-in defaults.
func NewRegistry(profiles []LanguageProfile) *Registry {
	langMap := make(map[string]LanguageProfile, len(profiles))
	for _, lang := range profiles {
		if lang.ID == "" {
			continue
		}
		langMap[lang.ID] = lang
	}
	return &Registry{languages: langMap}
}

// Resolve returns the profile for a language identifier.
// Unknown identifiers fail closed; there is no default toolchain.
func (r *Registry) Resolve(id string) (LanguageProfile, error) {
	if id == "" {
		return LanguageProfile{}, appErr.ValidationError("language_id", "required")
	}
	lang, ok := r.languages[id]
	if !ok {
		return LanguageProfile{}, appErr.Newf(appErr.LanguageNotSupported, "language not supported: %s", id)
	}
	return lang, nil
}

// IDs returns the registered language identifiers.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.languages))
	for id := range r.languages {
		ids = append(ids, id)
	}
	return ids
}

// BuildCommand expands a command template into an argument vector.
// {src} expands to the profile's source file name and {bin} to the binary
// artifact relative to the working directory.
func BuildCommand(tpl string, lang LanguageProfile) ([]string, error) {
	if strings.TrimSpace(tpl) == "" {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("command template is required")
	}
	expanded := tpl
	expanded = strings.ReplaceAll(expanded, "{src}", lang.SourceFile)
	expanded = strings.ReplaceAll(expanded, "{bin}", binaryArg(lang.BinaryFile))
	fields, err := shlex.Split(expanded)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.InvalidParams, "parse command template failed")
	}
	if len(fields) == 0 {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("command is empty after expansion")
	}
	return fields, nil
}

// binaryArg makes a bare artifact name executable from the working directory.
func binaryArg(name string) string {
	if name == "" || strings.Contains(name, "/") {
		return name
	}
	return "./" + name
}
