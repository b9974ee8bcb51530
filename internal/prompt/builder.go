// Package prompt turns a mode, its parameter, the source text and the output language
// into the instruction sent to the generation service.
package prompt

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/benvon/levelup-ai/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultTemplates []byte

// DefaultFormat is the summarize format key used when the request names an unknown format
const DefaultFormat = "default"

// ModeTemplate is the template table entry for one mode
type ModeTemplate struct {
	Template     string            `yaml:"template"`
	Formats      map[string]string `yaml:"formats,omitempty"`
	DefaultParam string            `yaml:"default_param,omitempty"`
}

// ImageTemplates holds the single-call prompts used with an image payload
type ImageTemplates struct {
	Recipe  string `yaml:"recipe"`
	Default string `yaml:"default"`
}

// Templates is the full template table
type Templates struct {
	Transcription string                  `yaml:"transcription"`
	Modes         map[string]ModeTemplate `yaml:"modes"`
	Image         ImageTemplates          `yaml:"image"`
}

// Builder renders prompts from a template table. It holds no mutable state.
type Builder struct {
	templates Templates
}

// New returns a builder over the embedded templates
func New() (*Builder, error) {
	var t Templates
	if err := yaml.Unmarshal(defaultTemplates, &t); err != nil {
		return nil, fmt.Errorf("failed to parse embedded templates: %w", err)
	}
	return newBuilder(t)
}

// Load returns a builder over the embedded templates overlaid with the file at path.
// Entries missing from the file keep their embedded value.
func Load(path string) (*Builder, error) {
	base, err := New()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt templates %s: %w", path, err)
	}
	var override Templates
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse prompt templates %s: %w", path, err)
	}
	return newBuilder(merge(base.templates, override))
}

func newBuilder(t Templates) (*Builder, error) {
	if err := validate(t); err != nil {
		return nil, err
	}
	return &Builder{templates: t}, nil
}

func validate(t Templates) error {
	if !strings.Contains(t.Transcription, "{language}") {
		return fmt.Errorf("transcription template must contain {language}")
	}
	for _, mode := range models.Modes {
		mt, ok := t.Modes[string(mode)]
		if !ok || mt.Template == "" {
			return fmt.Errorf("missing template for mode %s", mode)
		}
		for _, placeholder := range []string{"{text}", "{language}"} {
			if !strings.Contains(mt.Template, placeholder) {
				return fmt.Errorf("template for mode %s must contain %s", mode, placeholder)
			}
		}
	}
	if t.Image.Recipe == "" || t.Image.Default == "" {
		return fmt.Errorf("image templates must define recipe and default")
	}
	return nil
}

func merge(base, override Templates) Templates {
	out := Templates{
		Transcription: base.Transcription,
		Modes:         make(map[string]ModeTemplate, len(base.Modes)),
		Image:         base.Image,
	}
	for k, v := range base.Modes {
		out.Modes[k] = v
	}
	if override.Transcription != "" {
		out.Transcription = override.Transcription
	}
	for k, v := range override.Modes {
		cur := out.Modes[k]
		if v.Template != "" {
			cur.Template = v.Template
		}
		if v.DefaultParam != "" {
			cur.DefaultParam = v.DefaultParam
		}
		if len(v.Formats) > 0 {
			formats := make(map[string]string, len(cur.Formats)+len(v.Formats))
			for fk, fv := range cur.Formats {
				formats[fk] = fv
			}
			for fk, fv := range v.Formats {
				formats[fk] = fv
			}
			cur.Formats = formats
		}
		out.Modes[k] = cur
	}
	if override.Image.Recipe != "" {
		out.Image.Recipe = override.Image.Recipe
	}
	if override.Image.Default != "" {
		out.Image.Default = override.Image.Default
	}
	return out
}

// Build renders the prompt for mode over text (typed input or a transcription)
func (b *Builder) Build(mode models.Mode, text string, params models.ModeParams, language string) (string, error) {
	mt, ok := b.templates.Modes[string(mode)]
	if !ok || !mode.IsValid() {
		return "", fmt.Errorf("%w: %q", models.ErrInvalidMode, mode)
	}
	return b.render(mt.Template, mt, text, params, language), nil
}

// Transcription renders the prompt for the first call of the audio flow
func (b *Builder) Transcription(language string) string {
	return strings.NewReplacer("{language}", language).Replace(b.templates.Transcription)
}

// Image renders the prompt sent alongside an image. Recipe mode asks for ingredient
// identification followed by a recipe; every other mode extracts and describes the content.
func (b *Builder) Image(mode models.Mode, params models.ModeParams, language string) (string, error) {
	if !mode.IsValid() {
		return "", fmt.Errorf("%w: %q", models.ErrInvalidMode, mode)
	}
	tmpl := b.templates.Image.Default
	if mode == models.ModeRecipe {
		tmpl = b.templates.Image.Recipe
	}
	return b.render(tmpl, b.templates.Modes[string(mode)], "", params, language), nil
}

func (b *Builder) render(tmpl string, mt ModeTemplate, text string, params models.ModeParams, language string) string {
	constraint := orDefault(params.DietaryConstraint, b.templates.Modes[string(models.ModeRecipe)].DefaultParam)
	tone := orDefault(params.Tone, b.templates.Modes[string(models.ModeRewrite)].DefaultParam)

	format := mt.Formats[params.Format]
	if format == "" {
		format = mt.Formats[DefaultFormat]
	}

	return strings.NewReplacer(
		"{format}", format,
		"{constraint}", constraint,
		"{tone}", tone,
		"{language}", language,
		"{text}", text,
	).Replace(tmpl)
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
