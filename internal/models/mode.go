package models

import (
	"fmt"
	"strings"
)

// Mode is a supported processing operation
type Mode string

const (
	ModeSummarize        Mode = "summarize"
	ModeRecipe           Mode = "recipe"
	ModeRewrite          Mode = "rewrite"
	ModeImageDescription Mode = "image-description"
)

// FormatThreePoints selects the numbered three-point summary format
const FormatThreePoints = "3-points"

// Modes lists every supported mode in display order
var Modes = []Mode{ModeSummarize, ModeRecipe, ModeRewrite, ModeImageDescription}

// modeAliases maps the wire names used by the browser client onto modes
var modeAliases = map[string]Mode{
	"summarize":         ModeSummarize,
	"summary":           ModeSummarize,
	"resume":            ModeSummarize,
	"recipe":            ModeRecipe,
	"recette":           ModeRecipe,
	"rewrite":           ModeRewrite,
	"polissage":         ModeRewrite,
	"image-description": ModeImageDescription,
	"image":             ModeImageDescription,
}

// ParseMode resolves a mode name or alias. Unknown names wrap ErrInvalidMode.
func ParseMode(value string) (Mode, error) {
	mode, ok := modeAliases[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, value)
	}
	return mode, nil
}

// IsValid reports whether m is one of the supported modes
func (m Mode) IsValid() bool {
	switch m {
	case ModeSummarize, ModeRecipe, ModeRewrite, ModeImageDescription:
		return true
	default:
		return false
	}
}

func (m Mode) String() string {
	return string(m)
}

// ModeParams carries the mode-specific parameter sent alongside the input
type ModeParams struct {
	Format            string `json:"format,omitempty"`
	DietaryConstraint string `json:"contrainte_alim,omitempty"`
	Tone              string `json:"ton,omitempty"`
}
