// Package model defines the wire types of the visualization API and the
// domain enums shared by the handler, service and adapter layers.
package model

import "strings"

// Language identifies a supported interpreter runtime.
type Language string

const (
	LanguagePython Language = "python"
	LanguageR      Language = "r"
)

// VizType identifies the requested visualization family. It decides which
// capture path the adapter's epilogue prefers: static renders to a raster
// image, interactive and 3d render to a self-contained HTML document.
type VizType string

const (
	VizStatic      VizType = "static"
	VizInteractive VizType = "interactive"
	Viz3D          VizType = "3d"
)

// Artifact kinds returned on the wire in VizResponse.Type.
const (
	ArtifactImage = "image"
	ArtifactHTML  = "html"
)

// VizRequest is the body of POST /generate-visualization.
// The field names and JSON tags are part of the wire contract with the
// editor client and must not change without a coordinated client update.
type VizRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	VizType  string `json:"viz_type"`
}

// VizResponse is the success body of POST /generate-visualization.
// Type is "image" (Content holds base64-encoded PNG bytes) or "html"
// (Content holds a complete, self-contained HTML document).
type VizResponse struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// ParseLanguage normalizes and validates a wire language value.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseLanguage(s string) (Language, bool) {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case LanguagePython:
		return LanguagePython, true
	case LanguageR:
		return LanguageR, true
	}
	return "", false
}

// ParseVizType normalizes and validates a wire viz_type value.
// An empty value defaults to "static".
func ParseVizType(s string) (VizType, bool) {
	switch VizType(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return VizStatic, true
	case VizStatic:
		return VizStatic, true
	case VizInteractive:
		return VizInteractive, true
	case Viz3D:
		return Viz3D, true
	}
	return "", false
}
