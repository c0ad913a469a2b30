// Package render implements the render-endpoint side of the glTF render
// client-server protocol: typed parsing of the multipart form into Params
// and generation of the placeholder image returned to the caller.
package render

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ImageType values accepted by the protocol.
const (
	ImageTypeColor = "color"
	ImageTypeDepth = "depth"
	ImageTypeLabel = "label"
)

// Params encapsulates all parameters of one render request. One Params is
// built per request, consumed once, and discarded.
type Params struct {
	// Scene is the path the uploaded glTF file was saved to.
	Scene string
	// SceneSHA256 is the checksum of the scene upload. The recorder only
	// requires its presence; the checksum itself is never verified.
	SceneSHA256 string
	// ImageType is one of "color", "depth" or "label".
	ImageType string
	// Width and Height of the requested image in pixels.
	Width  int
	Height int
	// Near and Far clipping planes of the camera.
	Near float64
	Far  float64
	// FocalX and FocalY are the focal lengths in pixels.
	FocalX float64
	FocalY float64
	// FovX and FovY are the fields of view in radians.
	FovX float64
	FovY float64
	// CenterX and CenterY are the principal point coordinates in pixels.
	CenterX float64
	CenterY float64
	// MinDepth and MaxDepth bound the depth range. Only provided when
	// ImageType is "depth".
	MinDepth *float64
	MaxDepth *float64
}

type fieldKind int

const (
	kindInt fieldKind = iota
	kindFloat
	kindString
	kindEnum
	kindOptionalFloat
)

// fieldSpec declares how one form field is coerced into Params. The field
// table is the single source of truth for names, types and enum sets.
type fieldSpec struct {
	kind   fieldKind
	enum   []string
	assign func(p *Params, s string, i int, f float64)
}

var formFields = map[string]fieldSpec{
	"scene_sha256": {kind: kindString, assign: func(p *Params, s string, _ int, _ float64) { p.SceneSHA256 = s }},
	"image_type": {
		kind:   kindEnum,
		enum:   []string{ImageTypeColor, ImageTypeDepth, ImageTypeLabel},
		assign: func(p *Params, s string, _ int, _ float64) { p.ImageType = s },
	},
	"width":     {kind: kindInt, assign: func(p *Params, _ string, i int, _ float64) { p.Width = i }},
	"height":    {kind: kindInt, assign: func(p *Params, _ string, i int, _ float64) { p.Height = i }},
	"near":      {kind: kindFloat, assign: func(p *Params, _ string, _ int, f float64) { p.Near = f }},
	"far":       {kind: kindFloat, assign: func(p *Params, _ string, _ int, f float64) { p.Far = f }},
	"focal_x":   {kind: kindFloat, assign: func(p *Params, _ string, _ int, f float64) { p.FocalX = f }},
	"focal_y":   {kind: kindFloat, assign: func(p *Params, _ string, _ int, f float64) { p.FocalY = f }},
	"fov_x":     {kind: kindFloat, assign: func(p *Params, _ string, _ int, f float64) { p.FovX = f }},
	"fov_y":     {kind: kindFloat, assign: func(p *Params, _ string, _ int, f float64) { p.FovY = f }},
	"center_x":  {kind: kindFloat, assign: func(p *Params, _ string, _ int, f float64) { p.CenterX = f }},
	"center_y":  {kind: kindFloat, assign: func(p *Params, _ string, _ int, f float64) { p.CenterY = f }},
	"min_depth": {kind: kindOptionalFloat, assign: func(p *Params, _ string, _ int, f float64) { p.MinDepth = &f }},
	"max_depth": {kind: kindOptionalFloat, assign: func(p *Params, _ string, _ int, f float64) { p.MaxDepth = &f }},
}

// maxFormMemory bounds the in-memory portion of multipart parsing; larger
// scene uploads spill to disk.
const maxFormMemory = 32 << 20

// ParseRequest converts a multipart HTTP request into Params. The attached
// scene file is saved to a timestamp-named path inside scratchDir before
// parsing completes; the caller owns its deletion.
func ParseRequest(r *http.Request, scratchDir string) (*Params, error) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return nil, fmt.Errorf("failed to parse multipart form: %w", err)
	}

	params := &Params{}
	seen := make(map[string]bool, len(formFields))

	for name, values := range r.MultipartForm.Value {
		if name == "submit" {
			// Ignore the html boilerplate.
			continue
		}
		spec, ok := formFields[name]
		if !ok {
			return nil, fmt.Errorf("unknown form field %q", name)
		}
		if err := coerce(params, spec, name, values[0]); err != nil {
			return nil, err
		}
		seen[name] = true
	}

	for name, spec := range formFields {
		if spec.kind != kindOptionalFloat && !seen[name] {
			return nil, fmt.Errorf("missing form field %q", name)
		}
	}

	if params.Width <= 0 || params.Height <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %dx%d", params.Width, params.Height)
	}

	scene, err := saveScene(r.MultipartForm, scratchDir)
	if err != nil {
		return nil, err
	}
	params.Scene = scene

	return params, nil
}

func coerce(p *Params, spec fieldSpec, name, value string) error {
	switch spec.kind {
	case kindString:
		spec.assign(p, value, 0, 0)
	case kindInt:
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %w", name, err)
		}
		spec.assign(p, "", i, 0)
	case kindFloat, kindOptionalFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float for %s: %w", name, err)
		}
		spec.assign(p, "", 0, f)
	case kindEnum:
		for _, allowed := range spec.enum {
			if value == allowed {
				spec.assign(p, value, 0, 0)
				return nil
			}
		}
		return fmt.Errorf("invalid literal for %s: %q", name, value)
	}
	return nil
}

// saveScene writes the single uploaded file to a fresh timestamp-named path
// in scratchDir. The scene_sha256 checksum is deliberately not verified; a
// malformed file is rejected by the glTF importer soon enough.
func saveScene(form *multipart.Form, scratchDir string) (string, error) {
	var files []*multipart.FileHeader
	for _, headers := range form.File {
		files = append(files, headers...)
	}
	if len(files) != 1 {
		return "", fmt.Errorf("expected exactly one uploaded file, got %d", len(files))
	}
	headers, ok := form.File["scene"]
	if !ok || len(headers) != 1 {
		return "", fmt.Errorf("missing uploaded file field %q", "scene")
	}

	src, err := headers[0].Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded scene: %w", err)
	}
	defer src.Close()

	now := time.Now()
	name := fmt.Sprintf("%s-%06d.gltf", now.Format("2006-01-02_15-04-05"), now.Nanosecond()/1000)
	path := filepath.Join(scratchDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create scene file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("failed to save scene file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to save scene file: %w", err)
	}
	return path, nil
}
