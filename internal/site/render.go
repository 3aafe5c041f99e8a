// Package site writes the static site output: the rendered index page,
// the routes JSON document, and copied assets. It is deliberately dumb
// byte-level I/O; all route semantics live upstream in the acquisition
// layer.
package site

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"velo-routes-builder/internal/domain"
)

// Renderer writes one build's output under Dist.
type Renderer struct {
	Dist      string
	SiteTitle string
	CNAME     string
}

// Render substitutes the route data into the page template and writes
// index.html plus routes.json.
func (r *Renderer) Render(templatePath string, routes []*domain.RouteRecord) error {
	if err := os.MkdirAll(r.Dist, 0o755); err != nil {
		return fmt.Errorf("render: create dist dir: %w", err)
	}

	tpl, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("render: read template: %w", err)
	}

	routesJSON, err := json.MarshalIndent(routes, "", "  ")
	if err != nil {
		return fmt.Errorf("render: encode routes: %w", err)
	}

	html := string(tpl)
	html = strings.ReplaceAll(html, "{{ROUTES_DATA}}", string(routesJSON))
	html = strings.ReplaceAll(html, "{{SITE_TITLE}}", r.SiteTitle)
	html = strings.ReplaceAll(html, "{{ROUTE_COUNT}}", strconv.Itoa(len(routes)))
	html = strings.ReplaceAll(html, "{{BUILD_DATE}}", time.Now().Format(time.RFC3339))

	if err := os.WriteFile(filepath.Join(r.Dist, "index.html"), []byte(html), 0o644); err != nil {
		return fmt.Errorf("render: write index.html: %w", err)
	}
	if err := os.WriteFile(filepath.Join(r.Dist, "routes.json"), routesJSON, 0o644); err != nil {
		return fmt.Errorf("render: write routes.json: %w", err)
	}

	return nil
}

// CopyAssets copies an images directory into dist (when present) and writes
// the GitHub Pages marker files.
func (r *Renderer) CopyAssets(imagesDir string) error {
	if info, err := os.Stat(imagesDir); err == nil && info.IsDir() {
		if err := copyDir(imagesDir, filepath.Join(r.Dist, "images")); err != nil {
			return fmt.Errorf("render: copy images: %w", err)
		}
	}

	if r.CNAME != "" {
		if err := os.WriteFile(filepath.Join(r.Dist, "CNAME"), []byte(r.CNAME), 0o644); err != nil {
			return fmt.Errorf("render: write CNAME: %w", err)
		}
	}

	// Keeps GitHub Pages from running the output through Jekyll.
	if err := os.WriteFile(filepath.Join(r.Dist, ".nojekyll"), nil, 0o644); err != nil {
		return fmt.Errorf("render: write .nojekyll: %w", err)
	}

	return nil
}

func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
