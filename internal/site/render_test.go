package site

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"velo-routes-builder/internal/domain"
)

func TestRenderSubstitutesPlaceholders(t *testing.T) {
	dir := t.TempDir()
	tplPath := filepath.Join(dir, "index.template.html")
	tpl := `<html><title>{{SITE_TITLE}}</title><body data-count="{{ROUTE_COUNT}}"><script>var routes = {{ROUTES_DATA}};</script></body></html>`
	if err := os.WriteFile(tplPath, []byte(tpl), 0o644); err != nil {
		t.Fatal(err)
	}

	r := &Renderer{Dist: filepath.Join(dir, "dist"), SiteTitle: "My Rides"}
	routes := []*domain.RouteRecord{
		{ID: "route-1", Title: "Short", DistanceKm: 10},
		{ID: "route-2", Title: "Long", DistanceKm: 90},
	}

	if err := r.Render(tplPath, routes); err != nil {
		t.Fatalf("Render: %v", err)
	}

	html, err := os.ReadFile(filepath.Join(r.Dist, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(html), "My Rides") {
		t.Error("site title not substituted")
	}
	if !strings.Contains(string(html), `data-count="2"`) {
		t.Error("route count not substituted")
	}
	if strings.Contains(string(html), "{{") {
		t.Error("unreplaced placeholder left in output")
	}

	data, err := os.ReadFile(filepath.Join(r.Dist, "routes.json"))
	if err != nil {
		t.Fatal(err)
	}
	var decoded []domain.RouteRecord
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("routes.json is not valid JSON: %v", err)
	}
	if len(decoded) != 2 || decoded[0].ID != "route-1" {
		t.Fatalf("routes.json = %+v", decoded)
	}
}

func TestCopyAssetsWritesMarkers(t *testing.T) {
	dir := t.TempDir()
	r := &Renderer{Dist: filepath.Join(dir, "dist"), CNAME: "example.com"}
	if err := os.MkdirAll(r.Dist, 0o755); err != nil {
		t.Fatal(err)
	}

	imagesDir := filepath.Join(dir, "images")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(imagesDir, "logo.png"), []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := r.CopyAssets(imagesDir); err != nil {
		t.Fatalf("CopyAssets: %v", err)
	}

	cname, err := os.ReadFile(filepath.Join(r.Dist, "CNAME"))
	if err != nil || string(cname) != "example.com" {
		t.Fatalf("CNAME = %q, err %v", cname, err)
	}
	if _, err := os.Stat(filepath.Join(r.Dist, ".nojekyll")); err != nil {
		t.Fatalf(".nojekyll missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(r.Dist, "images", "logo.png")); err != nil {
		t.Fatalf("copied image missing: %v", err)
	}
}
