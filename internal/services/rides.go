package services

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strings"

	"velo-routes-builder/internal/domain"
)

// LoadReferences reads a ride list: one reference per line in the form
// "url[, type]". Blank lines and '#' comments are ignored. A line whose type
// is neither road nor gravel is dropped with a warning rather than coerced
// (strict policy).
func LoadReferences(r io.Reader) ([]domain.RouteReference, error) {
	var refs []domain.RouteReference

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, ",", 2)
		url := strings.TrimSpace(parts[0])

		ref := domain.RouteReference{URL: url}
		if len(parts) > 1 {
			t := domain.RouteType(strings.ToLower(strings.TrimSpace(parts[1])))
			if !t.IsOverridable() {
				log.Printf("warn: invalid route type %q for %s (use road or gravel), skipping", t, url)
				continue
			}
			ref.Type = t
		}

		refs = append(refs, ref)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("load references: %w", err)
	}

	return refs, nil
}
