package workspace

import (
	"fmt"
	"os"
	"strings"

	"github.com/gtmod/gtmod/pkg/gtmod/config"
)

// descriptionHeading starts the user-owned section of the readme.
const descriptionHeading = "Description:"

const defaultDescription = "(describe your mod here)"

// UpdateReadme writes the project readme from the mod metadata. When a
// readme already exists, everything the user wrote under the Description
// heading is carried over unchanged.
func (w *Workspace) UpdateReadme(info config.ModInfo) error {
	desc := defaultDescription
	if data, err := os.ReadFile(w.ReadmePath()); err == nil {
		if existing := extractDescription(string(data)); existing != "" {
			desc = existing
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("reading readme: %w", err)
	}

	name := info.Name
	if name == "" {
		name = config.DefaultModName
	}
	author := info.Author
	if author == "" {
		author = config.DefaultModAuthor
	}
	version := info.Version
	if version == "" {
		version = config.DefaultModVersion
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", name)
	fmt.Fprintf(&b, "%s\n\n", strings.Repeat("=", len(name)))
	fmt.Fprintf(&b, "Author: %s\n", author)
	fmt.Fprintf(&b, "Version: %s\n\n", version)
	fmt.Fprintf(&b, "%s\n%s\n", descriptionHeading, desc)

	if err := os.WriteFile(w.ReadmePath(), []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing readme: %w", err)
	}
	return nil
}

// extractDescription returns the text following the Description heading,
// trimmed, or empty when the heading is absent.
func extractDescription(content string) string {
	idx := strings.Index(content, descriptionHeading)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(content[idx+len(descriptionHeading):])
}
