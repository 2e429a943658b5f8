// Package schemas embeds the JSON Schemas for payloads read from external
// services and from the local cache file.
package schemas

import (
	"embed"
	"io/fs"
)

//go:embed *.schema.json
var files embed.FS

// Read returns the content of the named schema file.
func Read(name string) ([]byte, error) {
	return files.ReadFile(name)
}

// Names lists the embedded schema file names.
func Names() []string {
	matches, _ := fs.Glob(files, "*.schema.json")
	return matches
}
