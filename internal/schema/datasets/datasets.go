// Package datasets registers the built-in dataset schemas. Import it for
// its side effects:
//
//	import _ "github.com/JonMunkholm/csvclean/internal/schema/datasets"
package datasets

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/JonMunkholm/csvclean/internal/schema"
)

//go:embed *.yaml
var files embed.FS

func init() {
	for _, s := range mustLoad() {
		schema.Register(s)
	}
}

// Load parses every embedded schema document, sorted by file name.
// Built-in documents use only known rule names, so they are parsed
// strictly.
func Load() ([]*schema.Schema, error) {
	names, err := fs.Glob(files, "*.yaml")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	var out []*schema.Schema
	for _, name := range names {
		data, err := files.ReadFile(name)
		if err != nil {
			return nil, err
		}
		schemas, err := schema.Parse(data, schema.FormatYAML, schema.LoadOptions{Strict: true})
		if err != nil {
			return nil, fmt.Errorf("builtin %s: %w", name, err)
		}
		for _, s := range schemas {
			s.Source = "builtin"
		}
		out = append(out, schemas...)
	}
	return out, nil
}

func mustLoad() []*schema.Schema {
	schemas, err := Load()
	if err != nil {
		panic(err)
	}
	return schemas
}
