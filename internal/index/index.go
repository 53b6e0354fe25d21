// Package index parses the release index document the updater discovers new
// versions from. Documents are validated against an embedded JSON Schema
// before use so a malformed index fails with a diagnosis instead of a nil-map
// surprise further down.
package index

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/leauto/leauto/pkg/update"
)

//go:embed release-index.schema.json
var schemaJSON []byte

const schemaName = "release-index.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("parse embedded index schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaName, doc); err != nil {
			schemaErr = fmt.Errorf("register index schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaName)
	})
	return schema, schemaErr
}

// Index is a parsed release index document. Release metadata values are
// carried opaquely; only the version keys matter to the updater.
type Index struct {
	Releases map[string]json.RawMessage `json:"releases"`
}

// Parse validates data against the release-index schema and decodes it.
func Parse(data []byte) (*Index, error) {
	sch, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse release index: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid release index: %w", err)
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("decode release index: %w", err)
	}
	return &idx, nil
}

// stableVersion matches plain dotted-numeric versions. Anything else (rc tags,
// dev builds) is a prerelease and never offered as the latest stable.
var stableVersion = regexp.MustCompile(`^[0-9.]+$`)

// LatestStable returns the highest stable version in the index.
func (idx *Index) LatestStable() (string, error) {
	best := ""
	for v := range idx.Releases {
		if !stableVersion.MatchString(v) {
			continue
		}
		if _, ok := update.NormalizeVersion(v); !ok {
			continue
		}
		if best == "" {
			best = v
			continue
		}
		cmp, err := update.CompareDotted(v, best)
		if err != nil {
			continue
		}
		if cmp > 0 {
			best = v
		}
	}
	if best == "" {
		return "", fmt.Errorf("no stable releases in index")
	}
	return best, nil
}
