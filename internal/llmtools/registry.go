package llmtools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ToolHandler executes a tool with arguments that already passed schema
// validation and returns the text shown to the caller.
//
// Errors must be actionable and safe to surface back to the agent host.
type ToolHandler func(ctx context.Context, args json.RawMessage) (string, error)

// ToolDefinition describes a callable tool with stable identity and metadata.
// StableName must be lowercase snake_case and never change across versions.
// SemVer follows semantic versioning (allowing a leading 'v').
type ToolDefinition struct {
	StableName   string          // stable, lowercase snake_case identifier
	SemVer       string          // semantic version (e.g., v1.2.3)
	Description  string          // concise, imperative description
	JSONSchema   json.RawMessage // JSON Schema for arguments
	Capabilities []string        // capability tags (e.g., "search")
	Handler      ToolHandler
}

// ToolMeta is a minimal, serializable view for manifests and logs.
type ToolMeta struct {
	StableName   string   `json:"stable_name"`
	SemVer       string   `json:"semver"`
	Capabilities []string `json:"capabilities"`
}

type registered struct {
	def    ToolDefinition
	schema *jsonschema.Schema
}

// Registry holds the set of available tools keyed by stable name.
// Names are unique; updating a tool should bump SemVer.
type Registry struct {
	mu        sync.RWMutex
	nameToDef map[string]registered
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{nameToDef: make(map[string]registered)}
}

var (
	nameRe   = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	semverRe = regexp.MustCompile(`^v?(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-[0-9A-Za-z.-]+)?(?:\+[0-9A-Za-z.-]+)?$`)
)

// Register adds or replaces a tool definition by stable name after
// validation. The argument schema is compiled once here and reused for
// every call.
func (r *Registry) Register(def ToolDefinition) error {
	if def.StableName == "" || !nameRe.MatchString(def.StableName) {
		return fmt.Errorf("invalid stable name %q: must be lowercase snake_case starting with a letter", def.StableName)
	}
	if def.SemVer == "" || !semverRe.MatchString(def.SemVer) {
		return fmt.Errorf("invalid semver %q: must follow semantic versioning", def.SemVer)
	}
	if len(def.JSONSchema) == 0 || !isJSONObject(def.JSONSchema) {
		return errors.New("json schema must be a non-empty JSON object")
	}
	if def.Handler == nil {
		return errors.New("handler must not be nil")
	}
	schema, err := compileSchema(def.StableName, def.JSONSchema)
	if err != nil {
		return err
	}
	cleanedCaps := make([]string, 0, len(def.Capabilities))
	for _, c := range def.Capabilities {
		if c = strings.TrimSpace(c); c != "" {
			cleanedCaps = append(cleanedCaps, c)
		}
	}
	def.Capabilities = cleanedCaps

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nameToDef == nil {
		r.nameToDef = make(map[string]registered)
	}
	r.nameToDef[def.StableName] = registered{def: def, schema: schema}
	return nil
}

// Specs returns the advertised tool descriptors sorted by stable name.
func (r *Registry) Specs() []ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]ToolSpec, 0, len(r.nameToDef))
	for _, name := range r.sortedNames() {
		def := r.nameToDef[name].def
		specs = append(specs, ToolSpec{
			Name:        def.StableName,
			Description: def.Description,
			JSONSchema:  def.JSONSchema,
		})
	}
	return specs
}

// Get returns a tool definition by stable name if present.
func (r *Registry) Get(stableName string) (ToolDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.nameToDef[stableName]
	return reg.def, ok
}

// Catalog returns a deterministic, sorted slice of ToolMeta.
func (r *Registry) Catalog() []ToolMeta {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ToolMeta, 0, len(r.nameToDef))
	for _, name := range r.sortedNames() {
		def := r.nameToDef[name].def
		out = append(out, ToolMeta{
			StableName:   def.StableName,
			SemVer:       def.SemVer,
			Capabilities: append([]string(nil), def.Capabilities...),
		})
	}
	return out
}

// caller holds r.mu.
func (r *Registry) sortedNames() []string {
	names := make([]string, 0, len(r.nameToDef))
	for name := range r.nameToDef {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) lookup(name string) (registered, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.nameToDef[name]
	return reg, ok
}

func compileSchema(name string, raw json.RawMessage) (*jsonschema.Schema, error) {
	url := name + ".schema.json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema resource for %q: %w", name, err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema for %q: %w", name, err)
	}
	return schema, nil
}

// isJSONObject returns true if the raw JSON represents a JSON object.
func isJSONObject(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	_, ok := v.(map[string]any)
	return ok
}
