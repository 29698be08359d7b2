// Package registry classifies XML tags encountered while chunking a
// project's configuration artifacts: which tags introduce a new
// artifact (api, sequence, endpoint, ...), which tags are semantic
// boundaries the chunker is allowed to split on, which are mediators,
// and which are atomic (children are configuration values; the chunker
// does not consult this set).
//
// The registry is the single place any list of known tags lives; every
// lookup tolerates both namespaced (wsp:Policy) and local (Policy) tag
// spellings.
package registry

import "strings"

// ArtifactMetadata is the pure result of classifying a root element.
type ArtifactMetadata struct {
	Type       string
	Name       string
	Xmlns      string
	Additional map[string]string
}

// ArtifactPlugin describes one artifact family (api, sequence, ...).
// Plugins are plain data plus a pure extraction function — there is no
// inheritance hierarchy, just a flat table and aggregate lookup sets
// built from it.
type ArtifactPlugin struct {
	ID                string
	RootTags          []string
	SemanticBoundaries []string
	MediatorTags      []string // optional
	AtomicTags        []string // optional
	ExtractMetadata   func(rootTag string, attrs map[string]string) ArtifactMetadata
}

// Registry holds the full plugin table plus aggregate fast-lookup sets
// derived from it.
type Registry struct {
	plugins []ArtifactPlugin

	boundaries   map[string]bool
	mediators    map[string]bool
	atomic       map[string]bool
	resourceTags map[string]bool
	rootToPlugin map[string]*ArtifactPlugin
}

// New returns a registry pre-loaded with the stock artifact plugins.
func New() *Registry {
	r := &Registry{
		boundaries:   map[string]bool{},
		mediators:    map[string]bool{},
		atomic:       map[string]bool{},
		resourceTags: map[string]bool{},
		rootToPlugin: map[string]*ArtifactPlugin{},
	}
	for _, p := range builtinPlugins() {
		r.Register(p)
	}
	return r
}

// Register adds a plugin to the registry and folds its tag lists into
// the aggregate lookup sets. Callers may register additional plugins
// beyond the twelve built-ins.
func (r *Registry) Register(p ArtifactPlugin) {
	r.plugins = append(r.plugins, p)
	idx := len(r.plugins) - 1
	stored := &r.plugins[idx]

	for _, tag := range p.RootTags {
		r.resourceTags[localName(tag)] = true
		r.rootToPlugin[localName(tag)] = stored
	}
	for _, tag := range p.SemanticBoundaries {
		r.boundaries[localName(tag)] = true
	}
	for _, tag := range p.MediatorTags {
		r.mediators[localName(tag)] = true
	}
	for _, tag := range p.AtomicTags {
		r.atomic[localName(tag)] = true
	}
}

// localName strips a namespace prefix ("wsp:Policy" -> "Policy") so
// every lookup accepts both namespaced and local spellings.
func localName(tag string) string {
	if i := strings.IndexByte(tag, ':'); i >= 0 {
		return tag[i+1:]
	}
	return tag
}

// IsSemanticBoundary reports whether tag is a registered split point.
func (r *Registry) IsSemanticBoundary(tag string) bool { return r.boundaries[localName(tag)] }

// IsMediator reports whether tag is a registered mediator tag.
func (r *Registry) IsMediator(tag string) bool { return r.mediators[localName(tag)] }

// IsAtomic reports whether tag is a registered atomic tag.
func (r *Registry) IsAtomic(tag string) bool { return r.atomic[localName(tag)] }

// IsResourceType reports whether tag is a registered artifact root tag.
func (r *Registry) IsResourceType(tag string) bool { return r.resourceTags[localName(tag)] }

// PluginForRoot returns the plugin registered for a root tag, if any.
func (r *Registry) PluginForRoot(tag string) (*ArtifactPlugin, bool) {
	p, ok := r.rootToPlugin[localName(tag)]
	return p, ok
}

// DetectArtifact classifies a parsed document's root element using the
// plugin table. It returns ok=false if no plugin claims the root tag.
func (r *Registry) DetectArtifact(rootTag string, attrs map[string]string) (*ArtifactPlugin, ArtifactMetadata, bool) {
	p, ok := r.PluginForRoot(rootTag)
	if !ok {
		return nil, ArtifactMetadata{}, false
	}
	return p, p.ExtractMetadata(rootTag, attrs), true
}

// folderArtifactTypes maps a containing-folder name to an artifact type
// for the folder-name fallback used by DetectAnyArtifact.
var folderArtifactTypes = map[string]string{
	"apis":              "api",
	"sequences":         "sequence",
	"endpoints":         "endpoint",
	"proxy-services":     "proxy",
	"proxy-services/":    "proxy",
	"templates":         "template",
	"local-entries":      "localEntry",
	"tasks":             "task",
	"data-services":      "dataService",
	"inbound-endpoints":  "inboundEndpoint",
	"message-stores":     "messageStore",
	"message-processors": "messageProcessor",
	"event-sources":      "eventSource",
}

// DetectAnyArtifact applies the folder-name fallback: if no registry
// plugin claimed the root tag, infer the artifact type from the
// nearest containing directory name known to folderArtifactTypes.
// Falls back to {"unknown", "unknown"} if nothing matches.
func DetectAnyArtifact(path string) ArtifactMetadata {
	segments := splitPath(path)
	for i := len(segments) - 1; i >= 0; i-- {
		if t, ok := folderArtifactTypes[strings.ToLower(segments[i])]; ok {
			name := "unknown"
			if i+1 < len(segments) {
				name = stripExt(segments[i+1])
			}
			return ArtifactMetadata{Type: t, Name: name}
		}
	}
	return ArtifactMetadata{Type: "unknown", Name: "unknown"}
}

func splitPath(path string) []string {
	path = strings.ReplaceAll(path, "\\", "/")
	var out []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

func stripExt(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}
