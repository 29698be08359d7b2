package chunker

import (
	"strings"
	"unicode"

	"github.com/minuraashen/synapse-semantic-index/internal/registry"
)

// standardFlowKeywords backs Rule 5 of the boundary-detection order.
var standardFlowKeywords = map[string]bool{
	"query": true, "operation": true, "resource": true,
	"config": true, "validate": true, "header": true,
}

// identifyingAttrKeys backs Rule 6: attributes whose presence marks an
// element as independently identifiable rather than anonymous markup.
var identifyingAttrKeys = map[string]bool{
	"name": true, "key": true, "id": true, "ref": true,
	"target": true, "context": true, "uri-template": true,
	"uriTemplate": true, "method": true, "value": true,
}

// isChunkable implements §4.2 step 3's chunkability predicate:
// chunkable = is_resource_type(tag) ∨ is_semantic_boundary(...) ∨ is_mediator(tag).
func isChunkable(n *Node, parentTag string, reg *registry.Registry) bool {
	if reg.IsResourceType(n.Tag) || reg.IsMediator(n.Tag) {
		return true
	}
	return isSemanticBoundary(n, parentTag, reg)
}

// isSemanticBoundary applies the eight boundary-detection rules in
// order; the first rule that matches decides the outcome.
func isSemanticBoundary(n *Node, parentTag string, reg *registry.Registry) bool {
	local := localName(n.Tag)

	// Rule 1: registry hit on full or local name.
	if reg.IsSemanticBoundary(n.Tag) {
		return true
	}
	// Rule 2: tag contains '.' -> connector (e.g. http.post, ai.agent).
	if strings.Contains(local, ".") {
		return true
	}
	// Rule 3: prefix:LocalName, lowercase prefix, uppercase LocalName -> policy-like.
	if isPolicyLike(n.Tag) {
		return true
	}
	// Rule 4: local name begins uppercase and has no '.' -> declarative config.
	if isDeclarativeConfig(local) {
		return true
	}
	// Rule 5: standard flow keyword.
	if standardFlowKeywords[local] {
		return true
	}
	// Rule 6: has any identifying attribute.
	if hasIdentifyingAttr(n.Attrs) {
		return true
	}
	// Rule 7: parent tag contains '.' -> direct child is a connector property.
	if strings.Contains(localName(parentTag), ".") {
		return true
	}
	// Rule 8: structural complexity safety net.
	if distinctChildTagKinds(n) >= 2 {
		return true
	}
	return false
}

func isPolicyLike(tag string) bool {
	i := strings.IndexByte(tag, ':')
	if i <= 0 || i == len(tag)-1 {
		return false
	}
	prefix, local := tag[:i], tag[i+1:]
	if prefix != strings.ToLower(prefix) {
		return false
	}
	r := []rune(local)
	return unicode.IsUpper(r[0])
}

func isDeclarativeConfig(local string) bool {
	if local == "" || strings.Contains(local, ".") {
		return false
	}
	r := []rune(local)
	return unicode.IsUpper(r[0])
}

func hasIdentifyingAttr(attrs map[string]string) bool {
	for k := range attrs {
		if identifyingAttrKeys[localName(k)] {
			return true
		}
	}
	return false
}

func distinctChildTagKinds(n *Node) int {
	seen := map[string]bool{}
	for _, c := range n.Children {
		seen[localName(c.Tag)] = true
	}
	return len(seen)
}

// isConnectorStyle reports whether tag's local name contains a '.',
// the marker used by §4.2 step 3's bare-text-children rule and Rule 7.
func isConnectorStyle(tag string) bool {
	return strings.Contains(localName(tag), ".")
}
