package chunker

import "github.com/minuraashen/synapse-semantic-index/internal/registry"

// cloneContext returns a shallow copy so sibling subtrees never share
// (and mutate) the same underlying map.
func cloneContext(ctx Context) Context {
	out := make(Context, len(ctx)+1)
	for k, v := range ctx {
		out[k] = v
	}
	return out
}

// artifactContext seeds the root context from a registry detection,
// producing context.artifact = {type, name, xmlns?, ...} per §4.2.2.
func artifactContext(meta registry.ArtifactMetadata) Context {
	artifact := map[string]any{"type": meta.Type, "name": meta.Name}
	if meta.Xmlns != "" {
		artifact["xmlns"] = meta.Xmlns
	}
	for k, v := range meta.Additional {
		if _, exists := artifact[k]; !exists {
			artifact[k] = v
		}
	}
	return Context{"artifact": artifact}
}

// propagateContext folds one element's own contribution into a copy of
// the inherited context, keyed by the element's local name: its
// attribute map if it has attributes, else the bare local name so
// attribute-less structural wrappers stay visible downstream.
func propagateContext(ctx Context, n *Node) Context {
	local := localName(n.Tag)
	out := cloneContext(ctx)
	if len(n.Attrs) > 0 {
		attrCopy := make(map[string]string, len(n.Attrs))
		for k, v := range n.Attrs {
			attrCopy[k] = v
		}
		out[local] = attrCopy
	} else {
		out[local] = local
	}
	return out
}
