package registry

// commonSemanticBoundaries lists the child tags shared by most mediation
// artifacts where the chunker is allowed to open a new chunk rather than
// folding content into its parent.
var commonSemanticBoundaries = []string{
	"resource", "target", "inSequence", "outSequence", "faultSequence",
	"onError", "then", "else", "onAccept", "onReject", "onComplete", "branch",
}

// commonMediatorTags lists leaf-ish mediators. The chunker treats each
// of them as chunkable: one that fits the token budget is emitted as
// its own chunk.
var commonMediatorTags = []string{
	"log", "property", "filter", "switch", "call", "send", "respond", "drop",
	"throttle", "cache", "aggregate", "clone", "iterate", "enrich",
	"payloadFactory", "header", "loopback", "callout", "class", "script",
	"validate", "transform", "xslt", "datamapper", "jsontransform", "foreach",
}

// commonAtomicTags lists tags classified as atomic: their children are
// configuration values rather than nested mediation logic. The chunker
// does not consult this classification when descending.
var commonAtomicTags = []string{"property", "header"}

func attrMeta(typ string, attrs map[string]string, nameKeys ...string) ArtifactMetadata {
	name := "unknown"
	for _, k := range nameKeys {
		if v, ok := attrs[k]; ok && v != "" {
			name = v
			break
		}
	}
	return ArtifactMetadata{
		Type:       typ,
		Name:       name,
		Xmlns:      attrs["xmlns"],
		Additional: attrs,
	}
}

// builtinPlugins returns the twelve stock artifact plugins this registry
// ships with. Each plugin only needs to name its root tag(s) and, where
// they differ from the common lists, its own boundary/mediator/atomic
// tags.
func builtinPlugins() []ArtifactPlugin {
	return []ArtifactPlugin{
		{
			ID:                 "api",
			RootTags:           []string{"api"},
			SemanticBoundaries: append([]string{"resource"}, commonSemanticBoundaries...),
			MediatorTags:       commonMediatorTags,
			AtomicTags:         commonAtomicTags,
			ExtractMetadata: func(_ string, attrs map[string]string) ArtifactMetadata {
				return attrMeta("api", attrs, "name")
			},
		},
		{
			ID:                 "sequence",
			RootTags:           []string{"sequence"},
			SemanticBoundaries: commonSemanticBoundaries,
			MediatorTags:       commonMediatorTags,
			AtomicTags:         commonAtomicTags,
			ExtractMetadata: func(_ string, attrs map[string]string) ArtifactMetadata {
				return attrMeta("sequence", attrs, "name", "key")
			},
		},
		{
			ID:                 "endpoint",
			RootTags:           []string{"endpoint"},
			SemanticBoundaries: append([]string{"http", "address", "wsdl", "default", "failover", "loadbalance"}, commonSemanticBoundaries...),
			MediatorTags:       commonMediatorTags,
			AtomicTags:         commonAtomicTags,
			ExtractMetadata: func(_ string, attrs map[string]string) ArtifactMetadata {
				return attrMeta("endpoint", attrs, "name")
			},
		},
		{
			ID:                 "proxy",
			RootTags:           []string{"proxy"},
			SemanticBoundaries: append([]string{"target", "publishWSDL"}, commonSemanticBoundaries...),
			MediatorTags:       commonMediatorTags,
			AtomicTags:         commonAtomicTags,
			ExtractMetadata: func(_ string, attrs map[string]string) ArtifactMetadata {
				return attrMeta("proxy", attrs, "name")
			},
		},
		{
			ID:                 "template",
			RootTags:           []string{"template"},
			SemanticBoundaries: append([]string{"sequence", "endpoint", "parameter"}, commonSemanticBoundaries...),
			MediatorTags:       commonMediatorTags,
			AtomicTags:         commonAtomicTags,
			ExtractMetadata: func(_ string, attrs map[string]string) ArtifactMetadata {
				return attrMeta("template", attrs, "name")
			},
		},
		{
			ID:                 "localEntry",
			RootTags:           []string{"localEntry"},
			SemanticBoundaries: commonSemanticBoundaries,
			AtomicTags:         []string{"property"},
			ExtractMetadata: func(_ string, attrs map[string]string) ArtifactMetadata {
				return attrMeta("localEntry", attrs, "key")
			},
		},
		{
			ID:                 "task",
			RootTags:           []string{"task"},
			SemanticBoundaries: append([]string{"trigger"}, commonSemanticBoundaries...),
			AtomicTags:         []string{"property"},
			ExtractMetadata: func(_ string, attrs map[string]string) ArtifactMetadata {
				return attrMeta("task", attrs, "name")
			},
		},
		{
			ID:                 "dataService",
			RootTags:           []string{"data"},
			SemanticBoundaries: []string{"query", "operation", "resource", "config"},
			AtomicTags:         []string{"property", "param"},
			ExtractMetadata: func(_ string, attrs map[string]string) ArtifactMetadata {
				return attrMeta("dataService", attrs, "name", "serviceNamespace")
			},
		},
		{
			ID:                 "inboundEndpoint",
			RootTags:           []string{"inboundEndpoint"},
			SemanticBoundaries: commonSemanticBoundaries,
			AtomicTags:         []string{"parameter"},
			ExtractMetadata: func(_ string, attrs map[string]string) ArtifactMetadata {
				return attrMeta("inboundEndpoint", attrs, "name")
			},
		},
		{
			ID:                 "messageStore",
			RootTags:           []string{"messageStore"},
			SemanticBoundaries: []string{"parameter"},
			AtomicTags:         []string{"parameter"},
			ExtractMetadata: func(_ string, attrs map[string]string) ArtifactMetadata {
				return attrMeta("messageStore", attrs, "name")
			},
		},
		{
			ID:                 "messageProcessor",
			RootTags:           []string{"messageProcessor"},
			SemanticBoundaries: []string{"parameter"},
			AtomicTags:         []string{"parameter"},
			ExtractMetadata: func(_ string, attrs map[string]string) ArtifactMetadata {
				return attrMeta("messageProcessor", attrs, "name")
			},
		},
		{
			ID:                 "eventSource",
			RootTags:           []string{"eventSource"},
			SemanticBoundaries: append([]string{"subscription"}, commonSemanticBoundaries...),
			MediatorTags:       commonMediatorTags,
			AtomicTags:         commonAtomicTags,
			ExtractMetadata: func(_ string, attrs map[string]string) ArtifactMetadata {
				return attrMeta("eventSource", attrs, "name")
			},
		},
	}
}
