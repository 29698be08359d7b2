package chunker

import "github.com/minuraashen/synapse-semantic-index/internal/registry"

// classifySemanticType maps a chunk-inducing tag to one of the
// semantic_type values in §3. Order matters: connector and policy
// shapes are structural signals that take priority over a plain
// registry hit.
func classifySemanticType(tag string, reg *registry.Registry) string {
	local := localName(tag)
	switch {
	case isConnectorStyle(tag):
		return "connector"
	case isPolicyLike(tag):
		return "policy"
	case reg.IsMediator(tag):
		return "mediator"
	case local == "sequence":
		return "sequence"
	case local == "api":
		return "api"
	case reg.IsResourceType(tag):
		return "component"
	case commonBoundarySet[local]:
		return "boundary"
	case isDeclarativeConfig(local):
		return "configuration"
	default:
		return "mediation"
	}
}

var commonBoundarySet = func() map[string]bool {
	m := make(map[string]bool, len(commonSemanticBoundariesList))
	for _, b := range commonSemanticBoundariesList {
		m[b] = true
	}
	return m
}()

// commonSemanticBoundariesList mirrors registry.commonSemanticBoundaries
// for classification purposes; kept local to avoid exporting the
// registry package's unexported table.
var commonSemanticBoundariesList = []string{
	"resource", "target", "inSequence", "outSequence", "faultSequence",
	"onError", "then", "else", "onAccept", "onReject", "onComplete", "branch",
}

// intentKeyword pairs a local-name substring with the semantic_intent
// it signals; checked in order, first match wins.
type intentKeyword struct {
	substr string
	intent string
}

var intentKeywords = []intentKeyword{
	{"validate", "validation"},
	{"transform", "transformation"},
	{"xslt", "transformation"},
	{"datamapper", "transformation"},
	{"jsontransform", "transformation"},
	{"payloadFactory", "transformation"},
	{"respond", "response"},
	{"log", "logging"},
	{"fault", "error-handling"},
	{"onError", "error-handling"},
	{"call-query", "data-access"},
	{"dataService", "data-access"},
	{"call", "delegation"},
	{"send", "delegation"},
	{"sequence", "mediation"},
	{"filter", "mediation"},
	{"switch", "mediation"},
}

func classifySemanticIntent(tag string) string {
	local := localName(tag)
	for _, kw := range intentKeywords {
		if containsFold(local, kw.substr) {
			return kw.intent
		}
	}
	return "processing"
}

func containsFold(s, substr string) bool {
	return len(s) >= len(substr) && indexFold(s, substr) >= 0
}

func indexFold(s, substr string) int {
	ls, lsub := toLowerASCII(s), toLowerASCII(substr)
	for i := 0; i+len(lsub) <= len(ls); i++ {
		if ls[i:i+len(lsub)] == lsub {
			return i
		}
	}
	return -1
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
