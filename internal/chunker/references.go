package chunker

import "regexp"

// referencePattern pairs a regex matching one reference form against
// raw chunk content with the qualifier prefixing its captured name,
// implementing the six forms of §4.2.4.
type referencePattern struct {
	re     *regexp.Regexp
	prefix string
}

const attrValue = `(?:"([^"]*)"|'([^']*)')`

var referencePatterns = []referencePattern{
	{regexp.MustCompile(`<sequence\b[^>]*\bkey=` + attrValue), "sequence"},
	{regexp.MustCompile(`\bconfigKey=` + attrValue), "localEntry"},
	{regexp.MustCompile(`<endpoint\b[^>]*\bkey=` + attrValue), "endpoint"},
	{regexp.MustCompile(`<call-template\b[^>]*\btarget=` + attrValue), "template"},
	{regexp.MustCompile(`\buseConfig=` + attrValue), "config"},
	{regexp.MustCompile(`<call-query\b[^>]*\bhref=` + attrValue), "query"},
}

// extractReferences scans raw chunk content for the six reference
// forms and returns qualified "kind:name" strings in pattern order,
// deduplicated, matching §4.2.4.
func extractReferences(rawContent string) []string {
	var refs []string
	seen := map[string]bool{}
	for _, p := range referencePatterns {
		for _, m := range p.re.FindAllStringSubmatch(rawContent, -1) {
			name := m[1]
			if name == "" {
				name = m[2]
			}
			if name == "" {
				continue
			}
			ref := p.prefix + ":" + name
			if !seen[ref] {
				seen[ref] = true
				refs = append(refs, ref)
			}
		}
	}
	return refs
}

// definitionChunkTypes are the chunk types that constitute a
// standalone artifact definition per §4.2.4.
var definitionChunkTypes = map[string]bool{
	"sequence": true, "localEntry": true, "endpoint": true, "template": true,
}

func isDefinitionChunkType(chunkType string) bool {
	return definitionChunkTypes[localName(chunkType)]
}
