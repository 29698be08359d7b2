package chunker

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	preserveBlockRe = regexp.MustCompile(`(?s)<(format|args)\b[^>]*>(.*?)</(?:format|args)>`)
	dquoteAttrRe    = regexp.MustCompile(`="([^"]*)"`)
	squoteAttrRe    = regexp.MustCompile(`='([^']*)'`)
)

const maxTokenLen = 100

// buildEmbeddingText constructs embedding_text = formatted_metadata + "
// " + cleaned_content per §4.2.3.
func buildEmbeddingText(ctx Context, refs []string, rawContent string) string {
	metadata := formatMetadata(ctx, refs)
	content := cleanContent(rawContent)
	return strings.TrimSpace(metadata + " " + content)
}

// formatMetadata flattens context deterministically (sorted keys, so
// content_hash stays reproducible across runs) into "Key: k=v k=v"
// fragments, appending "Uses: ref1, ref2, ..." when refs is non-empty.
func formatMetadata(ctx Context, refs []string) string {
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		switch v := ctx[k].(type) {
		case string:
			parts = append(parts, fmt.Sprintf("%s: %s", k, v))
		case map[string]string:
			parts = append(parts, fmt.Sprintf("%s: %s", k, formatStringMap(v)))
		case map[string]any:
			parts = append(parts, fmt.Sprintf("%s: %s", k, formatAnyMap(v)))
		}
	}
	out := strings.Join(parts, " ")
	if len(refs) > 0 {
		out += " Uses: " + strings.Join(refs, ", ")
	}
	return out
}

func formatStringMap(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+m[k])
	}
	return strings.Join(parts, " ")
}

func formatAnyMap(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, m[k]))
	}
	return strings.Join(parts, " ")
}

// cleanContent strips angle brackets and attribute quotes from raw XML
// content, preserves <format>/<args> JSON payloads verbatim, and
// normalizes everything else to whitespace-separated tokens dropping
// anything longer than maxTokenLen per §4.2.3.
func cleanContent(raw string) string {
	var preserved []string
	replaced := preserveBlockRe.ReplaceAllStringFunc(raw, func(block string) string {
		m := preserveBlockRe.FindStringSubmatch(block)
		preserved = append(preserved, strings.TrimSpace(m[2]))
		return fmt.Sprintf("\x00PRESERVED%d\x00", len(preserved)-1)
	})

	stripped := stripAngleBrackets(replaced)

	tokens := strings.Fields(stripped)
	kept := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if len(t) <= maxTokenLen {
			kept = append(kept, t)
		}
	}
	result := strings.Join(kept, " ")

	for i, p := range preserved {
		placeholder := fmt.Sprintf("\x00PRESERVED%d\x00", i)
		result = strings.Replace(result, placeholder, p, 1)
	}
	return result
}

func stripAngleBrackets(s string) string {
	s = dquoteAttrRe.ReplaceAllString(s, "=$1")
	s = squoteAttrRe.ReplaceAllString(s, "=$1")
	s = strings.ReplaceAll(s, "/>", " ")
	s = strings.NewReplacer("<", " ", ">", " ").Replace(s)
	return s
}
