package envblock

import (
	"regexp"
	"strings"
)

// environmentVariablesKey marks the managed block inside the launchd plist.
const environmentVariablesKey = "EnvironmentVariables"

// plistPairRe matches one <key>/<string> pair inside the managed dictionary.
var plistPairRe = regexp.MustCompile(`(?s)<key>([^<]*)</key>\s*<string>(.*?)</string>`)

// xmlEscaper escapes values embedded in plist <string> elements; xmlUnescaper
// is its inverse. The five entities cover everything plistlib emits.
var (
	xmlEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	xmlUnescaper = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
		"&amp;", "&",
	)
)

// encodePlist renders the EnvironmentVariables entry as it appears inside the
// plist's top-level dictionary. The fragment carries no trailing newline.
func encodePlist(cfg *ProxyConfig) string {
	var b strings.Builder
	b.WriteString("\t<key>" + environmentVariablesKey + "</key>\n")
	b.WriteString("\t<dict>\n")
	for _, kv := range cfg.vars() {
		b.WriteString("\t\t<key>" + kv[0] + "</key>\n")
		b.WriteString("\t\t<string>" + xmlEscaper.Replace(kv[1]) + "</string>\n")
	}
	b.WriteString("\t</dict>")
	return b.String()
}

// decodePlist extracts the proxy variables from the EnvironmentVariables
// dictionary, if one exists.
func decodePlist(text string) (*ProxyConfig, error) {
	start, end, ok := plistBlockBounds(text)
	if !ok {
		return nil, nil
	}

	// Skip past the marker key so its own <key> element is not treated as a
	// variable name.
	inner := text[start:end]
	if idx := strings.Index(inner, "<dict>"); idx >= 0 {
		inner = inner[idx+len("<dict>"):]
	}

	cfg := &ProxyConfig{}
	for _, m := range plistPairRe.FindAllStringSubmatch(inner, -1) {
		cfg.setVar(strings.TrimSpace(m[1]), xmlUnescaper.Replace(m[2]))
	}
	if cfg.empty() {
		return nil, nil
	}
	return cfg, nil
}

// patchPlist splices the managed dictionary into the plist text. When no
// block exists yet, the fragment is inserted just before the closing tag of
// the top-level dictionary.
func patchPlist(text string, cfg *ProxyConfig) (string, error) {
	start, end, ok := plistBlockBounds(text)
	if ok {
		// Widen the range to whole lines so indentation and the trailing
		// newline travel with the block.
		lineStart := strings.LastIndexByte(text[:start], '\n') + 1
		if strings.TrimSpace(text[lineStart:start]) == "" {
			start = lineStart
		}
		if end < len(text) && text[end] == '\n' {
			end++
		}
		if cfg == nil {
			return text[:start] + text[end:], nil
		}
		return text[:start] + encodePlist(cfg) + "\n" + text[end:], nil
	}

	if cfg == nil {
		return text, nil
	}
	insert := strings.LastIndex(text, "</dict>")
	if insert < 0 {
		return "", ErrBadFormat
	}
	return text[:insert] + encodePlist(cfg) + "\n" + text[insert:], nil
}

// plistBlockBounds locates the managed block, returning the byte range from
// the EnvironmentVariables key through its closing </dict>.
func plistBlockBounds(text string) (start, end int, ok bool) {
	marker := "<key>" + environmentVariablesKey + "</key>"
	keyIdx := strings.Index(text, marker)
	if keyIdx < 0 {
		return 0, 0, false
	}
	dictOpen := strings.Index(text[keyIdx:], "<dict>")
	if dictOpen < 0 {
		return 0, 0, false
	}

	// Walk <dict> tags keeping a depth count. Nested dictionaries do not
	// occur in a proxy block but a hand-edited file may hold anything.
	depth := 0
	i := keyIdx + dictOpen
	for i < len(text) {
		open := strings.Index(text[i:], "<dict>")
		clos := strings.Index(text[i:], "</dict>")
		if clos < 0 {
			return 0, 0, false
		}
		if open >= 0 && open < clos {
			depth++
			i += open + len("<dict>")
			continue
		}
		depth--
		i += clos + len("</dict>")
		if depth == 0 {
			return keyIdx, i, true
		}
	}
	return 0, 0, false
}
