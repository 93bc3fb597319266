package envblock

import (
	"strings"
)

// serviceSection heads the drop-in section that carries Environment=
// directives.
const serviceSection = "[Service]"

// encodeDropIn renders the managed block as a complete systemd drop-in
// fragment, one Environment= directive per variable.
func encodeDropIn(cfg *ProxyConfig) string {
	var b strings.Builder
	b.WriteString(serviceSection + "\n")
	for _, kv := range cfg.vars() {
		b.WriteString(`Environment="` + kv[0] + "=" + kv[1] + "\"\n")
	}
	return b.String()
}

// decodeDropIn extracts the proxy variables from a drop-in's Environment=
// directives. Directives for other variables and other unit settings are
// ignored.
func decodeDropIn(text string) *ProxyConfig {
	cfg := &ProxyConfig{}
	for _, line := range strings.Split(text, "\n") {
		if name, value, ok := parseEnvironmentLine(line); ok {
			cfg.setVar(name, value)
		}
	}
	if cfg.empty() {
		return nil
	}
	return cfg
}

// patchDropIn rewrites the drop-in line by line: managed directives are
// stripped, and when cfg is non-nil fresh ones are inserted right after the
// [Service] header (appending the section if the file lacks one). A result
// that holds nothing but the bare header collapses to the empty string.
func patchDropIn(text string, cfg *ProxyConfig) string {
	var lines []string
	if text != "" {
		lines = strings.Split(text, "\n")
		// Drop the empty element a trailing newline produces; the join below
		// re-adds the final newline.
		if lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}
	}

	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if isManagedLine(line) {
			continue
		}
		kept = append(kept, line)
	}

	if cfg != nil {
		managed := make([]string, 0, 3)
		for _, kv := range cfg.vars() {
			managed = append(managed, `Environment="`+kv[0]+"="+kv[1]+`"`)
		}

		inserted := false
		for i, line := range kept {
			if strings.TrimSpace(line) == serviceSection {
				kept = append(kept[:i+1], append(managed, kept[i+1:]...)...)
				inserted = true
				break
			}
		}
		if !inserted {
			kept = append(kept, serviceSection)
			kept = append(kept, managed...)
		}
	}

	if onlyBareHeader(kept) {
		return ""
	}
	return strings.Join(kept, "\n") + "\n"
}

// isManagedLine reports whether line is an Environment= directive owned by
// nixproxy.
func isManagedLine(line string) bool {
	name, _, ok := parseEnvironmentLine(line)
	if !ok {
		return false
	}
	return name == HTTPProxyVar || name == HTTPSProxyVar || name == AllProxyVar
}

// parseEnvironmentLine splits an Environment="NAME=VALUE" directive into its
// variable name and value.
func parseEnvironmentLine(line string) (name, value string, ok bool) {
	trimmed := strings.TrimSpace(line)
	rest, found := strings.CutPrefix(trimmed, "Environment=")
	if !found {
		return "", "", false
	}
	rest = strings.Trim(rest, `"`)
	name, value, found = strings.Cut(rest, "=")
	if !found || name == "" {
		return "", "", false
	}
	return name, value, true
}

// onlyBareHeader reports whether the remaining lines carry no directive of
// their own.
func onlyBareHeader(lines []string) bool {
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && trimmed != serviceSection {
			return false
		}
	}
	return true
}
