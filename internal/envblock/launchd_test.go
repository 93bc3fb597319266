package envblock

import (
	"strings"
	"testing"
)

// nixDaemonPlist mirrors the descriptor the Nix installer places under
// /Library/LaunchDaemons, including a nested dictionary.
const nixDaemonPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>org.nixos.nix-daemon</string>
	<key>KeepAlive</key>
	<true/>
	<key>RunAtLoad</key>
	<true/>
	<key>ProgramArguments</key>
	<array>
		<string>/bin/sh</string>
		<string>-c</string>
		<string>/bin/wait4path /nix/var/nix/profiles/default/bin/nix-daemon &amp;&amp; exec /nix/var/nix/profiles/default/bin/nix-daemon</string>
	</array>
	<key>StandardErrorPath</key>
	<string>/var/log/nix-daemon.log</string>
	<key>SoftResourceLimits</key>
	<dict>
		<key>NumberOfFiles</key>
		<integer>1048576</integer>
	</dict>
</dict>
</plist>
`

func TestDecodePlistNoBlock(t *testing.T) {
	cfg, err := decodePlist(nixDaemonPlist)
	if err != nil {
		t.Fatalf("decodePlist() failed: %v", err)
	}
	if cfg != nil {
		t.Errorf("expected nil config for plist without block, got %+v", cfg)
	}
}

func TestPatchPlistInsert(t *testing.T) {
	cfg := &ProxyConfig{
		HTTP:  "http://127.0.0.1:7890",
		HTTPS: "http://127.0.0.1:7890",
	}

	patched, err := patchPlist(nixDaemonPlist, cfg)
	if err != nil {
		t.Fatalf("patchPlist() failed: %v", err)
	}

	if !strings.Contains(patched, "<key>EnvironmentVariables</key>") {
		t.Error("patched plist is missing the managed block")
	}
	if !strings.Contains(patched, "<string>http://127.0.0.1:7890</string>") {
		t.Error("patched plist is missing the proxy URL")
	}

	// The block must sit inside the top-level dictionary.
	if !strings.HasSuffix(strings.TrimSpace(patched), "</dict>\n</plist>") {
		t.Errorf("plist structure damaged:\n%s", patched)
	}

	decoded, err := decodePlist(patched)
	if err != nil {
		t.Fatalf("decodePlist() failed: %v", err)
	}
	if !decoded.Equal(cfg) {
		t.Errorf("expected %+v, got %+v", cfg, decoded)
	}
}

func TestPatchPlistReplaceAndRemovePreservesRest(t *testing.T) {
	first := &ProxyConfig{HTTP: "http://a:1", HTTPS: "http://a:1", All: "http://a:1"}
	second := &ProxyConfig{HTTP: "http://b:2", HTTPS: "http://b:2"}

	withFirst, err := patchPlist(nixDaemonPlist, first)
	if err != nil {
		t.Fatalf("patchPlist(first) failed: %v", err)
	}
	withSecond, err := patchPlist(withFirst, second)
	if err != nil {
		t.Fatalf("patchPlist(second) failed: %v", err)
	}

	if strings.Contains(withSecond, "http://a:1") {
		t.Error("replace left the old URL behind")
	}
	decoded, err := decodePlist(withSecond)
	if err != nil {
		t.Fatalf("decodePlist() failed: %v", err)
	}
	if !decoded.Equal(second) {
		t.Errorf("expected %+v, got %+v", second, decoded)
	}

	// Removing the block must restore the original bytes exactly.
	removed, err := patchPlist(withSecond, nil)
	if err != nil {
		t.Fatalf("patchPlist(nil) failed: %v", err)
	}
	if removed != nixDaemonPlist {
		t.Errorf("bytes outside the managed block changed:\nwant:\n%s\ngot:\n%s", nixDaemonPlist, removed)
	}
}

func TestPatchPlistRemoveWithoutBlock(t *testing.T) {
	patched, err := patchPlist(nixDaemonPlist, nil)
	if err != nil {
		t.Fatalf("patchPlist(nil) failed: %v", err)
	}
	if patched != nixDaemonPlist {
		t.Error("removal from a clean plist must not change it")
	}
}

func TestPatchPlistMalformed(t *testing.T) {
	cfg := &ProxyConfig{HTTP: "http://h:1"}
	if _, err := patchPlist("not a plist at all", cfg); err == nil {
		t.Error("expected error for plist without a top-level dict")
	}
}

func TestDecodePlistEscapedValues(t *testing.T) {
	cfg := &ProxyConfig{HTTP: "http://u:p@h:1/?a=1&b=2", HTTPS: "http://u:p@h:1/?a=1&b=2"}

	encoded := encodePlist(cfg)
	if strings.Contains(encoded, "a=1&b") {
		t.Error("ampersand was not escaped in the plist fragment")
	}

	decoded, err := decodePlist(encoded)
	if err != nil {
		t.Fatalf("decodePlist() failed: %v", err)
	}
	if !decoded.Equal(cfg) {
		t.Errorf("expected %+v, got %+v", cfg, decoded)
	}
}

func TestPlistBlockBoundsNestedDict(t *testing.T) {
	cfg := &ProxyConfig{HTTP: "http://h:1", HTTPS: "http://h:1"}
	patched, err := patchPlist(nixDaemonPlist, cfg)
	if err != nil {
		t.Fatalf("patchPlist() failed: %v", err)
	}

	start, end, ok := plistBlockBounds(patched)
	if !ok {
		t.Fatal("plistBlockBounds() did not find the block")
	}
	block := patched[start:end]
	if strings.Contains(block, "SoftResourceLimits") {
		t.Errorf("block bounds swallowed unrelated content:\n%s", block)
	}
	if !strings.HasPrefix(block, "<key>EnvironmentVariables</key>") {
		t.Errorf("unexpected block start:\n%s", block)
	}
	if !strings.HasSuffix(block, "</dict>") {
		t.Errorf("unexpected block end:\n%s", block)
	}
}
