package envblock

import (
	"strings"
	"testing"
)

func TestEncodeDropIn(t *testing.T) {
	cfg := &ProxyConfig{
		HTTP:  "http://127.0.0.1:7890",
		HTTPS: "http://127.0.0.1:7890",
		All:   "http://127.0.0.1:7890",
	}

	got := encodeDropIn(cfg)
	want := `[Service]
Environment="http_proxy=http://127.0.0.1:7890"
Environment="https_proxy=http://127.0.0.1:7890"
Environment="all_proxy=http://127.0.0.1:7890"
`
	if got != want {
		t.Errorf("encodeDropIn() mismatch:\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func TestDecodeDropIn(t *testing.T) {
	tests := []struct {
		name string
		text string
		want *ProxyConfig
	}{
		{
			name: "empty",
			text: "",
			want: nil,
		},
		{
			name: "unrelated drop-in",
			text: "[Service]\nLimitNOFILE=1048576\nEnvironment=\"NIX_SSL_CERT_FILE=/etc/ssl/cert.pem\"\n",
			want: nil,
		},
		{
			name: "managed block",
			text: "[Service]\nEnvironment=\"http_proxy=http://h:1\"\nEnvironment=\"https_proxy=http://h:1\"\n",
			want: &ProxyConfig{HTTP: "http://h:1", HTTPS: "http://h:1"},
		},
		{
			name: "managed block among other directives",
			text: "[Service]\nLimitNOFILE=4096\nEnvironment=\"http_proxy=http://h:1\"\nEnvironment=\"TMPDIR=/tmp\"\n",
			want: &ProxyConfig{HTTP: "http://h:1"},
		},
		{
			name: "unquoted values",
			text: "[Service]\nEnvironment=https_proxy=http://h:2\n",
			want: &ProxyConfig{HTTPS: "http://h:2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeDropIn(tt.text)
			if !got.Equal(tt.want) {
				t.Errorf("decodeDropIn() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPatchDropInInsertIntoExistingSection(t *testing.T) {
	existing := "[Service]\nLimitNOFILE=1048576\n"
	cfg := &ProxyConfig{HTTP: "http://h:1", HTTPS: "http://h:1"}

	patched := patchDropIn(existing, cfg)

	if !strings.Contains(patched, "LimitNOFILE=1048576") {
		t.Error("unrelated directive was dropped")
	}
	lines := strings.Split(strings.TrimRight(patched, "\n"), "\n")
	if lines[0] != "[Service]" {
		t.Errorf("expected [Service] header first, got %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], `Environment="http_proxy=`) {
		t.Errorf("managed lines should follow the header, got %q", lines[1])
	}

	if got := decodeDropIn(patched); !got.Equal(cfg) {
		t.Errorf("decode after patch = %+v, want %+v", got, cfg)
	}
}

func TestPatchDropInOverwrite(t *testing.T) {
	first := &ProxyConfig{HTTP: "http://a:1", HTTPS: "http://a:1", All: "http://a:1"}
	second := &ProxyConfig{HTTP: "http://b:2", HTTPS: "http://b:2", All: "http://b:2"}

	text := patchDropIn("", first)
	text = patchDropIn(text, second)

	if strings.Contains(text, "http://a:1") {
		t.Error("overwrite appended instead of replacing")
	}
	if got := decodeDropIn(text); !got.Equal(second) {
		t.Errorf("decode after overwrite = %+v, want %+v", got, second)
	}
	if n := strings.Count(text, "[Service]"); n != 1 {
		t.Errorf("expected a single [Service] header, found %d", n)
	}
}

func TestPatchDropInRemove(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "only managed content collapses to nothing",
			text: "[Service]\nEnvironment=\"http_proxy=http://h:1\"\nEnvironment=\"https_proxy=http://h:1\"\n",
			want: "",
		},
		{
			name: "unrelated directives survive",
			text: "[Service]\nLimitNOFILE=4096\nEnvironment=\"http_proxy=http://h:1\"\n",
			want: "[Service]\nLimitNOFILE=4096\n",
		},
		{
			name: "other sections survive",
			text: "[Unit]\nDescription=override\n\n[Service]\nEnvironment=\"http_proxy=http://h:1\"\n",
			want: "[Unit]\nDescription=override\n\n[Service]\n",
		},
		{
			name: "empty input stays empty",
			text: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := patchDropIn(tt.text, nil); got != tt.want {
				t.Errorf("patchDropIn(nil) = %q, want %q", got, tt.want)
			}
		})
	}
}
