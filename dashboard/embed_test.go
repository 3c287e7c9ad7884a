package dashboard

import (
	"io/fs"
	"strings"
	"testing"
)

func TestAssetsContainIndex(t *testing.T) {
	content, err := fs.ReadFile(Assets, "assets/index.html")
	if err != nil {
		t.Fatalf("index.html not embedded: %v", err)
	}

	page := string(content)
	for _, want := range []string{"{{.Title}}", "/api/sse", "/api/interaction", "visibilitychange"} {
		if !strings.Contains(page, want) {
			t.Errorf("index.html missing %q", want)
		}
	}
}
