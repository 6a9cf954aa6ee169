package buildinfo

import (
	"strings"
	"testing"

	"github.com/Masterminds/semver"
)

func TestVersionIsSemver(t *testing.T) {
	if _, err := semver.NewVersion(Version); err != nil {
		t.Errorf("Version %q is not a semantic version: %v", Version, err)
	}
}

func TestDescribe(t *testing.T) {
	if !strings.Contains(Describe(), FullVersion()) {
		t.Errorf("Describe() does not contain the full version")
	}
}
