package version

import "testing"

func TestString(t *testing.T) {
	oldV, oldSHA, oldTime := Version, GitSHA, BuildTime
	t.Cleanup(func() { Version, GitSHA, BuildTime = oldV, oldSHA, oldTime })

	Version, GitSHA, BuildTime = "v0.3.1", "abc1234", "2026-01-02T03:04:05Z"
	want := "molscan v0.3.1 (abc1234, built 2026-01-02T03:04:05Z)"
	if got := String("molscan"); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
