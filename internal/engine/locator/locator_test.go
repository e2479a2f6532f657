package locator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "javakg/internal/core/errors"
	"javakg/internal/engine/diagnostic"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func rels(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Rel)
	}
	return out
}

func TestLocateFiltersAndSorts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/main/java/com/acme/B.java", "class B {}")
	writeFile(t, root, "src/main/java/com/acme/A.java", "class A {}")
	writeFile(t, root, "src/main/java/com/acme/notes.txt", "x")
	writeFile(t, root, "target/generated/Gen.java", "class Gen {}")
	writeFile(t, root, ".git/objects/X.java", "class X {}")
	writeFile(t, root, "generated/Skip.java", "class Skip {}")
	writeFile(t, root, "src/Secret.java", "class Secret {}")
	writeFile(t, root, "src/package-info.java", "package src;")
	writeFile(t, root, ".gitignore", "generated/\nSecret.java\n")
	writeFile(t, root, "pom.xml", "<project/>")
	writeFile(t, root, "module/build.gradle", "")

	rules := DefaultRules(root)
	rules.ExcludeFiles = []string{"package-info.java"}
	res, err := Locate(context.Background(), rules)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"src/main/java/com/acme/A.java",
		"src/main/java/com/acme/B.java",
	}, rels(res.Sources))
	assert.Equal(t, []string{"module/build.gradle", "pom.xml"}, rels(res.BuildFiles))
	assert.Empty(t, res.Diagnostics)
	assert.Len(t, res.All(), 4)
	assert.Equal(t, KindBuild, res.All()[0].Kind)
}

func TestLocateWithoutGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "generated/Kept.java", "class Kept {}")
	writeFile(t, root, ".gitignore", "generated/\n")

	rules := DefaultRules(root)
	rules.UseGitignore = false
	res, err := Locate(context.Background(), rules)
	require.NoError(t, err)
	assert.Equal(t, []string{"generated/Kept.java"}, rels(res.Sources))
}

func TestLocateSymlinkCycleTerminates(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/A.java", "class A {}")
	if err := os.Symlink(root, filepath.Join(root, "a", "loop")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	rules := DefaultRules(root)
	rules.FollowSymlinks = true
	res, err := Locate(context.Background(), rules)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/A.java"}, rels(res.Sources))

	rules.FollowSymlinks = false
	res, err = Locate(context.Background(), rules)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/A.java"}, rels(res.Sources))
}

func TestLocateReportsBrokenSymlink(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/A.java", "class A {}")
	if err := os.Symlink(filepath.Join(root, "gone.java"), filepath.Join(root, "a", "Dangling.java")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	res, err := Locate(context.Background(), DefaultRules(root))
	require.NoError(t, err)
	assert.Equal(t, []string{"a/A.java"}, rels(res.Sources))
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "a/Dangling.java", res.Diagnostics[0].File)
	assert.Equal(t, diagnostic.CodeUnreadable, res.Diagnostics[0].Code)
	assert.Equal(t, diagnostic.SeverityError, res.Diagnostics[0].Severity)
}

func TestLocateReportsUnreadableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}
	root := t.TempDir()
	writeFile(t, root, "open/A.java", "class A {}")
	writeFile(t, root, "closed/B.java", "class B {}")
	closed := filepath.Join(root, "closed")
	require.NoError(t, os.Chmod(closed, 0))
	t.Cleanup(func() { _ = os.Chmod(closed, 0o755) })

	res, err := Locate(context.Background(), DefaultRules(root))
	require.NoError(t, err)
	assert.Equal(t, []string{"open/A.java"}, rels(res.Sources))
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "closed", res.Diagnostics[0].File)
	assert.Equal(t, diagnostic.CodeUnreadable, res.Diagnostics[0].Code)
}

func TestLocateExtraBuildFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "ci/deps.gradle", "implementation 'a:b:1'")

	rules := DefaultRules(root)
	rules.ExtraBuildFiles = []string{"ci/deps.gradle", "missing/pom.xml"}
	res, err := Locate(context.Background(), rules)
	require.NoError(t, err)
	assert.Equal(t, []string{"ci/deps.gradle"}, rels(res.BuildFiles))
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "missing/pom.xml", res.Diagnostics[0].File)
}

func TestLocateMissingRoot(t *testing.T) {
	_, err := Locate(context.Background(), DefaultRules(filepath.Join(t.TempDir(), "nope")))
	require.Error(t, err)
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeNotFound))
}

func TestLocateRootIsFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "A.java", "class A {}")
	_, err := Locate(context.Background(), DefaultRules(filepath.Join(root, "A.java")))
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeNotFound))
}

func TestLocateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Locate(ctx, DefaultRules(t.TempDir()))
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeAborted))
}
