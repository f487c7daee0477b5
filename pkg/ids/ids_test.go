package ids

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProjectId_DeterministicForEqualCanonicalPaths(t *testing.T) {
	a := ProjectId("/home/dev/my-repo")
	b := ProjectId("/home/dev//my-repo/")
	require.Equal(t, a, b)
}

func TestProjectId_DiffersForDifferentPaths(t *testing.T) {
	a := ProjectId("/home/dev/repo-a")
	b := ProjectId("/home/dev/repo-b")
	require.NotEqual(t, a, b)
}

func TestProjectId_FormatIsSanitizedBasenamePlusHex(t *testing.T) {
	id := ProjectId("/home/dev/My Cool Repo!!")
	require.Regexp(t, `^my-cool-repo-[0-9a-f]{8}$`, id)
}

func TestWorkspaceName_IsBasename(t *testing.T) {
	require.Equal(t, "feature-x", WorkspaceName("/home/dev/.worktrees/feature-x"))
	require.Equal(t, "feature-x", WorkspaceName("/home/dev/.worktrees/feature-x/"))
}
