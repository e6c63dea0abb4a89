package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	pcore "github.com/plexil-group/plexil-sub009"
)

func writeJSON(t *testing.T, dir, name string, v any) string {
	t.Helper()
	path := filepath.Join(dir, name)
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRunExecutesSingleAssignmentNodeToCompletion(t *testing.T) {
	dir := t.TempDir()
	planPath := writeJSON(t, dir, "plan.json", planFile{
		Nodes: []struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		}{
			{ID: "n1", Type: "Assignment"},
		},
	})

	code := run([]string{"-p", planPath})
	require.Equal(t, 0, code)
}

func TestRunMissingPlanFlagReturnsUsageError(t *testing.T) {
	code := run([]string{})
	require.Equal(t, 2, code)
}

func TestRunRejectsUnreadablePlanPath(t *testing.T) {
	code := run([]string{"-p", filepath.Join(t.TempDir(), "missing.json")})
	require.Equal(t, 2, code)
}

func TestParseNodeTypeCoversAllKinds(t *testing.T) {
	cases := map[string]pcore.NodeType{
		"Assignment":  pcore.AssignmentNode,
		"Command":     pcore.CommandNode,
		"Update":      pcore.UpdateNode,
		"NodeList":    pcore.ListNode,
		"LibraryCall": pcore.LibraryCallNode,
		"Bogus":       pcore.EmptyNode,
	}
	for raw, want := range cases {
		require.Equal(t, want, parseNodeType(raw), raw)
	}
}

func TestAllFinishedRequiresEveryRoot(t *testing.T) {
	a := pcore.NewNode("a", pcore.EmptyNode)
	b := pcore.NewNode("b", pcore.EmptyNode)
	require.False(t, allFinished([]*pcore.Node{a, b}))
}
