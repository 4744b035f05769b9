package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ProjectStore {
	t.Helper()
	s, err := NewProjectStore(filepath.Join(t.TempDir(), "forge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetProject(t *testing.T) {
	s := newTestStore(t)

	p, err := s.CreateProject(ProjectFields{Name: "shop", Type: "web", Description: "a shop"})
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)
	require.False(t, p.CreatedAt.IsZero())

	got, ok, err := s.GetProject(p.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "shop", got.Name)
	require.Equal(t, "web", got.Type)
}

func TestGetProjectAbsent(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.GetProject("nope")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUpdateFilePartial(t *testing.T) {
	s := newTestStore(t)

	p, err := s.CreateProject(ProjectFields{Name: "p", Type: "web"})
	require.NoError(t, err)
	f, err := s.CreateFile(FileFields{ProjectID: p.ID, Name: "main.css", Path: "css/main.css", Content: "a{}", Type: "css"})
	require.NoError(t, err)
	require.False(t, f.Modified)

	content := "b{}"
	updated, ok, err := s.UpdateFile(f.ID, FileUpdate{Content: &content})
	require.NoError(t, err)
	require.True(t, ok)

	// Only content changes; path and name survive; modified flips.
	require.Equal(t, "b{}", updated.Content)
	require.Equal(t, "css/main.css", updated.Path)
	require.Equal(t, "main.css", updated.Name)
	require.True(t, updated.Modified)
}

func TestUpdateFileAbsent(t *testing.T) {
	s := newTestStore(t)

	content := "x"
	_, ok, err := s.UpdateFile("missing", FileUpdate{Content: &content})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDeleteFile(t *testing.T) {
	s := newTestStore(t)

	p, err := s.CreateProject(ProjectFields{Name: "p", Type: "python"})
	require.NoError(t, err)
	f, err := s.CreateFile(FileFields{ProjectID: p.ID, Name: "run.py", Path: "run.py", Type: "py"})
	require.NoError(t, err)

	ok, err := s.DeleteFile(f.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.DeleteFile(f.ID)
	require.NoError(t, err)
	require.False(t, ok, "second delete must report absence")
}

func TestDeleteProjectCascades(t *testing.T) {
	s := newTestStore(t)

	p, err := s.CreateProject(ProjectFields{Name: "p", Type: "apk"})
	require.NoError(t, err)
	f, err := s.CreateFile(FileFields{ProjectID: p.ID, Name: "a.xml", Path: "res/a.xml", Type: "xml"})
	require.NoError(t, err)
	_, err = s.AppendMessage(p.ID, "user", "change the icon")
	require.NoError(t, err)

	ok, err := s.DeleteProject(p.ID)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = s.GetFile(f.ID)
	require.NoError(t, err)
	require.False(t, ok, "files must cascade on project delete")

	msgs, err := s.Messages(p.ID)
	require.NoError(t, err)
	require.Empty(t, msgs, "conversations must cascade on project delete")
}

func TestConversationOrder(t *testing.T) {
	s := newTestStore(t)

	p, err := s.CreateProject(ProjectFields{Name: "p", Type: "web"})
	require.NoError(t, err)

	_, err = s.AppendMessage(p.ID, "user", "first")
	require.NoError(t, err)
	_, err = s.AppendMessage(p.ID, "assistant", "second")
	require.NoError(t, err)

	msgs, err := s.Messages(p.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "first", msgs[0].Content)
	require.Equal(t, "second", msgs[1].Content)
}
