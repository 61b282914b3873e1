package storage

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readQueue(t *testing.T, path string) []string {
	t.Helper()
	lines, err := ReadQueueFile(path)
	require.NoError(t, err)
	return lines
}

// TestFollowingsQueue_FirstMergeKeepsSnapshotOrder проверяет создание файла при первом запуске.
func TestFollowingsQueue_FirstMergeKeepsSnapshotOrder(t *testing.T) {
	path := FollowingsPath(t.TempDir(), "me")
	q, err := OpenFollowingsQueue(path)
	require.NoError(t, err)
	require.Equal(t, 0, q.Len())

	added, err := q.Merge([]string{"a", "b", "c", "b"})
	require.NoError(t, err)
	assert.Equal(t, 3, added)
	assert.Equal(t, []string{"a", "b", "c"}, q.Handles())
	assert.Equal(t, []string{"a", "b", "c"}, readQueue(t, path))
}

// TestFollowingsQueue_MergePrependsNewHandles проверяет инвариант слияния:
// ничего не теряется, дублей нет, новые подписки стоят раньше старых.
func TestFollowingsQueue_MergePrependsNewHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "me_followings.txt")
	require.NoError(t, os.WriteFile(path, []byte("c\na\n\nb\n"), 0o644))

	q, err := OpenFollowingsQueue(path)
	require.NoError(t, err)

	added, err := q.Merge([]string{"a", "x", "b", "y"})
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, []string{"x", "y", "c", "a", "b"}, q.Handles())
	assert.Equal(t, q.Handles(), readQueue(t, path))

	// Подписка, пропавшая из снимка, остаётся в очереди.
	added, err = q.Merge([]string{"x"})
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Equal(t, []string{"x", "y", "c", "a", "b"}, readQueue(t, path))
}

// TestFollowingsQueue_FullCycleIsPermutation проверяет справедливость: после N
// переносов в конец очередь совпадает с исходной, каждый аккаунт посещён ровно раз.
func TestFollowingsQueue_FullCycleIsPermutation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.txt")
	q, err := OpenFollowingsQueue(path)
	require.NoError(t, err)
	initial := []string{"a", "b", "c", "d"}
	_, err = q.Merge(initial)
	require.NoError(t, err)

	var visited []string
	for i := 0; i < len(initial); i++ {
		head, ok := q.Head()
		require.True(t, ok)
		visited = append(visited, head)
		require.NoError(t, q.MoveToTail(head))
	}
	assert.Equal(t, initial, visited)
	assert.Equal(t, initial, q.Handles())
	assert.Equal(t, initial, readQueue(t, path))

	sorted := append([]string(nil), visited...)
	sort.Strings(sorted)
	assert.Equal(t, initial, sorted)
}

// TestFollowingsQueue_MoveToTailSurvivesWriteError проверяет, что порядок в памяти
// продвигается даже если файл записать не удалось.
func TestFollowingsQueue_MoveToTailSurvivesWriteError(t *testing.T) {
	dir := t.TempDir()
	q, err := OpenFollowingsQueue(filepath.Join(dir, "q.txt"))
	require.NoError(t, err)
	_, err = q.Merge([]string{"a", "b"})
	require.NoError(t, err)

	// Путь, родитель которого — обычный файл, записать нельзя.
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	q.path = filepath.Join(blocker, "q.txt")

	err = q.MoveToTail("a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPersistence))
	assert.Equal(t, []string{"b", "a"}, q.Handles())
}
