package termmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilename(t *testing.T) {
	for _, tc := range []struct{ src, tgt, want string }{
		{"en", "zh", "term_map.en-zh.json"},
		{"zh-CN", "en-US", "term_map.zh-en.json"},
		{"en", "zh-Hant", "term_map.en-zh.json"},
		{"pt-BR", "ja", "term_map.pt-ja.json"},
		{"klingon!", "en", "term_map.klingon!-en.json"},
	} {
		assert.Equal(t, tc.want, Filename(tc.src, tc.tgt), "%s -> %s", tc.src, tc.tgt)
	}
	assert.Equal(t, filepath.Join("/media/show", "term_map.en-zh.json"), FilePath("/media/show", "en", "zh-TW"))
}

func TestNearest(t *testing.T) {
	root := t.TempDir()
	season := filepath.Join(root, "show", "s01")
	require.NoError(t, os.MkdirAll(season, 0o755))

	assert.Empty(t, Nearest(season, "en", "zh"))

	showLevel := FilePath(filepath.Join(root, "show"), "en", "zh")
	require.NoError(t, Save(showLevel, TermMap{"a": "b"}))
	assert.Equal(t, showLevel, Nearest(season, "en", "zh"))
	assert.Empty(t, Nearest(season, "en", "ja"))

	seasonLevel := FilePath(season, "en", "zh")
	require.NoError(t, Save(seasonLevel, TermMap{"c": "d"}))
	assert.Equal(t, seasonLevel, Nearest(season, "en", "zh"), "closest file wins")

	// a directory with the glossary's name is not a glossary
	require.NoError(t, os.MkdirAll(FilePath(season, "en", "ko"), 0o755))
	assert.Empty(t, Nearest(season, "en", "ko"))
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "term_map.en-zh.json")
	want := TermMap{"Walter White": "华特·怀特", "Jesse": "杰西"}

	require.NoError(t, Save(path, want))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"Jesse\": \"杰西\",\n  \"Walter White\": \"华特·怀特\"\n}\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestSaveNilWritesEmptyObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, Save(path, nil))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadCleansEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g.json")
	require.NoError(t, os.WriteFile(path, []byte(`{" Heisenberg ":" 海森堡 ","":"x","Saul":"  "}`), 0o644))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, TermMap{"Heisenberg": "海森堡"}, got)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "list.json")
	require.NoError(t, os.WriteFile(path, []byte(`["not", "an", "object"]`), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "list.json is not a JSON object")
}

func TestResolve(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "show", "s01")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	input := filepath.Join(dir, "e01.srt")

	t.Run("nothing to find", func(t *testing.T) {
		tm, path, err := Resolve(input, "", "en", "zh-Hant")
		require.NoError(t, err)
		assert.Nil(t, tm)
		assert.Empty(t, path)
	})

	show := FilePath(filepath.Join(root, "show"), "en", "zh")
	require.NoError(t, Save(show, TermMap{"Okarun": "奥卡轮"}))

	t.Run("ancestor glossary", func(t *testing.T) {
		tm, path, err := Resolve(input, "", "en", "zh-Hant")
		require.NoError(t, err)
		assert.Equal(t, show, path)
		assert.Equal(t, TermMap{"Okarun": "奥卡轮"}, tm)
	})

	t.Run("search needs both languages", func(t *testing.T) {
		tm, path, err := Resolve(input, "", "", "zh-Hant")
		require.NoError(t, err)
		assert.Nil(t, tm)
		assert.Empty(t, path)
	})

	t.Run("explicit path", func(t *testing.T) {
		explicit := filepath.Join(root, "custom.json")
		require.NoError(t, Save(explicit, TermMap{"Momo": "桃"}))
		tm, path, err := Resolve(input, explicit, "", "")
		require.NoError(t, err)
		assert.Equal(t, explicit, path)
		assert.Equal(t, TermMap{"Momo": "桃"}, tm)
	})

	t.Run("explicit path must exist", func(t *testing.T) {
		_, _, err := Resolve(input, filepath.Join(root, "missing.json"), "en", "zh")
		assert.ErrorContains(t, err, "load term map")
	})

	t.Run("broken ancestor glossary is an error", func(t *testing.T) {
		require.NoError(t, os.WriteFile(FilePath(dir, "en", "zh"), []byte("{"), 0o644))
		_, _, err := Resolve(input, "", "en", "zh")
		assert.Error(t, err)
	})
}
