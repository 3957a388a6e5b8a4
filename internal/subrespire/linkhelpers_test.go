package subrespire_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aabtop/respire-go/internal/subrespire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyWritesIdenticalBytes(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.json")
	dst := filepath.Join(dir, "dst.json")
	require.NoError(t, os.WriteFile(src, []byte(`{"a":1}`), 0o644))

	require.NoError(t, subrespire.Copy(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))
}

func TestFlattenReplacesFutureWithValueFileContent(t *testing.T) {
	dir := t.TempDir()

	valueFile := filepath.Join(dir, "value.json")
	require.NoError(t, os.WriteFile(valueFile, []byte(`{"cat_path":"/out/cat.txt"}`), 0o644))

	src := filepath.Join(dir, "src.json")
	srcJSON, err := json.Marshal(map[string]interface{}{
		"__FUTURE__":            true,
		"value_filepath":        valueFile,
		"include_filepath":      "/gen/some.gen.reg",
		"source_build_filepath": "/scripts/build.so",
		"source_build_function": "CatFiles",
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(src, srcJSON, 0o644))

	dst := filepath.Join(dir, "dst.json")
	require.NoError(t, subrespire.Flatten(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(got, &decoded))
	assert.Equal(t, "/out/cat.txt", decoded["cat_path"])
}
