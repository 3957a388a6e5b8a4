package subrespire_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aabtop/respire-go/internal/codec"
	"github.com/aabtop/respire-go/internal/subrespire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBuiltinResolveAndForward(t *testing.T) {
	outDir := t.TempDir()
	reg := codec.NewSchemaRegistry()

	params := map[string]interface{}{
		"target_script":   "/scripts/build.so",
		"target_function": "CatFiles",
		"target_params":   map[string]interface{}{"path": "P"},
	}
	paramsJSON, futures, err := codec.EncodeToJSON(params, reg)
	require.NoError(t, err)
	require.Empty(t, futures)

	paramsFile := filepath.Join(outDir, "params.json")
	require.NoError(t, os.WriteFile(paramsFile, paramsJSON, 0o644))

	result, err := subrespire.Run(subrespire.RunOptions{
		ScriptPath:     subrespire.BuiltinScript,
		FunctionName:   subrespire.ResolveAndForwardFunction,
		ParamsFile:     paramsFile,
		OutDir:         outDir,
		SelfBinaryPath: "/bin/respire-subrespire",
		Registry:       reg,
	})
	require.NoError(t, err)

	_, err = os.Stat(result.Paths.Registry)
	require.NoError(t, err)
	_, err = os.Stat(result.Paths.Output)
	require.NoError(t, err)
	_, err = os.Stat(result.Paths.Timestamp)
	require.NoError(t, err)

	outputBytes, err := os.ReadFile(result.Paths.Output)
	require.NoError(t, err)
	var decoded interface{}
	require.NoError(t, json.Unmarshal(outputBytes, &decoded))
	m, ok := decoded.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "CatFiles", m["source_build_function"])
}

func TestRunRejectsUnknownBuiltin(t *testing.T) {
	outDir := t.TempDir()
	reg := codec.NewSchemaRegistry()
	paramsFile := filepath.Join(outDir, "params.json")
	require.NoError(t, os.WriteFile(paramsFile, []byte(`{}`), 0o644))

	_, err := subrespire.Run(subrespire.RunOptions{
		ScriptPath:     subrespire.BuiltinScript,
		FunctionName:   "NotReal",
		ParamsFile:     paramsFile,
		OutDir:         outDir,
		SelfBinaryPath: "/bin/respire-subrespire",
		Registry:       reg,
	})
	require.Error(t, err)
}
