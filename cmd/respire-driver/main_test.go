package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"target=release", "count=3"})
	assert.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"target": "release", "count": "3"}, params)
}

func TestParseParamsRejectsMissingEquals(t *testing.T) {
	_, err := parseParams([]string{"not-a-pair"})
	assert.Error(t, err)
}

func TestExtractParamPairsIgnoresFlags(t *testing.T) {
	pairs := extractParamPairs([]string{"-o", "out", "script.go", "Build", "target=release", "-v"})
	assert.Equal(t, []string{"target=release"}, pairs)
}

func TestBinaryName(t *testing.T) {
	name := binaryName("respire-engine")
	assert.NotEmpty(t, name)
}
