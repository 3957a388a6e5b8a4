package codec_test

import (
	"fmt"
	"testing"

	"github.com/aabtop/respire-go/internal/codec"
	"github.com/aabtop/respire-go/internal/respireerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	X, Y int
}

func (p point) Tag() string { return "point" }
func (p point) Vars() map[string]interface{} {
	return map[string]interface{}{"x": float64(p.X), "y": float64(p.Y)}
}

func newTestRegistry() *codec.SchemaRegistry {
	reg := codec.NewSchemaRegistry()
	reg.RegisterRecord("point", func(vars map[string]interface{}) (codec.Record, error) {
		x, _ := vars["x"].(float64)
		y, _ := vars["y"].(float64)
		return point{X: int(x), Y: int(y)}, nil
	})
	reg.RegisterFunction("double", func(x int) int { return x * 2 })
	return reg
}

func TestEncodeDecodeRoundTripBasic(t *testing.T) {
	reg := newTestRegistry()
	v := map[string]interface{}{"a": 1.0, "b": []interface{}{"x", "y"}, "c": nil}
	data, futures, err := codec.EncodeToJSON(v, reg)
	require.NoError(t, err)
	assert.Empty(t, futures)

	decoded, err := codec.DecodeFromJSON(data, reg)
	require.NoError(t, err)
	assert.Equal(t, v, decoded)
}

func TestEncodeRecordDecodeRecord(t *testing.T) {
	reg := newTestRegistry()
	data, _, err := codec.EncodeToJSON(point{X: 1, Y: 2}, reg)
	require.NoError(t, err)

	decoded, err := codec.DecodeFromJSON(data, reg)
	require.NoError(t, err)
	assert.Equal(t, point{X: 1, Y: 2}, decoded)
}

func TestEncodeUnregisteredRecordRejected(t *testing.T) {
	reg := codec.NewSchemaRegistry()
	_, _, err := codec.EncodeToJSON(point{X: 1, Y: 2}, reg)
	require.Error(t, err)
	assert.True(t, respireerrors.HasErrorCode(err, respireerrors.RejectedUnserializable))
}

func TestEncodeFunctionRefRoundTrip(t *testing.T) {
	reg := newTestRegistry()
	data, _, err := codec.EncodeToJSON(codec.FunctionRef{Name: "double"}, reg)
	require.NoError(t, err)

	decoded, err := codec.DecodeFromJSON(data, reg)
	require.NoError(t, err)
	fn, ok := decoded.(func(int) int)
	require.True(t, ok)
	assert.Equal(t, 4, fn(2))
}

func TestDecodePlainRejectsFuture(t *testing.T) {
	reg := newTestRegistry()
	f := codec.Future{ValueFilepath: "/tmp/v.json", SourceBuildFilepath: "/s.so", SourceBuildFunction: "Fn"}
	data, futures, err := codec.EncodeToJSON(f, reg)
	require.NoError(t, err)
	assert.Len(t, futures, 1)

	_, err = codec.DecodeFromJSON(data, reg)
	require.Error(t, err)
	assert.True(t, respireerrors.HasErrorCode(err, respireerrors.UnexpectedFuture))
}

func TestDecodeWithFlatteningResolvesFuture(t *testing.T) {
	reg := newTestRegistry()
	f := codec.Future{ValueFilepath: "/tmp/v.json", SourceBuildFilepath: "/s.so", SourceBuildFunction: "Fn"}
	data, _, err := codec.EncodeToJSON(map[string]interface{}{"val": f}, reg)
	require.NoError(t, err)

	reader := func(path string) ([]byte, error) {
		assert.Equal(t, "/tmp/v.json", path)
		return []byte(`"resolved"`), nil
	}

	decoded, err := codec.DecodeFromJSONWithFlattening(data, reg, reader, true)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"val": "resolved"}, decoded)
}

func TestDecodeWithFlatteningDetectsCycle(t *testing.T) {
	reg := newTestRegistry()
	f := codec.Future{ValueFilepath: "/tmp/a.json", SourceBuildFilepath: "/s.so", SourceBuildFunction: "Fn"}
	data, _, err := codec.EncodeToJSON(f, reg)
	require.NoError(t, err)

	// The value file for the future contains another reference to the same
	// future, forming a direct self-cycle.
	reader := func(path string) ([]byte, error) {
		return data, nil
	}

	_, err = codec.DecodeFromJSONWithFlattening(data, reg, reader, true)
	require.Error(t, err)
	assert.True(t, respireerrors.HasErrorCode(err, respireerrors.CyclicDependency))
}

func TestDecodeWithFlatteningNoExpandKeepsEnvelope(t *testing.T) {
	reg := newTestRegistry()
	data, _, err := codec.EncodeToJSON(point{X: 1, Y: 2}, reg)
	require.NoError(t, err)

	decoded, err := codec.DecodeFromJSONWithFlattening(data, reg, nil, false)
	require.NoError(t, err)
	m, ok := decoded.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, m["__is_object"])
	assert.Equal(t, "point", m["tag"])
}

func ExampleEncodeToJSON() {
	reg := codec.NewSchemaRegistry()
	data, _, _ := codec.EncodeToJSON([]interface{}{"a", 1.0}, reg)
	fmt.Println(string(data))
	// Output:
	// [
	//   "a",
	//   1
	// ]
}
