package codec

import (
	"encoding/json"
	"reflect"

	"github.com/aabtop/respire-go/internal/respireerrors"
)

type futureEnvelope struct {
	Future              string `json:"__FUTURE__"`
	ValueFilepath       string `json:"value_filepath"`
	IncludeFilepath     string `json:"include_filepath"`
	SourceBuildFilepath string `json:"source_build_filepath"`
	SourceBuildFunction string `json:"source_build_function"`
}

type objectEnvelope struct {
	IsObject bool                   `json:"__is_object"`
	Tag      string                 `json:"tag"`
	Vars     map[string]interface{} `json:"vars"`
}

type functionEnvelope struct {
	IsFunction bool   `json:"__is_function"`
	Name       string `json:"name"`
}

// EncodeToJSON walks v depth-first and returns its canonical JSON
// representation (indent=2, per spec §4.B — this is also the form used
// for fingerprinting) along with every Future discovered along the way.
func EncodeToJSON(v interface{}, reg *SchemaRegistry) ([]byte, []Future, error) {
	var futures []Future
	converted, err := convertToEncodable(v, reg, &futures)
	if err != nil {
		return nil, nil, err
	}
	data, err := json.MarshalIndent(converted, "", "  ")
	if err != nil {
		return nil, nil, respireerrors.Newf(respireerrors.RejectedUnserializable, "marshaling encoded value: %v", err)
	}
	return data, futures, nil
}

func convertToEncodable(v interface{}, reg *SchemaRegistry, futures *[]Future) (interface{}, error) {
	switch val := v.(type) {
	case nil, bool, string, float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, json.Number:
		return val, nil
	case Future:
		*futures = append(*futures, val)
		return futureEnvelope{
			Future:              "",
			ValueFilepath:       val.ValueFilepath,
			IncludeFilepath:     val.IncludeFilepath,
			SourceBuildFilepath: val.SourceBuildFilepath,
			SourceBuildFunction: val.SourceBuildFunction,
		}, nil
	case Record:
		if _, ok := reg.recordFactory(val.Tag()); !ok {
			return nil, respireerrors.Newf(respireerrors.RejectedUnserializable,
				"record with tag %q is not registered in this host's schema registry", val.Tag())
		}
		vars := make(map[string]interface{}, len(val.Vars()))
		for k, mv := range val.Vars() {
			cv, err := convertToEncodable(mv, reg, futures)
			if err != nil {
				return nil, err
			}
			vars[k] = cv
		}
		return objectEnvelope{IsObject: true, Tag: val.Tag(), Vars: vars}, nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, mv := range val {
			cv, err := convertToEncodable(mv, reg, futures)
			if err != nil {
				return nil, err
			}
			out[k] = cv
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, ev := range val {
			cv, err := convertToEncodable(ev, reg, futures)
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil
	case FunctionRef:
		if !reg.HasFunction(val.Name) {
			return nil, respireerrors.Newf(respireerrors.RejectedUnserializable,
				"function %q is not registered in this host's schema registry", val.Name)
		}
		return functionEnvelope{IsFunction: true, Name: val.Name}, nil
	}

	// Fall back to reflection for concrete slice/map types a build plugin
	// might hand us directly (e.g. []string, map[string]string) rather than
	// the generic interface{}-keyed forms above.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]interface{}, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			cv, err := convertToEncodable(rv.Index(i).Interface(), reg, futures)
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, respireerrors.Newf(respireerrors.RejectedUnserializable, "map with non-string key type %s", rv.Type().Key())
		}
		out := make(map[string]interface{}, rv.Len())
		for _, key := range rv.MapKeys() {
			cv, err := convertToEncodable(rv.MapIndex(key).Interface(), reg, futures)
			if err != nil {
				return nil, err
			}
			out[key.String()] = cv
		}
		return out, nil
	}

	return nil, respireerrors.Newf(respireerrors.RejectedUnserializable,
		"value of type %T is neither a basic type, a Future, a registered Record, nor a registered function reference", v)
}

// FunctionRef names a registered function by the string key it was
// registered under, for passing callables by reference across a
// subrespire boundary.
type FunctionRef struct {
	Name string
}
