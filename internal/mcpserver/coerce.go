// Package mcpserver registers the search_code, analyze_impact, and
// get_symbol_context tools with an MCP server and dispatches them against
// one App's Searcher, Impact Analyzer, and Context Viewer.
package mcpserver

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// argumentGetter is satisfied by mcp.CallToolRequest.
type argumentGetter interface {
	GetArguments() map[string]interface{}
}

// bindArguments binds MCP tool-call arguments onto target with type
// coercion, since some MCP clients send every parameter as a string
// (including JSON-encoded arrays).
func bindArguments[T any](request argumentGetter, target *T) error {
	rawArgs := request.GetArguments()

	jsonStringHook := func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		raw, _ := data.(string)
		if raw == "" {
			return data, nil
		}

		trimmed := strings.TrimSpace(raw)
		if t.Kind() == reflect.Slice || t.Kind() == reflect.Map || t.Kind() == reflect.Struct {
			if (strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) ||
				(strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) {
				if t.Kind() == reflect.Slice {
					slicePtr := reflect.New(t)
					if err := json.Unmarshal([]byte(raw), slicePtr.Interface()); err == nil {
						return slicePtr.Elem().Interface(), nil
					}
				} else {
					var result interface{}
					if err := json.Unmarshal([]byte(raw), &result); err == nil {
						return result, nil
					}
				}
			}
		}

		if t.Kind() == reflect.Bool && (trimmed == "true" || trimmed == "false") {
			var result bool
			if err := json.Unmarshal([]byte(raw), &result); err == nil {
				return result, nil
			}
		}

		if t.Kind() >= reflect.Int && t.Kind() <= reflect.Float64 {
			var result json.Number
			if err := json.Unmarshal([]byte(raw), &result); err == nil {
				return result, nil
			}
		}

		return data, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			jsonStringHook,
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		Result:  target,
		TagName: "json",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(rawArgs)
}
