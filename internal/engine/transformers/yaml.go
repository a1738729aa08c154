package transformers

import (
	"context"
	"encoding/json"
	"fmt"

	"markprep/internal/engine/transform"

	"gopkg.in/yaml.v3"
)

// KeyIndent sets the JSON indentation of the yaml transformer (string).
const KeyIndent = "indent"

// yamlData turns a YAML data island into JSON.
type yamlData struct{}

func (y *yamlData) Transform(ctx context.Context, in transform.Input) (transform.Result, error) {
	if err := ctx.Err(); err != nil {
		return transform.Result{}, err
	}
	var doc any
	if err := yaml.Unmarshal([]byte(in.Content), &doc); err != nil {
		return transform.Result{}, err
	}

	value := jsonCompatible(doc)

	var (
		out []byte
		err error
	)
	if indent := in.Config.Get(KeyIndent, ""); indent != "" {
		out, err = json.MarshalIndent(value, "", indent)
	} else {
		out, err = json.Marshal(value)
	}
	if err != nil {
		return transform.Result{}, err
	}
	return transform.Result{Code: string(out)}, nil
}

// jsonCompatible rewrites map[any]any nodes, which encoding/json rejects.
func jsonCompatible(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = jsonCompatible(item)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = jsonCompatible(item)
		}
		return out
	case []any:
		for i, item := range t {
			t[i] = jsonCompatible(item)
		}
		return t
	}
	return v
}
