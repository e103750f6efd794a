package main

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/KarpelesLab/pjson"
	"github.com/KarpelesLab/typutil"
	"github.com/KarpelesLab/webutil"
)

// buildParams merges the --data, --json and --param flags into form values,
// in that order.
//
// data is a query string and may use PHP-style brackets (a[b]=1). jsonData
// must be a JSON object. Nested objects and arrays from either source are
// flattened back into bracketed keys.
func buildParams(data, jsonData string, pairs []string) (url.Values, error) {
	values := make(url.Values)

	if data != "" {
		if err := flattenInto(values, "", webutil.ParsePhpQuery(data)); err != nil {
			return nil, fmt.Errorf("--data: %w", err)
		}
	}

	if jsonData != "" {
		var obj map[string]any
		if err := pjson.Unmarshal([]byte(jsonData), &obj); err != nil {
			return nil, fmt.Errorf("--json: %w", err)
		}
		if err := flattenInto(values, "", obj); err != nil {
			return nil, fmt.Errorf("--json: %w", err)
		}
	}

	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("--param %q: expected key=value", pair)
		}
		values.Add(k, v)
	}

	return values, nil
}

// flattenInto adds v to values under key, expanding maps to key[sub] and
// slices to key[].
func flattenInto(values url.Values, key string, v any) error {
	switch t := v.(type) {
	case map[string]any:
		names := make([]string, 0, len(t))
		for k := range t {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			sub := k
			if key != "" {
				sub = key + "[" + k + "]"
			}
			if err := flattenInto(values, sub, t[k]); err != nil {
				return err
			}
		}
		return nil

	case []any:
		for _, item := range t {
			if err := flattenInto(values, key+"[]", item); err != nil {
				return err
			}
		}
		return nil

	case nil:
		values.Add(key, "")
		return nil

	case string:
		values.Add(key, t)
		return nil
	}

	s, err := typutil.As[string](v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	values.Add(key, s)
	return nil
}
