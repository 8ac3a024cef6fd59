package entities

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// Stored records keep keys this version does not model so that a load-save
// cycle writes them back untouched.

var fieldCache sync.Map // reflect.Type -> map[string]struct{}

// jsonFields returns the JSON keys declared by a struct's tags
func jsonFields(t reflect.Type) map[string]struct{} {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.(map[string]struct{})
	}

	fields := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		name, _, _ := strings.Cut(tag, ",")
		if name == "" || name == "-" {
			continue
		}
		fields[name] = struct{}{}
	}

	fieldCache.Store(t, fields)
	return fields
}

// splitRecord decodes data into a key map and returns it with the keys not
// declared on the struct type of v. Keys in consumed are treated as declared.
func splitRecord(data []byte, v any, consumed ...string) (map[string]json.RawMessage, map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, nil, err
	}

	known := jsonFields(reflect.TypeOf(v).Elem())
	var extra map[string]json.RawMessage
	for key, value := range all {
		if _, ok := known[key]; ok {
			continue
		}
		if contains(consumed, key) {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[key] = value
	}
	return all, extra, nil
}

// appendExtra splices extra keys onto an encoded JSON object in sorted order
func appendExtra(base []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return base, nil
	}

	keys := make([]string, 0, len(extra))
	for key := range extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	trimmed := bytes.TrimRight(base, " \n")
	buf.Write(trimmed[:len(trimmed)-1])
	empty := bytes.Equal(bytes.TrimSpace(trimmed), []byte("{}"))
	for i, key := range keys {
		if !empty || i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(extra[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
