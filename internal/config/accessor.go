package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// GetByPath returns the value at a dotted JSON path such as
// "providers.openai.defaultModel". Sections come back as structs or maps.
func GetByPath(cfg *Config, path string) (any, error) {
	v, err := lookup(reflect.ValueOf(cfg).Elem(), splitPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v.Interface(), nil
}

// SetByPath parses raw according to the type of the field at path and stores it.
// Unknown keys are rejected; a new provider name creates that provider.
// List fields take comma-separated values.
func SetByPath(cfg *Config, path, raw string) error {
	parts := splitPath(path)
	if len(parts) == 0 {
		return fmt.Errorf("empty path")
	}
	if err := assignPath(reflect.ValueOf(cfg).Elem(), parts, raw); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func splitPath(path string) []string {
	path = strings.Trim(strings.TrimSpace(path), ".")
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// fieldByTag finds the struct field whose json name is key.
func fieldByTag(v reflect.Value, key string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name == key {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func lookup(v reflect.Value, parts []string) (reflect.Value, error) {
	for _, key := range parts {
		switch v.Kind() {
		case reflect.Struct:
			f, ok := fieldByTag(v, key)
			if !ok {
				return reflect.Value{}, fmt.Errorf("unknown key %q", key)
			}
			v = f
		case reflect.Map:
			e := v.MapIndex(reflect.ValueOf(key))
			if !e.IsValid() {
				return reflect.Value{}, fmt.Errorf("key not found: %q", key)
			}
			v = e
		case reflect.Slice:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= v.Len() {
				return reflect.Value{}, fmt.Errorf("invalid index %q", key)
			}
			v = v.Index(idx)
		default:
			return reflect.Value{}, fmt.Errorf("cannot traverse %s at %q", v.Kind(), key)
		}
	}
	return v, nil
}

func assignPath(v reflect.Value, parts []string, raw string) error {
	if len(parts) == 0 {
		return assign(v, raw)
	}
	key := parts[0]
	switch v.Kind() {
	case reflect.Struct:
		f, ok := fieldByTag(v, key)
		if !ok {
			return fmt.Errorf("unknown key %q", key)
		}
		return assignPath(f, parts[1:], raw)
	case reflect.Map:
		// Map elements are not addressable: edit a copy and store it back.
		if v.IsNil() {
			v.Set(reflect.MakeMap(v.Type()))
		}
		k := reflect.ValueOf(key)
		elem := reflect.New(v.Type().Elem()).Elem()
		if cur := v.MapIndex(k); cur.IsValid() {
			elem.Set(cur)
		}
		if err := assignPath(elem, parts[1:], raw); err != nil {
			return err
		}
		v.SetMapIndex(k, elem)
		return nil
	default:
		return fmt.Errorf("cannot traverse %s at %q", v.Kind(), key)
	}
}

func assign(v reflect.Value, raw string) error {
	raw = strings.TrimSpace(raw)
	switch v.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("want true or false, got %q", raw)
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v.OverflowInt(n) {
			return fmt.Errorf("want an integer, got %q", raw)
		}
		v.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("want a number, got %q", raw)
		}
		v.SetFloat(f)
	case reflect.Slice:
		if v.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported list type %s", v.Type())
		}
		items := []string{}
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				items = append(items, s)
			}
		}
		v.Set(reflect.ValueOf(items))
	case reflect.Struct, reflect.Map:
		return fmt.Errorf("is a section; set one of its keys")
	default:
		return fmt.Errorf("unsupported type %s", v.Type())
	}
	return nil
}

// Sanitize returns a copy of the config safe to print: provider keys and any
// credentials embedded in provider URLs are masked. cfg is not modified.
func Sanitize(cfg *Config) *Config {
	masked := *cfg
	masked.Providers = make(map[string]ProviderConfig, len(cfg.Providers))
	for name, prov := range cfg.Providers {
		if prov.APIKey != "" {
			prov.APIKey = maskString(prov.APIKey)
		}
		prov.APIBase = maskURL(prov.APIBase)
		masked.Providers[name] = prov
	}
	masked.Server.AllowedOrigins = append([]string(nil), cfg.Server.AllowedOrigins...)
	masked.General.FailoverChain = append([]string(nil), cfg.General.FailoverChain...)
	return &masked
}

// maskString shows first 4 and last 4 chars, masks the rest.
func maskString(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

// maskURL hides a password in the userinfo and key-like query parameters.
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || raw == "" {
		return raw
	}
	changed := false
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "***")
			changed = true
		}
	}
	q := u.Query()
	for k := range q {
		switch strings.ToLower(k) {
		case "key", "api_key", "apikey", "token", "access_token":
			q.Set(k, "***")
			changed = true
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// ListPaths returns every leaf path with its current value, for `config list`.
func ListPaths(cfg *Config) map[string]any {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	result := make(map[string]any)
	flattenMap("", m, result)
	return result
}

func flattenMap(prefix string, m map[string]any, result map[string]any) {
	for k, v := range m {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flattenMap(path, val, result)
		default:
			result[path] = val
		}
	}
}
