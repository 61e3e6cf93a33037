// Package common provides configuration, logging and process utilities.
//
// Config values may reference environment variables with the {NAME} syntax.
// A reference must be the whole value so prompts and labels containing braces
// are never rewritten.
//
// Example:
//
//	api_token = "{NOTION_API_TOKEN}"
//	Env:    NOTION_API_TOKEN=secret_abc
//	Result: api_token = "secret_abc"
//
// References to unset variables resolve to "" so that validation reports the
// value as missing instead of sending the literal reference upstream.
package common

import (
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"
)

// envRefPattern matches a value that is exactly one {NAME} reference
var envRefPattern = regexp.MustCompile(`^\{([A-Za-z_][A-Za-z0-9_]*)\}$`)

// EnvironMap returns the process environment as a map
func EnvironMap() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if idx := strings.IndexByte(kv, '='); idx > 0 {
			env[kv[:idx]] = kv[idx+1:]
		}
	}
	return env
}

// ExpandReference resolves a single {NAME} value against env.
// Values that are not a reference are returned unchanged.
func ExpandReference(value string, env map[string]string) string {
	match := envRefPattern.FindStringSubmatch(strings.TrimSpace(value))
	if match == nil {
		return value
	}
	return env[match[1]]
}

// ExpandEnvReferences walks a struct pointer and expands every string field
// and string slice element in place. Nested structs are walked recursively.
func ExpandEnvReferences(target interface{}, env map[string]string) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer to struct, got %T", target)
	}

	elem := v.Elem()
	if elem.Kind() != reflect.Struct {
		return fmt.Errorf("target must point to a struct, got %s", elem.Kind())
	}

	expandStruct(elem, env)
	return nil
}

func expandStruct(v reflect.Value, env map[string]string) {
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(ExpandReference(field.String(), env))
		case reflect.Struct:
			expandStruct(field, env)
		case reflect.Slice:
			if field.Type().Elem().Kind() != reflect.String {
				continue
			}
			for j := 0; j < field.Len(); j++ {
				item := field.Index(j)
				item.SetString(ExpandReference(item.String(), env))
			}
		}
	}
}
