package validator

import (
	"reflect"
	"strings"
)

// jsonName reports fields by their JSON name so errors match request bodies.
func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}
