package codec

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/johnny-stegall/dynamo-go/internal/dynerr"
)

type avroField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type avroSchema struct {
	Type   string      `json:"type"`
	Name   string      `json:"name"`
	Fields []avroField `json:"fields"`
}

// InferAvroSchema walks T's exported fields in declaration order and
// builds an Avro record schema, all fields typed "string" (this package's
// record types are deliberately all-string, see internal/model). If T is
// not a struct, it falls back to the "generic record" path spec.md §4.2
// describes: walking T's exported zero-argument accessor methods that
// return a string, named accessors standing in for fields.
func InferAvroSchema[T any](name string) ([]byte, error) {
	var zero T
	typ := reflect.TypeOf(zero)

	schema := avroSchema{Type: "record", Name: sanitizeAvroName(name)}

	if typ != nil && typ.Kind() == reflect.Struct {
		for i := 0; i < typ.NumField(); i++ {
			f := typ.Field(i)
			if f.PkgPath != "" {
				continue
			}
			schema.Fields = append(schema.Fields, avroField{Name: f.Name, Type: avroFieldType(f.Type)})
		}
	} else if typ != nil {
		schema.Fields = accessorFields(typ)
	}

	if len(schema.Fields) == 0 {
		return nil, dynerr.Newf(dynerr.KindEncoding, "avro codec: could not infer any fields for type %v", typ)
	}

	return json.Marshal(schema)
}

// accessorFields builds schema fields from T's exported, zero-argument,
// single-string-return methods — the "generic record path" spec.md §4.2
// falls back to when plain field reflection doesn't apply.
func accessorFields(typ reflect.Type) []avroField {
	var fields []avroField
	for i := 0; i < typ.NumMethod(); i++ {
		m := typ.Method(i)
		if m.Type.NumIn() != 1 || m.Type.NumOut() != 1 {
			continue
		}
		if m.Type.Out(0).Kind() != reflect.String {
			continue
		}
		fields = append(fields, avroField{Name: m.Name, Type: "string"})
	}
	return fields
}

func avroFieldType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "long"
	case reflect.Float32, reflect.Float64:
		return "double"
	case reflect.Bool:
		return "boolean"
	default:
		return "string"
	}
}

func sanitizeAvroName(name string) string {
	if name == "" {
		return "Record"
	}
	return name
}

func nativeFromRecord(record any) map[string]interface{} {
	out := make(map[string]interface{})
	v := reflect.ValueOf(record)
	t := v.Type()
	if t.Kind() != reflect.Struct {
		return out
	}
	for i := 0; i < v.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}
		out[f.Name] = fmt.Sprintf("%v", v.Field(i).Interface())
	}
	return out
}

func recordFromNative[T any](native map[string]interface{}) T {
	var out T
	v := reflect.ValueOf(&out).Elem()
	t := v.Type()
	if t.Kind() != reflect.Struct {
		return out
	}
	for i := 0; i < v.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}
		if raw, ok := native[f.Name]; ok && v.Field(i).Kind() == reflect.String {
			v.Field(i).SetString(fmt.Sprintf("%v", raw))
		}
	}
	return out
}
