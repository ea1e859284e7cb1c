package client

import (
	"fmt"
	"reflect"
)

// Hard payload caps imposed by the marketplace. Violations fail locally,
// before any network call.
const (
	MaxInputFields  = 4000
	MaxBulkEntities = 50
	MaxPageSize     = 100
)

// Request addresses one marketplace call as a (resource, action) pair.
// Data is the request payload; for bulk saves it is a slice of entities.
type Request struct {
	Resource string
	Action   string
	Data     interface{}

	// Pagination parameters, 1-based. Zero values mean "not paginated".
	CurrentPage  int
	ItemsPerPage int
}

func (r Request) endpoint() string {
	return fmt.Sprintf("/%s/%s", r.Resource, r.Action)
}

// body assembles the wire payload including pagination parameters.
func (r Request) body() map[string]interface{} {
	body := make(map[string]interface{})
	if r.Data != nil {
		body["data"] = r.Data
	}
	if r.CurrentPage > 0 {
		body["currentPage"] = r.CurrentPage
		body["itemsPerPage"] = r.ItemsPerPage
	}
	return body
}

func (r Request) validate() error {
	if r.Resource == "" || r.Action == "" {
		return &ValidationError{Reason: "resource and action are required"}
	}
	if r.ItemsPerPage > MaxPageSize {
		return &ValidationError{Reason: fmt.Sprintf("page size %d exceeds the cap of %d", r.ItemsPerPage, MaxPageSize)}
	}
	if r.Action == "save" {
		if n := entityCount(r.Data); n > MaxBulkEntities {
			return &ValidationError{Reason: fmt.Sprintf("bulk save of %d entities exceeds the cap of %d", n, MaxBulkEntities)}
		}
	}
	if n := countScalarFields(r.Data); n > MaxInputFields {
		return &ValidationError{Reason: fmt.Sprintf("payload carries %d scalar fields, cap is %d", n, MaxInputFields)}
	}
	return nil
}

func entityCount(data interface{}) int {
	if data == nil {
		return 0
	}
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		return v.Len()
	}
	return 1
}

// countScalarFields walks the payload and counts every scalar leaf value,
// the unit the marketplace's input cap is expressed in.
func countScalarFields(data interface{}) int {
	if data == nil {
		return 0
	}
	return countValue(reflect.ValueOf(data))
}

func countValue(v reflect.Value) int {
	switch v.Kind() {
	case reflect.Invalid:
		return 0
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return 0
		}
		return countValue(v.Elem())
	case reflect.Slice, reflect.Array:
		count := 0
		for i := 0; i < v.Len(); i++ {
			count += countValue(v.Index(i))
		}
		return count
	case reflect.Map:
		count := 0
		for _, key := range v.MapKeys() {
			count += countValue(v.MapIndex(key))
		}
		return count
	case reflect.Struct:
		count := 0
		for i := 0; i < v.NumField(); i++ {
			count += countValue(v.Field(i))
		}
		return count
	default:
		return 1
	}
}
