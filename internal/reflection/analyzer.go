package reflection

import (
	"context"
	"reflect"
	"strings"
	"sync"
)

// InjectTag is the struct tag that marks a field for injection when a
// struct pointer type is allocated without a constructor.
const InjectTag = "inject"

var (
	errType     = reflect.TypeOf((*error)(nil)).Elem()
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
)

// Field describes a struct field tagged for injection.
//
//	type Model struct {
//	    Repo  *Repo      `inject:""`
//	    Cache Cache      `inject:"cache"`
//	    Clock Clock      `inject:",strict"`
//	}
type Field struct {
	Index int
	Name  string
	Type  reflect.Type

	// Key is the registered name to resolve by. Empty means resolve by Type.
	Key string

	// Strict fields fail the construction when nothing is registered.
	Strict bool
}

// Analyzer caches field analysis per struct type.
type Analyzer struct {
	mu    sync.RWMutex
	cache map[reflect.Type][]Field
}

// New creates a new Analyzer.
func New() *Analyzer {
	return &Analyzer{
		cache: make(map[reflect.Type][]Field),
	}
}

// Fields returns the injectable fields of a struct type, or of the struct a
// pointer type points to. Unexported fields are skipped because they cannot
// be set through reflection.
func (a *Analyzer) Fields(t reflect.Type) []Field {
	if t == nil {
		return nil
	}

	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return nil
	}

	a.mu.RLock()
	if cached, ok := a.cache[t]; ok {
		a.mu.RUnlock()
		return cached
	}
	a.mu.RUnlock()

	fields := make([]Field, 0)
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		tag, ok := sf.Tag.Lookup(InjectTag)
		if !ok || tag == "-" {
			continue
		}

		key, strict := parseTag(tag)
		fields = append(fields, Field{
			Index:  i,
			Name:   sf.Name,
			Type:   sf.Type,
			Key:    key,
			Strict: strict,
		})
	}

	a.mu.Lock()
	a.cache[t] = fields
	a.mu.Unlock()

	return fields
}

// Clear drops all cached analysis.
func (a *Analyzer) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cache = make(map[reflect.Type][]Field)
}

func parseTag(tag string) (key string, strict bool) {
	parts := strings.Split(tag, ",")
	key = strings.TrimSpace(parts[0])
	for _, opt := range parts[1:] {
		if strings.TrimSpace(opt) == "strict" {
			strict = true
		}
	}
	return key, strict
}

// IsStructPointer reports whether t is a pointer to a struct, the only shape
// that can be allocated without a constructor.
func IsStructPointer(t reflect.Type) bool {
	return t != nil && t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct
}

// TypeName returns the textual identity of t: its string form without
// leading pointer markers, so *app.Model and app.Model share "app.Model".
func TypeName(t reflect.Type) string {
	if t == nil {
		return ""
	}

	for t.Kind() == reflect.Pointer && t.Name() == "" {
		t = t.Elem()
	}

	return t.String()
}

func implementsError(t reflect.Type) bool {
	return t != nil && t.Implements(errType)
}
