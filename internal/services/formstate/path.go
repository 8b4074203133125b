package formstate

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// leafFunc produces the replacement for the value found at the end of a path.
type leafFunc func(cur reflect.Value, t reflect.Type) (reflect.Value, error)

var fieldIndexCache sync.Map // reflect.Type -> map[string]int

func splitPath(path string) ([]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	segs := strings.Split(path, ".")
	for _, s := range segs {
		if s == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return segs, nil
}

// write returns a copy of cur (of type t) with the value at segs replaced.
// Every container on the path is shallow-copied; everything off the path
// keeps its identity. Nil pointers, slices and maps on the path are
// synthesized.
func write(cur reflect.Value, t reflect.Type, segs []string, leaf leafFunc) (reflect.Value, error) {
	if len(segs) == 0 {
		return leaf(cur, t)
	}

	switch t.Kind() {
	case reflect.Ptr:
		var elem reflect.Value
		if cur.IsValid() && !cur.IsNil() {
			elem = cur.Elem()
		} else {
			elem = reflect.Zero(t.Elem())
		}
		next, err := write(elem, t.Elem(), segs, leaf)
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(next)
		return p, nil

	case reflect.Struct:
		idx, ok := fieldIndex(t)[segs[0]]
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: unknown field %q on %s", ErrInvalidPath, segs[0], t.Name())
		}
		cp := reflect.New(t).Elem()
		if cur.IsValid() {
			cp.Set(cur)
		}
		f := cp.Field(idx)
		next, err := write(f, f.Type(), segs[1:], leaf)
		if err != nil {
			return reflect.Value{}, err
		}
		f.Set(next)
		return cp, nil

	case reflect.Slice:
		i, err := strconv.Atoi(segs[0])
		if err != nil || i < 0 {
			return reflect.Value{}, fmt.Errorf("%w: %q is not a slice index", ErrInvalidPath, segs[0])
		}
		n := 0
		if cur.IsValid() && !cur.IsNil() {
			n = cur.Len()
		}
		// Writing one past the end appends.
		if i > n {
			return reflect.Value{}, fmt.Errorf("%w: index %d out of range [0,%d]", ErrInvalidPath, i, n)
		}
		size := n
		if i == n {
			size = n + 1
		}
		cp := reflect.MakeSlice(t, size, size)
		if n > 0 {
			reflect.Copy(cp, cur)
		}
		next, err := write(cp.Index(i), t.Elem(), segs[1:], leaf)
		if err != nil {
			return reflect.Value{}, err
		}
		cp.Index(i).Set(next)
		return cp, nil

	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return reflect.Value{}, fmt.Errorf("%w: unsupported map key %s", ErrInvalidPath, t.Key())
		}
		cp := reflect.MakeMap(t)
		var existing reflect.Value
		if cur.IsValid() && !cur.IsNil() {
			iter := cur.MapRange()
			for iter.Next() {
				cp.SetMapIndex(iter.Key(), iter.Value())
			}
			existing = cur.MapIndex(reflect.ValueOf(segs[0]).Convert(t.Key()))
		}
		if !existing.IsValid() {
			existing = reflect.Zero(t.Elem())
		}
		next, err := write(existing, t.Elem(), segs[1:], leaf)
		if err != nil {
			return reflect.Value{}, err
		}
		cp.SetMapIndex(reflect.ValueOf(segs[0]).Convert(t.Key()), next)
		return cp, nil
	}

	return reflect.Value{}, fmt.Errorf("%w: cannot descend into %s at %q", ErrInvalidPath, t, segs[0])
}

// setLeaf replaces the leaf with value decoded into the leaf type.
func setLeaf(value any) leafFunc {
	return func(_ reflect.Value, t reflect.Type) (reflect.Value, error) {
		return decodeInto(value, t)
	}
}

// mergeLeaf shallow-merges the given keys into the struct (or pointer to
// struct) found at the path.
func mergeLeaf(partial map[string]any) leafFunc {
	return func(cur reflect.Value, t reflect.Type) (reflect.Value, error) {
		if t.Kind() == reflect.Ptr {
			var elem reflect.Value
			if cur.IsValid() && !cur.IsNil() {
				elem = cur.Elem()
			}
			merged, err := mergeLeaf(partial)(elem, t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			p := reflect.New(t.Elem())
			p.Elem().Set(merged)
			return p, nil
		}
		if t.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("%w: section must be an object, got %s", ErrInvalidPath, t)
		}
		cp := reflect.New(t).Elem()
		if cur.IsValid() {
			cp.Set(cur)
		}
		fields := fieldIndex(t)
		for key, raw := range partial {
			idx, ok := fields[key]
			if !ok {
				return reflect.Value{}, fmt.Errorf("%w: unknown field %q on %s", ErrInvalidPath, key, t.Name())
			}
			f := cp.Field(idx)
			v, err := decodeInto(raw, f.Type())
			if err != nil {
				return reflect.Value{}, err
			}
			f.Set(v)
		}
		return cp, nil
	}
}

// decodeInto converts value to t: direct assignment when the types line up,
// JSON round-trip otherwise (float64 to int, map to struct, string to decimal).
func decodeInto(value any, t reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	out := reflect.New(t)
	if err := json.Unmarshal(data, out.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("%w: cannot use %s as %s: %v", ErrInvalidValue, v.Type(), t, err)
	}
	return out.Elem(), nil
}

// fieldIndex maps json names of exported fields to their struct index.
func fieldIndex(t reflect.Type) map[string]int {
	if m, ok := fieldIndexCache.Load(t); ok {
		return m.(map[string]int)
	}
	m := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag := f.Tag.Get("json"); tag != "" {
			name = strings.Split(tag, ",")[0]
			if name == "-" {
				continue
			}
			if name == "" {
				name = f.Name
			}
		}
		m[name] = i
	}
	fieldIndexCache.Store(t, m)
	return m
}
