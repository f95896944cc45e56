package kernel

import (
	"fmt"
	"reflect"
	"sort"

	apperrors "github.com/intercede-dev/intercede/internal/application/errors"
)

// Descriptor is the result of a describe operation: what the target
// knows about one property.
type Descriptor struct {
	Key      string `json:"key"`
	Exists   bool   `json:"exists"`
	Writable bool   `json:"writable"`
	TypeName string `json:"type_name,omitempty"`
	// Source is where the property lives: "entry" (map key),
	// "field" (struct field) or "method".
	Source string `json:"source,omitempty"`
}

// checkMediable validates that target is something the reflective
// default operations can act on.
func checkMediable(target any) error {
	if target == nil {
		return apperrors.NewConfigurationError("kernel", "target must not be nil", nil)
	}
	if _, ok := target.(map[string]any); ok {
		return nil
	}
	rt := reflect.TypeOf(target)
	if rt.Kind() == reflect.Pointer && rt.Elem().Kind() == reflect.Struct {
		return nil
	}
	return apperrors.NewConfigurationError(
		"kernel",
		fmt.Sprintf("unsupported target %T (supported: map[string]any, pointer to struct)", target),
		nil,
	)
}

// checkConstructor validates the WithConstructor option value.
func checkConstructor(fn any) error {
	if reflect.TypeOf(fn).Kind() != reflect.Func {
		return apperrors.NewConfigurationError(
			"kernel",
			fmt.Sprintf("constructor must be a func, got %T", fn),
			nil,
		)
	}
	return nil
}

// defaultRead performs an ordinary property read on the target. Missing
// properties read as nil rather than erroring, matching the untyped
// object model the kernel mediates.
func defaultRead(target any, key string) (any, error) {
	if m, ok := target.(map[string]any); ok {
		return m[key], nil
	}

	rv := reflect.ValueOf(target).Elem()
	if field, ok := rv.Type().FieldByName(key); ok && field.IsExported() {
		return rv.FieldByIndex(field.Index).Interface(), nil
	}
	if method := reflect.ValueOf(target).MethodByName(key); method.IsValid() {
		return method.Interface(), nil
	}
	return nil, nil
}

// defaultWrite performs an ordinary property write on the target.
func defaultWrite(target any, key string, value any) error {
	if m, ok := target.(map[string]any); ok {
		m[key] = value
		return nil
	}

	rv := reflect.ValueOf(target).Elem()
	field, ok := rv.Type().FieldByName(key)
	if !ok || !field.IsExported() {
		return apperrors.NewConfigurationError("target", fmt.Sprintf("no writable field %q on %T", key, target), nil)
	}
	slot := rv.FieldByIndex(field.Index)
	if value == nil {
		slot.Set(reflect.Zero(slot.Type()))
		return nil
	}
	vv := reflect.ValueOf(value)
	switch {
	case vv.Type().AssignableTo(slot.Type()):
		slot.Set(vv)
	case vv.Type().ConvertibleTo(slot.Type()):
		slot.Set(vv.Convert(slot.Type()))
	default:
		return apperrors.NewConfigurationError("target", fmt.Sprintf("cannot assign %T to field %q (%s)", value, key, slot.Type()), nil)
	}
	return nil
}

// defaultHas performs the ordinary existence check.
func defaultHas(target any, key string) (bool, error) {
	if m, ok := target.(map[string]any); ok {
		_, present := m[key]
		return present, nil
	}

	rv := reflect.ValueOf(target).Elem()
	if field, ok := rv.Type().FieldByName(key); ok && field.IsExported() {
		return true, nil
	}
	return reflect.ValueOf(target).MethodByName(key).IsValid(), nil
}

// defaultDelete performs the ordinary deletion. Struct fields are not
// removable, so deletion on a struct target reports false.
func defaultDelete(target any, key string) (bool, error) {
	if m, ok := target.(map[string]any); ok {
		delete(m, key)
		return true, nil
	}
	return false, nil
}

// defaultKeys performs the ordinary key enumeration. Map keys are
// sorted so enumeration is deterministic; struct fields come back in
// declaration order.
func defaultKeys(target any) ([]string, error) {
	if m, ok := target.(map[string]any); ok {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys, nil
	}

	rt := reflect.TypeOf(target).Elem()
	keys := make([]string, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		if field := rt.Field(i); field.IsExported() {
			keys = append(keys, field.Name)
		}
	}
	return keys, nil
}

// TargetRead performs the ordinary property read against target, with
// no handlers involved. Handlers that rewrite values on the way out
// use it to fetch the raw value first.
func TargetRead(target any, key string) (any, error) {
	return defaultRead(target, key)
}

// TargetWrite performs the ordinary property write against target,
// with no handlers involved.
func TargetWrite(target any, key string, value any) error {
	return defaultWrite(target, key, value)
}

// TargetHas performs the ordinary existence check against target, with
// no handlers involved.
func TargetHas(target any, key string) (bool, error) {
	return defaultHas(target, key)
}

// TargetDelete performs the ordinary key removal against target, with
// no handlers involved.
func TargetDelete(target any, key string) (bool, error) {
	return defaultDelete(target, key)
}

// TargetKeys lists the keys the ordinary enumeration would report for
// target, with no handlers involved. Handlers that replace enumeration
// wholesale use it as their starting set.
func TargetKeys(target any) ([]string, error) {
	return defaultKeys(target)
}

// defaultDescribe performs the ordinary descriptor lookup.
func defaultDescribe(target any, key string) (*Descriptor, error) {
	if m, ok := target.(map[string]any); ok {
		v, present := m[key]
		d := &Descriptor{Key: key, Exists: present, Writable: true, Source: "entry"}
		if present && v != nil {
			d.TypeName = reflect.TypeOf(v).String()
		}
		return d, nil
	}

	rv := reflect.ValueOf(target).Elem()
	if field, ok := rv.Type().FieldByName(key); ok && field.IsExported() {
		return &Descriptor{
			Key:      key,
			Exists:   true,
			Writable: true,
			TypeName: field.Type.String(),
			Source:   "field",
		}, nil
	}
	if method := reflect.ValueOf(target).MethodByName(key); method.IsValid() {
		return &Descriptor{
			Key:      key,
			Exists:   true,
			Writable: false,
			TypeName: method.Type().String(),
			Source:   "method",
		}, nil
	}
	return &Descriptor{Key: key}, nil
}

// defaultInvoke performs the ordinary method invocation: a method on a
// struct target, or a func-valued entry on a map target.
func defaultInvoke(target any, name string, args []any) (any, error) {
	var fn reflect.Value

	if m, ok := target.(map[string]any); ok {
		entry, present := m[name]
		if !present {
			return nil, apperrors.NewNotFoundError("method", name)
		}
		fn = reflect.ValueOf(entry)
		if !fn.IsValid() || fn.Kind() != reflect.Func {
			return nil, apperrors.NewConfigurationError("target", fmt.Sprintf("entry %q is %T, not callable", name, entry), nil)
		}
	} else {
		fn = reflect.ValueOf(target).MethodByName(name)
		if !fn.IsValid() {
			return nil, apperrors.NewNotFoundError("method", name)
		}
	}

	return callFunc(fn, name, args)
}

// defaultConstruct invokes the configured constructor function.
func defaultConstruct(constructor any, args []any) (any, error) {
	if constructor == nil {
		return nil, apperrors.NewConfigurationError("kernel", "no constructor configured for construct operations", nil)
	}
	return callFunc(reflect.ValueOf(constructor), "constructor", args)
}

// callFunc converts args to the function's parameter types and calls
// it, splitting a trailing error return out of the results.
func callFunc(fn reflect.Value, name string, args []any) (any, error) {
	ft := fn.Type()
	fixed := ft.NumIn()
	if ft.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, apperrors.NewConfigurationError("target", fmt.Sprintf("%s expects at least %d args, got %d", name, fixed, len(args)), nil)
		}
	} else if len(args) != ft.NumIn() {
		return nil, apperrors.NewConfigurationError("target", fmt.Sprintf("%s expects %d args, got %d", name, ft.NumIn(), len(args)), nil)
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		want := ft.In(min(i, fixed))
		if ft.IsVariadic() && i >= fixed {
			want = ft.In(fixed).Elem()
		}
		converted, err := convertArg(arg, want, name, i)
		if err != nil {
			return nil, err
		}
		in[i] = converted
	}

	results := fn.Call(in)
	return splitResults(results)
}

func convertArg(arg any, want reflect.Type, name string, index int) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(want), nil
	}
	av := reflect.ValueOf(arg)
	switch {
	case av.Type().AssignableTo(want):
		return av, nil
	case av.Type().ConvertibleTo(want):
		return av.Convert(want), nil
	default:
		return reflect.Value{}, apperrors.NewConfigurationError("target", fmt.Sprintf("%s arg %d: cannot use %T as %s", name, index, arg, want), nil)
	}
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func splitResults(results []reflect.Value) (any, error) {
	if n := len(results); n > 0 && results[n-1].Type().Implements(errorType) {
		if errVal := results[n-1].Interface(); errVal != nil {
			return nil, errVal.(error)
		}
		results = results[:n-1]
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0].Interface(), nil
	default:
		out := make([]any, len(results))
		for i, r := range results {
			out[i] = r.Interface()
		}
		return out, nil
	}
}
