package store

import (
	"reflect"
	"slices"

	"github.com/roach88/routesync/internal/ir"
)

// CombineReducers builds a reducer over map[string]any state where each key
// is owned by one reducer.
//
// Slices are reduced in key order. When no slice changes, the previous map
// is returned unchanged so listeners comparing state see no change.
// Keys without a reducer are dropped.
func CombineReducers(reducers map[string]Reducer) Reducer {
	keys := make([]string, 0, len(reducers))
	for k := range reducers {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return func(state any, action ir.Action) any {
		prev, _ := state.(map[string]any)

		next := make(map[string]any, len(keys))
		changed := prev == nil || len(prev) != len(keys)
		for _, k := range keys {
			before := prev[k]
			after := reducers[k](before, action)
			next[k] = after
			if !identical(before, after) {
				changed = true
			}
		}

		if !changed {
			return prev
		}
		return next
	}
}

// identical reports whether a and b are the same value. Pointers, maps,
// slices and funcs compare by address; other comparable values with ==.
func identical(a, b any) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta == nil {
		return true
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Map, reflect.Func, reflect.Pointer, reflect.UnsafePointer, reflect.Chan:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	if ta.Comparable() {
		defer func() { _ = recover() }()
		return a == b
	}
	return false
}
