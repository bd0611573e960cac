// Copyright 2025 Canvas Technologies, Inc. All rights reserved
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import "reflect"

const jsonNull = "null"

// jsonTags returns the json tags of struct or struct pointer s.
func jsonTags(s interface{}) []string {
	typ := reflect.TypeOf(s)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	if typ.Kind() != reflect.Struct {
		return nil
	}

	tags := make([]string, 0, typ.NumField())

	for i := 0; i < typ.NumField(); i++ {
		if tag := typ.Field(i).Tag.Get("json"); tag != "" {
			tags = append(tags, tag)
		}
	}

	return tags
}
