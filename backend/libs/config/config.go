// Package config fills configuration structs from an optional YAML file and
// then from environment variables.
//
// Environment keys are derived from the field path (HTTP.Port becomes
// HTTP_PORT) unless the field carries an `env:"KEY"` tag. `env:"-"` keeps a
// field file-only; maps are always file-only.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// PathEnv names the variable pointing at an optional YAML config file.
const PathEnv = "CONFIG_FILE"

// LookupFunc resolves one environment key.
type LookupFunc func(key string) (string, bool)

// Loader applies a YAML file and an environment source to a struct.
type Loader struct {
	Lookup LookupFunc
}

// LoadConfig reads the file named by CONFIG_FILE (if any), then the process environment.
func LoadConfig(target interface{}) error {
	return LoadFrom(os.Getenv(PathEnv), target)
}

// LoadFrom is LoadConfig with an explicit file path. An empty path skips the file.
func LoadFrom(path string, target interface{}) error {
	return Loader{Lookup: os.LookupEnv}.Load(path, target)
}

// Load fills target, which must be a non-nil pointer to a struct.
func (l Loader) Load(path string, target interface{}) error {
	root, err := structPointer(target)
	if err != nil {
		return err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("config: read file: %w", err)
		}
		if err := yaml.Unmarshal(data, target); err != nil {
			return fmt.Errorf("config: decode yaml: %w", err)
		}
	}
	lookup := l.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return overlay(root, "", lookup)
}

func structPointer(target interface{}) (reflect.Value, error) {
	if target == nil {
		return reflect.Value{}, errors.New("config: target is nil")
	}
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, errors.New("config: target must be pointer to struct")
	}
	return v.Elem(), nil
}

func overlay(v reflect.Value, prefix string, lookup LookupFunc) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		fv := v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if sf.Anonymous {
			if err := overlay(fv, prefix, lookup); err != nil {
				return err
			}
			continue
		}

		key, ok := envKey(prefix, sf)
		if !ok {
			continue
		}
		switch {
		case fv.Kind() == reflect.Struct:
			if err := overlay(fv, key, lookup); err != nil {
				return err
			}
		case fv.Kind() == reflect.Map:
		default:
			raw, found := lookup(key)
			if !found {
				continue
			}
			if err := set(fv, raw); err != nil {
				return fmt.Errorf("config: parse %s: %w", key, err)
			}
		}
	}
	return nil
}

func envKey(prefix string, sf reflect.StructField) (string, bool) {
	tag := sf.Tag.Get("env")
	switch tag {
	case "-":
		return "", false
	case "":
		name := upper(sf.Name)
		if prefix != "" {
			name = prefix + "_" + name
		}
		return name, true
	default:
		return upper(tag), true
	}
}

func upper(s string) string {
	return strings.ToUpper(strings.ReplaceAll(s, "-", "_"))
}

var durationType = reflect.TypeOf(time.Duration(0))

func set(fv reflect.Value, raw string) error {
	if fv.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		fv.SetInt(int64(d))
		return nil
	}

	bits := 0
	switch fv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		bits = fv.Type().Bits()
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, bits)
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, bits)
		if err != nil {
			return err
		}
		fv.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, bits)
		if err != nil {
			return err
		}
		fv.SetFloat(f)
	case reflect.Slice:
		if fv.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", fv.Type())
		}
		items := reflect.MakeSlice(fv.Type(), 0, strings.Count(raw, ",")+1)
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = reflect.Append(items, reflect.ValueOf(part).Convert(fv.Type().Elem()))
			}
		}
		fv.Set(items)
	default:
		return fmt.Errorf("unsupported field type %s", fv.Type())
	}
	return nil
}
