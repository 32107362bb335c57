package config

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// YAML and TOML files use the same keys as KEY=VALUE files, either flat
// (gps_baud_rate: 9600) or grouped by prefix:
//
//	mqtt:
//	  broker: tcp://broker:1883
//	gps:
//	  serial_port: auto

func (c *Config) loadYAML(r io.Reader) error {
	var doc map[string]any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return c.applyTree(doc)
}

func (c *Config) loadTOML(r io.Reader) error {
	var doc map[string]any
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return c.applyTree(doc)
}

func (c *Config) applyTree(doc map[string]any) error {
	flat := map[string]string{}
	if err := flatten("", doc, flat); err != nil {
		return err
	}
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := c.setValue(k, flat[k]); err != nil {
			return fmt.Errorf("config key %s: %w", k, err)
		}
	}
	return nil
}

func flatten(prefix string, node map[string]any, out map[string]string) error {
	for k, v := range node {
		key := strings.ToUpper(k)
		if prefix != "" {
			key = prefix + "_" + key
		}
		switch val := v.(type) {
		case map[string]any:
			if err := flatten(key, val, out); err != nil {
				return err
			}
		case []any:
			parts := make([]string, 0, len(val))
			for _, item := range val {
				parts = append(parts, fmt.Sprint(item))
			}
			out[key] = strings.Join(parts, ",")
		case nil:
			return fmt.Errorf("config key %s has no value", key)
		default:
			out[key] = fmt.Sprint(val)
		}
	}
	return nil
}
