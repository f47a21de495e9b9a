package logger

import (
	"strings"
)

// Config describes an interface which provides a method for getting a logging
// level for a particular namespace.
type Config interface {
	// LevelForNamespace returns a logging Level for particular namespace.
	LevelForNamespace(namespace string) Level
}

// ConfigMap maps namespace patterns to logging levels. Namespace sections are
// separated by colons. A section can be a name, a single wildcard `*`
// matching exactly one section, or a double wildcard `**` matching any number
// of sections. The empty key configures the root level.
type ConfigMap map[string]Level

// NewConfig compiles a ConfigMap into a Config which resolves wildcards.
// Returns nil when the map is nil so that WithConfig is a no-op.
func NewConfig(configMap ConfigMap) Config {
	return newWildcardTree(configMap)
}

// NewConfigFromString parses a comma-separated configuration string, for
// example from an environment variable:
//
//	ns1,ns1:ns2:debug,**:ns3:trace,:info
//
// When the last section of an entry is not a valid level name, the level
// defaults to info.
func NewConfigFromString(stringConfig string) Config {
	if stringConfig == "" {
		return nil
	}

	entries := strings.Split(stringConfig, ",")

	configMap := make(ConfigMap, len(entries))

	for _, ns := range entries {
		level := LevelInfo

		if index := strings.LastIndex(ns, ":"); index > -1 {
			if cfgLevel, ok := LevelFromString(ns[index+1:]); ok {
				level = cfgLevel
				ns = ns[:index]
			}
		}

		configMap[ns] = level
	}

	return NewConfig(configMap)
}
