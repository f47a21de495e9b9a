package logger

import (
	"strings"
)

// wildcardNode is a node in the namespace pattern tree. Each node corresponds
// to one colon-separated section of a configured namespace pattern.
type wildcardNode struct {
	// level is the configured level, or LevelUnknown for intermediate nodes.
	level Level

	// name is the section this node matches. Can be `*` or `**`.
	name string

	children map[string]*wildcardNode
}

func newWildcardTree(configMap ConfigMap) Config {
	if configMap == nil {
		return nil
	}

	root := &wildcardNode{}

	for pattern, level := range configMap {
		root.add(pattern, level)
	}

	return root
}

var _ Config = &wildcardNode{}

func (n *wildcardNode) add(namespace string, level Level) {
	if namespace == "" {
		n.level = level

		return
	}

	parent := n

	for _, name := range strings.Split(namespace, ":") {
		child, ok := parent.children[name]
		if !ok {
			child = &wildcardNode{
				level: LevelUnknown,
				name:  name,
			}

			if parent.children == nil {
				parent.children = map[string]*wildcardNode{
					name: child,
				}
			} else {
				parent.children[name] = child
			}
		}

		parent = child
	}

	parent.level = level
}

func (n *wildcardNode) levelForNamespace(names []string) (Level, bool) {
	if len(names) == 0 {
		node := n

		if node.level == LevelUnknown {
			// A trailing double wildcard also matches zero sections.
			if child, ok := n.children["**"]; ok {
				node = child
			}
		}

		return node.level, node.level != LevelUnknown
	}

	name := names[0]

	if child, ok := n.children[name]; ok {
		if level, ok := child.levelForNamespace(names[1:]); ok {
			return level, true
		}
	}

	if n.name == "**" {
		// A double wildcard matches any number of sections in between, so
		// retry the remaining suffixes against this node's children.
		for i := 0; i < len(names); i++ {
			if child, ok := n.children[names[i]]; ok {
				if level, ok := child.levelForNamespace(names[i+1:]); ok {
					return level, true
				}
			}
		}

		if n.level != LevelUnknown {
			return n.level, true
		}
	}

	if child, ok := n.children["*"]; ok {
		if level, ok := child.levelForNamespace(names[1:]); ok {
			return level, true
		}
	}

	if child, ok := n.children["**"]; ok {
		// Pass all names to handle the case where `**` matches zero
		// sections.
		if level, ok := child.levelForNamespace(names); ok {
			return level, true
		}
	}

	return LevelDisabled, false
}

// LevelForNamespace implements Config.
func (n *wildcardNode) LevelForNamespace(namespace string) Level {
	if namespace == "" {
		return n.level
	}

	names := strings.Split(namespace, ":")

	if level, ok := n.levelForNamespace(names); ok {
		return level
	}

	return n.level
}
