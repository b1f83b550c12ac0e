// File: supervisor/factory.go
// Node factories: construct a bare, unparsed node.Node for a declared
// type name. Grounded on facade/hioload.go's New(), which wires up one
// concrete implementation per api.* interface behind a single Config —
// here every node type is registered the same way, keyed by name
// instead of compiled in.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package supervisor

import (
	"github.com/villas-go/node/node"
	"github.com/villas-go/node/nodes"
)

// NodeFactory builds a fresh, unparsed node of one type.
type NodeFactory func(name string) node.Node

func defaultFactories() map[string]NodeFactory {
	return map[string]NodeFactory{
		"file":   func(name string) node.Node { return nodes.NewFile(name) },
		"signal": func(name string) node.Node { return nodes.NewGenerator(name) },
		"memnode": func(name string) node.Node { return nodes.NewMemNode(name) },
	}
}
