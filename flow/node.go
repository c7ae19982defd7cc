package flow

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"

	"github.com/razeghi71/dqflow/table"
)

// ID identifies a node. IDs are unique within a process and increase in
// creation order, so a node's inputs always have smaller IDs.
type ID int64

var lastID atomic.Int64

// NodeKind names the operator a node applies.
type NodeKind string

const (
	KindSource        NodeKind = "source"
	KindSelect        NodeKind = "select"
	KindRemove        NodeKind = "remove"
	KindRename        NodeKind = "rename"
	KindFilter        NodeKind = "filter"
	KindAddColumn     NodeKind = "addcolumn"
	KindProcessColumn NodeKind = "processcolumn"
	KindSort          NodeKind = "sort"
	KindJoin          NodeKind = "join"
	KindAggregate     NodeKind = "aggregate"
	KindTop           NodeKind = "top"
	KindUnfold        NodeKind = "unfold"
	KindDebug         NodeKind = "debug"
	KindHead          NodeKind = "head"
	KindTail          NodeKind = "tail"
	KindDistinct      NodeKind = "distinct"
)

type applyFunc func(ctx context.Context, in []*table.Table) (*table.Table, error)

// node is immutable once created and may be shared by any number of
// downstream nodes.
type node struct {
	id     ID
	kind   NodeKind
	label  string
	inputs []*node
	apply  applyFunc
	err    error // build error, reported when the node is evaluated
}

func newNode(kind NodeKind, label string, apply applyFunc, inputs ...*node) *node {
	return &node{
		id:     ID(lastID.Add(1)),
		kind:   kind,
		label:  label,
		inputs: inputs,
		apply:  apply,
	}
}

// Name is the node's readable unique name, e.g. "filter7".
func (n *node) Name() string {
	return fmt.Sprintf("%s%d", n.kind, n.id)
}

// sorted returns every node reachable from n, inputs before the nodes that
// consume them.
func sorted(n *node) []*node {
	var (
		order   []*node
		visited = make(map[*node]bool)
	)
	// Depth first search, post-order. The graph cannot contain a cycle since
	// nodes only reference nodes built before them.
	var visit func(n *node)
	visit = func(n *node) {
		if visited[n] {
			return
		}
		visited[n] = true
		for _, in := range n.inputs {
			visit(in)
		}
		order = append(order, n)
	}
	visit(n)
	return order
}

// levels groups a sorted node list so that every node's inputs sit in an
// earlier level.
func levels(order []*node) [][]*node {
	depth := make(map[*node]int, len(order))
	var out [][]*node
	for _, n := range order {
		d := 0
		for _, in := range n.inputs {
			if depth[in]+1 > d {
				d = depth[in] + 1
			}
		}
		depth[n] = d
		if d == len(out) {
			out = append(out, nil)
		}
		out[d] = append(out[d], n)
	}
	return out
}

func dot(name string, order []*node) []byte {
	var buf bytes.Buffer
	buf.WriteString("digraph ")
	buf.WriteString(name)
	buf.WriteString(" {\n")
	for _, n := range order {
		for _, in := range n.inputs {
			fmt.Fprintf(&buf, "%s -> %s;\n", in.Name(), n.Name())
		}
	}
	buf.WriteString("}")
	return buf.Bytes()
}
