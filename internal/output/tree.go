package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/maxvaer/nitpx/internal/result"
)

type treeNode struct {
	name     string
	outcome  *result.Outcome
	children []*treeNode
}

func (n *treeNode) findOrCreate(name string) *treeNode {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	child := &treeNode{name: name}
	n.children = append(n.children, child)
	return child
}

func (n *treeNode) label() string {
	if n.outcome == nil {
		return n.name
	}
	return fmt.Sprintf("%s  %s", n.name, *n.outcome)
}

// PrintTree renders the tested routes as a path hierarchy, each tested
// route labelled with its outcome. Intermediate segments that were not
// tested themselves carry no label.
func PrintTree(w io.Writer, results []*result.RouteResult) {
	if len(results) == 0 {
		return
	}

	sorted := make([]*result.RouteResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Route < sorted[j].Route })

	root := &treeNode{name: "/"}
	for _, r := range sorted {
		node := root
		for _, p := range strings.Split(strings.Trim(r.Route, "/"), "/") {
			if p != "" {
				node = node.findOrCreate(p)
			}
		}
		outcome := r.Outcome
		node.outcome = &outcome
	}

	fmt.Fprintf(w, "\n  Tested routes:\n")
	fmt.Fprintf(w, "  %s\n", root.label())
	printChildren(w, root, "  ")
}

func printChildren(w io.Writer, node *treeNode, prefix string) {
	for i, child := range node.children {
		isLast := i == len(node.children)-1
		connector := "├── "
		if isLast {
			connector = "└── "
		}
		fmt.Fprintf(w, "%s%s%s\n", prefix, connector, child.label())
		nextPrefix := prefix + "│   "
		if isLast {
			nextPrefix = prefix + "    "
		}
		printChildren(w, child, nextPrefix)
	}
}
