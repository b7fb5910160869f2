package io

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/matzehuels/taskplan/pkg/errors"
	"github.com/matzehuels/taskplan/pkg/schedule"
	"github.com/matzehuels/taskplan/pkg/taskgraph"
)

// Attribute names used on DOT nodes and edges.
const (
	AttrWeight    = "Weight"
	AttrStart     = "Start"
	AttrProcessor = "Processor"
)

// ReadDOT parses a Graphviz digraph from r into a task graph.
//
// Every node needs an integer Weight attribute (its duration) and every edge
// an integer Weight attribute (its communication cost). Tasks are indexed in
// the order Graphviz reports them, which is declaration order.
//
// Syntax errors are reported with code INVALID_FORMAT; missing or negative
// weights, duplicate edges and cycles with code INVALID_GRAPH.
func ReadDOT(r io.Reader) (*taskgraph.Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return parseDOT(data)
}

// ImportDOT reads a DOT file at path. It is a convenience wrapper around
// [ReadDOT].
func ImportDOT(path string) (*taskgraph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return parseDOT(data)
}

func parseDOT(data []byte) (*taskgraph.Graph, error) {
	gv, err := graphviz.ParseBytes(data)
	if err == nil && gv == nil {
		err = fmt.Errorf("no graph found")
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer gv.Close()

	b := taskgraph.NewBuilder()
	for n, err := gv.FirstNode(); n != nil || err != nil; n, err = gv.NextNode(n) {
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "walk nodes")
		}
		id, err := n.Name()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "node name")
		}
		if err := errors.ValidateTaskID(id); err != nil {
			return nil, err
		}
		w, err := intAttr(n.GetStr(AttrWeight), "task "+id)
		if err != nil {
			return nil, err
		}
		if err := b.AddTask(id, w); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "task %s", id)
		}
	}

	for n, err := gv.FirstNode(); n != nil || err != nil; n, err = gv.NextNode(n) {
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "walk nodes")
		}
		for e, err := gv.FirstOut(n); e != nil || err != nil; e, err = gv.NextOut(e) {
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "walk edges")
			}
			if err := addDOTEdge(b, e); err != nil {
				return nil, err
			}
		}
	}

	g, err := b.Build()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "build graph")
	}
	return g, nil
}

func addDOTEdge(b *taskgraph.Builder, e *cgraph.Edge) error {
	tail, err := e.Tail()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "edge tail")
	}
	head, err := e.Head()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "edge head")
	}
	from, err := tail.Name()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "edge tail name")
	}
	to, err := head.Name()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "edge head name")
	}
	comm, err := intAttr(e.GetStr(AttrWeight), "edge "+from+"->"+to)
	if err != nil {
		return err
	}
	if err := b.AddEdge(from, to, comm); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidGraph, err, "edge %s->%s", from, to)
	}
	return nil
}

func intAttr(raw, what string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New(errors.ErrCodeInvalidGraph, "%s has no %s attribute", what, AttrWeight)
	}
	w, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidGraph, err, "%s: %s=%q is not an integer", what, AttrWeight, raw)
	}
	if err := errors.ValidateWeight(what, w); err != nil {
		return 0, err
	}
	return w, nil
}

// WriteDOT writes g as a DOT digraph named name. If sol is non-nil, each
// node also carries its Start and Processor. Nodes and edges appear in task
// index order so output is deterministic.
func WriteDOT(w io.Writer, g *taskgraph.Graph, sol *schedule.Solution, name string) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %q {\n", name)
	for _, t := range g.Tasks() {
		fmt.Fprintf(&buf, "\t%q\t[%s=%d", t.ID(), AttrWeight, t.Weight())
		if sol != nil {
			if a, ok := sol.Lookup(t.ID()); ok {
				fmt.Fprintf(&buf, ",%s=%d,%s=%d", AttrStart, a.Start, AttrProcessor, a.Processor)
			}
		}
		buf.WriteString("];\n")
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "\t%q -> %q\t[%s=%d];\n", e.Parent.ID(), e.Child.ID(), AttrWeight, e.Comm)
	}
	buf.WriteString("}\n")

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// ExportDOT writes the scheduled graph to a DOT file at path.
func ExportDOT(g *taskgraph.Graph, sol *schedule.Solution, name, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteDOT(f, g, sol, name)
}

// OutputName returns the default output path for an input file: the .dot
// suffix is replaced by -output.dot.
func OutputName(input string) string {
	return strings.TrimSuffix(input, ".dot") + "-output.dot"
}
