package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/taskplan/pkg/errors"
	"github.com/matzehuels/taskplan/pkg/schedule"
	"github.com/matzehuels/taskplan/pkg/taskgraph"
)

type graph struct {
	Tasks []task `json:"tasks"`
	Edges []edge `json:"edges"`
}

type task struct {
	ID     string `json:"id"`
	Weight int    `json:"weight"`
}

type edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Comm int    `json:"comm"`
}

// ReadJSON decodes a JSON task graph from r.
//
// The input must be an object with "tasks" and "edges" arrays:
//
//	{
//	  "tasks": [{"id": "a", "weight": 2}, {"id": "b", "weight": 3}],
//	  "edges": [{"from": "a", "to": "b", "comm": 1}]
//	}
//
// Tasks are indexed in array order. Errors carry the same codes as
// [ReadDOT].
func ReadJSON(r io.Reader) (*taskgraph.Graph, error) {
	var data graph
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode")
	}

	b := taskgraph.NewBuilder()
	for _, t := range data.Tasks {
		if err := errors.ValidateTaskID(t.ID); err != nil {
			return nil, err
		}
		if err := b.AddTask(t.ID, t.Weight); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "task %s", t.ID)
		}
	}
	for _, e := range data.Edges {
		if err := b.AddEdge(e.From, e.To, e.Comm); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "edge %s->%s", e.From, e.To)
		}
	}
	g, err := b.Build()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "build graph")
	}
	return g, nil
}

// ImportJSON reads a JSON task graph file at path.
func ImportJSON(path string) (*taskgraph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// WriteJSON encodes g in the format read by [ReadJSON].
func WriteJSON(w io.Writer, g *taskgraph.Graph) error {
	out := graph{
		Tasks: make([]task, 0, g.Len()),
		Edges: make([]edge, 0, g.EdgeCount()),
	}
	for _, t := range g.Tasks() {
		out.Tasks = append(out.Tasks, task{ID: t.ID(), Weight: t.Weight()})
	}
	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, edge{From: e.Parent.ID(), To: e.Child.ID(), Comm: e.Comm})
	}
	return encode(w, out)
}

// WriteSolution encodes a solution as indented JSON.
func WriteSolution(w io.Writer, sol *schedule.Solution) error {
	return encode(w, sol)
}

// ExportSolution writes a solution to a JSON file at path.
func ExportSolution(sol *schedule.Solution, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteSolution(f, sol)
}

// ReadSolution decodes a solution written by [WriteSolution].
func ReadSolution(r io.Reader) (*schedule.Solution, error) {
	var sol schedule.Solution
	if err := json.NewDecoder(r).Decode(&sol); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode solution")
	}
	return &sol, nil
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
