package funnel

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// csvHeader is the interchange contract. Column order is fixed; downstream
// spreadsheets depend on it.
var csvHeader = []string{
	"NodeID", "NodeType", "NodeName", "ConfigJSON",
	"PosX", "PosY", "EdgeFrom", "EdgeTo", "EdgeConditionJSON",
}

// ExportCSV writes g as node rows joined with outgoing edges: one row per
// (node, outgoing edge), and a single row with blank edge columns for nodes
// with no outgoing edge.
func ExportCSV(w io.Writer, g Graph) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	outgoing := make(map[string][]Edge, len(g.Nodes))
	for _, e := range g.Edges {
		outgoing[e.From] = append(outgoing[e.From], e)
	}

	for _, n := range g.Nodes {
		cfg := ""
		if raw := n.Config.Raw(); raw != nil {
			cfg = string(raw)
		}
		base := []string{
			n.Key, string(n.Type), n.Name, cfg,
			formatCoord(n.Pos.X), formatCoord(n.Pos.Y),
		}
		edges := outgoing[n.Key]
		if len(edges) == 0 {
			if err := cw.Write(append(base, "", "", "")); err != nil {
				return err
			}
			continue
		}
		for _, e := range edges {
			cond := ""
			if len(e.Condition) > 0 {
				cond = string(e.Condition)
			}
			row := append(append([]string(nil), base...), e.From, e.To, cond)
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// ImportCSV parses the interchange format back into a Graph.
//
// Rows are grouped by NodeID and the first row wins the node's fields.
// A blank NodeType defaults to stage, a blank NodeName to the node id.
// Exact duplicate (from, to) pairs collapse to one edge.
func ImportCSV(r io.Reader) (Graph, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return Graph{Nodes: []Node{}, Edges: []Edge{}}, nil
	}
	if err != nil {
		return Graph{}, err
	}
	col := columnIndex(header)
	if _, ok := col["NodeID"]; !ok {
		return Graph{}, fmt.Errorf("%w: missing NodeID column", ErrInvalidArgument)
	}

	g := Graph{Nodes: []Node{}, Edges: []Edge{}}
	seenNode := make(map[string]bool)
	seenEdge := make(map[[2]string]bool)

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Graph{}, err
		}
		field := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		id := field("NodeID")
		if id != "" && !seenNode[id] {
			seenNode[id] = true
			n := Node{Key: id, Type: NodeType(field("NodeType")), Name: field("NodeName")}
			if n.Type == "" {
				n.Type = NodeStage
			}
			if n.Name == "" {
				n.Name = id
			}
			if cfg := field("ConfigJSON"); cfg != "" {
				if n.Config, err = NewNodeConfig([]byte(cfg)); err != nil {
					return Graph{}, fmt.Errorf("%w: line %d config: %v", ErrInvalidArgument, line, err)
				}
			}
			if n.Pos.X, err = parseCoord(field("PosX")); err != nil {
				return Graph{}, fmt.Errorf("%w: line %d PosX", ErrInvalidArgument, line)
			}
			if n.Pos.Y, err = parseCoord(field("PosY")); err != nil {
				return Graph{}, fmt.Errorf("%w: line %d PosY", ErrInvalidArgument, line)
			}
			g.Nodes = append(g.Nodes, n)
		}

		from, to := field("EdgeFrom"), field("EdgeTo")
		if from == "" || to == "" {
			continue
		}
		key := [2]string{from, to}
		if seenEdge[key] {
			continue
		}
		seenEdge[key] = true
		e := Edge{From: from, To: to}
		if cond := field("EdgeConditionJSON"); cond != "" {
			if !json.Valid([]byte(cond)) {
				return Graph{}, fmt.Errorf("%w: line %d edge condition is not valid JSON", ErrInvalidArgument, line)
			}
			e.Condition = json.RawMessage(cond)
		}
		g.Edges = append(g.Edges, e)
	}

	return g, nil
}

func columnIndex(header []string) map[string]int {
	out := make(map[string]int, len(header))
	for i, h := range header {
		out[strings.TrimSpace(h)] = i
	}
	return out
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseCoord(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
