// Package storage writes and loads the binary containers of the graph and
// the snap index. The layout is little-endian and defined by the binary
// schemas below. Loaders validate all structural invariants and refuse to
// return corrupted data, the query path relies on them (binary search over
// the fine cell ids requires sortedness).
package storage

import (
	"os"

	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"

	"tobmap/graph"
	"tobmap/util"
)

const GraphFileName = "graph.bin"

var (
	edgeBinarySchema = util.BinarySchema{
		Items: []util.BinaryItem{
			&util.BinaryDataItem{FieldName: "Start", BinaryType: util.DatatypeUint32},
			&util.BinaryDataItem{FieldName: "End", BinaryType: util.DatatypeUint32},
			&util.BinaryDataItem{FieldName: "CostFlags", BinaryType: util.DatatypeUint16},
			&binaryPointCollectionItem{FieldName: "Points"},
		},
	}

	nodeBinarySchema = util.BinarySchema{
		Items: []util.BinaryItem{
			&binaryPointItem{FieldName: "Point"},
			&util.BinaryRawCollectionItem{FieldName: "Edges", BinaryType: util.DatatypeUint32},
			&util.BinaryCollectionItem{
				FieldName: "Interactions",
				ItemSchema: util.BinarySchema{
					Items: []util.BinaryItem{
						&util.BinaryDataItem{FieldName: "Incoming", BinaryType: util.DatatypeByte},
						&util.BinaryDataItem{FieldName: "Outgoing", BinaryType: util.DatatypeByte},
					},
				},
			},
		},
	}

	metadataBinarySchema = util.BinarySchema{
		Items: []util.BinaryItem{
			&util.BinaryStringCollectionItem{FieldName: "Names"},
			&util.BinaryDataItem{FieldName: "Priority", BinaryType: util.DatatypeByte},
			&util.BinaryDataItem{FieldName: "Modes", BinaryType: util.DatatypeByte},
		},
	}

	graphBinarySchema = util.BinarySchema{
		Items: []util.BinaryItem{
			&util.BinaryStringItem{FieldName: "Name"},
			&util.BinaryCollectionItem{FieldName: "Edges", ItemSchema: edgeBinarySchema},
			&util.BinaryCollectionItem{FieldName: "Nodes", ItemSchema: nodeBinarySchema},
			&util.BinaryCollectionItem{FieldName: "Metadata", ItemSchema: metadataBinarySchema},
		},
	}
)

func graphByteSize(g *graph.Graph) int {
	size := 4 + len(g.Name)

	size += 4
	for _, edge := range g.Edges {
		size += 4 + 4 + 2 + 4 + 16*len(edge.Points)
	}

	size += 4
	for _, node := range g.Nodes {
		size += 16 + 4 + 4*len(node.Edges) + 4 + 2*len(node.Interactions)
	}

	size += 4
	for _, metadata := range g.Metadata {
		size += 4
		for _, name := range metadata.Names {
			size += 4 + len(name)
		}
		size += 1 + 1
	}

	return size
}

// WriteGraph serializes the graph into the given file.
func WriteGraph(g *graph.Graph, filename string) error {
	data := make([]byte, graphByteSize(g))

	index, err := graphBinarySchema.Write(g, data, 0)
	if err != nil {
		return errors.Wrapf(err, "Unable to serialize graph '%s'", g.Name)
	}

	err = os.WriteFile(filename, data[:index], 0644)
	if err != nil {
		return errors.Wrapf(err, "Unable to write graph file %s", filename)
	}

	sigolo.Debugf("Wrote graph '%s' (%d bytes) to %s", g.Name, index, filename)
	return nil
}

// LoadGraph reads and validates a graph container. A graph violating its
// cross-reference invariants is rejected.
func LoadGraph(filename string) (*graph.Graph, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to read graph file %s", filename)
	}

	g := &graph.Graph{}
	_, err = graphBinarySchema.Read(g, data, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to deserialize graph file %s", filename)
	}

	if err = g.Validate(); err != nil {
		return nil, errors.Wrapf(err, "Graph file %s is corrupt", filename)
	}

	sigolo.Debugf("Loaded graph '%s' with %d nodes and %d edges from %s", g.Name, len(g.Nodes), len(g.Edges), filename)
	return g, nil
}
