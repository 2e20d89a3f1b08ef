package storage

import (
	"os"

	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"

	"tobmap/graph"
	"tobmap/snap"
	"tobmap/util"
)

const SnapIndexFileName = "snapbuckets.bin"

var (
	bucketBinarySchema = util.BinarySchema{
		Items: []util.BinaryItem{
			&util.BinaryDataItem{FieldName: "CellID", BinaryType: util.DatatypeUint64},
			&util.BinaryRawCollectionItem{FieldName: "FineCellIDs", BinaryType: util.DatatypeUint64},
			&util.BinaryRawCollectionItem{FieldName: "EdgeIndexes", BinaryType: util.DatatypeUint32},
		},
	}

	snapIndexBinarySchema = util.BinarySchema{
		Items: []util.BinaryItem{
			&util.BinaryDataItem{FieldName: "OuterLevel", BinaryType: util.DatatypeUint32},
			&util.BinaryDataItem{FieldName: "FineLevel", BinaryType: util.DatatypeUint32},
			&util.BinaryCollectionItem{FieldName: "Buckets", ItemSchema: bucketBinarySchema},
		},
	}
)

func snapIndexByteSize(index *snap.Index) int {
	size := 4 + 4 + 4
	for _, bucket := range index.Buckets {
		size += 8 + 4 + 8*len(bucket.FineCellIDs) + 4 + 4*len(bucket.EdgeIndexes)
	}
	return size
}

// WriteSnapIndex serializes the snap buckets into the given file.
func WriteSnapIndex(index *snap.Index, filename string) error {
	data := make([]byte, snapIndexByteSize(index))

	end, err := snapIndexBinarySchema.Write(index, data, 0)
	if err != nil {
		return errors.Wrap(err, "Unable to serialize snap index")
	}

	err = os.WriteFile(filename, data[:end], 0644)
	if err != nil {
		return errors.Wrapf(err, "Unable to write snap index file %s", filename)
	}

	sigolo.Debugf("Wrote snap index (%d buckets, %d bytes) to %s", len(index.Buckets), end, filename)
	return nil
}

// LoadSnapIndex reads a snap bucket container and attaches it to the given
// graph. Loading fails when any bucket violates the sortedness invariant,
// serving such an index would make binary search return wrong results.
func LoadSnapIndex(filename string, g *graph.Graph) (*snap.Index, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to read snap index file %s", filename)
	}

	loaded := &snap.Index{}
	_, err = snapIndexBinarySchema.Read(loaded, data, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to deserialize snap index file %s", filename)
	}

	index := snap.NewIndex(g, loaded.OuterLevel, loaded.FineLevel, loaded.Buckets)
	if err = index.Validate(); err != nil {
		return nil, errors.Wrapf(err, "Snap index file %s is corrupt, refusing to serve it", filename)
	}

	sigolo.Debugf("Loaded snap index with %d buckets from %s", len(index.Buckets), filename)
	return index, nil
}
