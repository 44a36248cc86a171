package aggregate

import (
	"fmt"

	"github.com/sajal1123/curio/pkg/linkerr"
)

// FaceAverage returns, for each triangle, the mean of its three vertex values.
func FaceAverage(values []float64, indices []int) ([]float64, error) {
	if len(indices)%3 != 0 {
		return nil, linkerr.New("aggregate.FaceAverage", linkerr.ErrShapeMismatch, "",
			fmt.Sprintf("%d indices do not form triangles", len(indices)))
	}

	faces := make([]float64, len(indices)/3)
	for i := range faces {
		acc := 0.0
		for _, idx := range indices[i*3 : i*3+3] {
			if idx < 0 || idx >= len(values) {
				return nil, linkerr.New("aggregate.FaceAverage", linkerr.ErrShapeMismatch, "",
					fmt.Sprintf("triangle %d references vertex %d of %d", i, idx, len(values)))
			}
			acc += values[idx]
		}
		faces[i] = acc / 3
	}
	return faces, nil
}

// CellAverage averages the faces that share a cell id and returns the cell
// value back on every face, so faces of one cell end up equal.
func CellAverage(faceValues []float64, cellIDs []int) ([]float64, error) {
	if len(cellIDs) != len(faceValues) {
		return nil, linkerr.New("aggregate.CellAverage", linkerr.ErrShapeMismatch, "",
			fmt.Sprintf("%d cell ids for %d faces", len(cellIDs), len(faceValues)))
	}

	maxID := -1
	for i, id := range cellIDs {
		if id < 0 {
			return nil, linkerr.New("aggregate.CellAverage", linkerr.ErrShapeMismatch, "",
				fmt.Sprintf("face %d has negative cell id %d", i, id))
		}
		if id > maxID {
			maxID = id
		}
	}

	acc := make([]float64, maxID+1)
	count := make([]int, maxID+1)
	for i, id := range cellIDs {
		acc[id] += faceValues[i]
		count[id]++
	}

	out := make([]float64, len(faceValues))
	for i, id := range cellIDs {
		out[i] = acc[id] / float64(count[id])
	}
	return out, nil
}

// FacesToVertices writes each face value onto its three vertices. Vertices
// are expected to be unique per face; when shared, the last face wins.
// Vertices no face references stay 0.
func FacesToVertices(faceValues []float64, indices []int, numVertices int) ([]float64, error) {
	if len(indices) != len(faceValues)*3 {
		return nil, linkerr.New("aggregate.FacesToVertices", linkerr.ErrShapeMismatch, "",
			fmt.Sprintf("%d indices for %d faces", len(indices), len(faceValues)))
	}

	out := make([]float64, numVertices)
	for i, v := range faceValues {
		for _, idx := range indices[i*3 : i*3+3] {
			if idx < 0 || idx >= numVertices {
				return nil, linkerr.New("aggregate.FacesToVertices", linkerr.ErrShapeMismatch, "",
					fmt.Sprintf("face %d references vertex %d of %d", i, idx, numVertices))
			}
			out[idx] = v
		}
	}
	return out, nil
}

// SmoothByCell runs FaceAverage, CellAverage and FacesToVertices on every
// timestep. Per-vertex input may be discontinuous across faces; the output
// is constant over each cell. A vertex referenced by faces of two different
// cells cannot hold both cell values and is rejected.
func SmoothByCell(m Matrix, indices, cellIDs []int, numVertices int) (Matrix, error) {
	if err := checkCellSharing(indices, cellIDs, numVertices); err != nil {
		return nil, err
	}

	out := make(Matrix, len(m))
	for k, row := range m {
		faces, err := FaceAverage(row, indices)
		if err != nil {
			return nil, fmt.Errorf("timestep %d: %w", k, err)
		}
		cells, err := CellAverage(faces, cellIDs)
		if err != nil {
			return nil, fmt.Errorf("timestep %d: %w", k, err)
		}
		verts, err := FacesToVertices(cells, indices, numVertices)
		if err != nil {
			return nil, fmt.Errorf("timestep %d: %w", k, err)
		}
		out[k] = verts
	}
	return out, nil
}

// checkCellSharing fails when a vertex belongs to faces of more than one
// cell. Malformed index or cell buffers are left to the per-step checks.
func checkCellSharing(indices, cellIDs []int, numVertices int) error {
	if len(indices) != len(cellIDs)*3 {
		return nil
	}
	owner := make([]int, numVertices)
	for i := range owner {
		owner[i] = -1
	}
	for face, cell := range cellIDs {
		for _, v := range indices[face*3 : face*3+3] {
			if v < 0 || v >= numVertices {
				continue
			}
			switch owner[v] {
			case -1:
				owner[v] = cell
			case cell:
			default:
				return linkerr.New("aggregate.SmoothByCell", linkerr.ErrShapeMismatch, "",
					fmt.Sprintf("vertex %d is shared by cells %d and %d", v, owner[v], cell))
			}
		}
	}
	return nil
}
