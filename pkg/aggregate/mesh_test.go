package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sajal1123/curio/pkg/linkerr"
)

// Two cells over four unshared triangles (12 vertices): triangles 0 and 1
// form cell 0, triangles 2 and 3 form cell 1.
var (
	stripIndices = []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	stripCells   = []int{0, 0, 1, 1}
)

func TestFaceAverage(t *testing.T) {
	faces, err := FaceAverage([]float64{3, 6, 9, 0, 0, 3}, []int{0, 1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, []float64{6, 1}, faces)

	_, err = FaceAverage([]float64{1, 2}, []int{0, 1, 2})
	assert.ErrorIs(t, err, linkerr.ErrShapeMismatch)

	_, err = FaceAverage([]float64{1, 2, 3}, []int{0, 1})
	assert.ErrorIs(t, err, linkerr.ErrShapeMismatch)
}

func TestCellAverage(t *testing.T) {
	got, err := CellAverage([]float64{2, 4, 10, 20}, stripCells)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 3, 15, 15}, got)

	_, err = CellAverage([]float64{1}, []int{0, 1})
	assert.ErrorIs(t, err, linkerr.ErrShapeMismatch)

	_, err = CellAverage([]float64{1}, []int{-1})
	assert.ErrorIs(t, err, linkerr.ErrShapeMismatch)
}

func TestFacesToVertices(t *testing.T) {
	got, err := FacesToVertices([]float64{7, 9}, []int{0, 1, 2, 3, 4, 5}, 7)
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 7, 7, 9, 9, 9, 0}, got)

	_, err = FacesToVertices([]float64{7}, []int{0, 1, 9}, 3)
	assert.ErrorIs(t, err, linkerr.ErrShapeMismatch)
}

func TestSmoothByCellEqualizesCells(t *testing.T) {
	m := Matrix{
		{1, 2, 3, 10, 20, 30, 5, 5, 5, 0, 0, 9},
		{0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1},
	}

	out, err := SmoothByCell(m, stripIndices, stripCells, 12)
	require.NoError(t, err)
	require.Len(t, out, 2)

	// Every vertex of a cell carries the same value.
	for k, row := range out {
		vertexCell := make(map[int]int)
		for face, cell := range stripCells {
			for _, v := range stripIndices[face*3 : face*3+3] {
				vertexCell[v] = cell
			}
		}
		byCell := map[int]float64{}
		for v, cell := range vertexCell {
			if want, ok := byCell[cell]; ok {
				assert.Equal(t, want, row[v], "timestep %d vertex %d", k, v)
			}
			byCell[cell] = row[v]
		}
	}

	// face means: 2, 20, 5, 3 -> cells (2+20)/2 = 11, (5+3)/2 = 4
	assert.Equal(t, []float64{11, 11, 11, 11, 11, 11, 4, 4, 4, 4, 4, 4}, out[0])
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1}, out[1])
}

func TestSmoothByCellRejectsVertexSharedAcrossCells(t *testing.T) {
	// two triangles sharing the edge 1-2; one cell each
	indices := []int{0, 1, 2, 1, 3, 2}
	m := Matrix{{1, 2, 3, 4}}

	_, err := SmoothByCell(m, indices, []int{0, 1}, 4)
	assert.ErrorIs(t, err, linkerr.ErrShapeMismatch)

	// the same mesh as a single cell keeps shared vertices consistent
	out, err := SmoothByCell(m, indices, []int{0, 0}, 4)
	require.NoError(t, err)
	assert.Equal(t, Matrix{{2.5, 2.5, 2.5, 2.5}}, out)
}
