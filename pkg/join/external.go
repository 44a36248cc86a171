package join

// External holds values precomputed outside the grammar for a layer, one
// matrix per incoming layer.
type External struct {
	ID          string        `json:"id"`
	IncomingIDs []string      `json:"incomingId"`
	InValues    [][][]float64 `json:"inValues"` // [incoming][timestep][element]
}

// Values returns the matrix attached for the incoming layer inName. The
// second result is false when inName is not listed.
func (e *External) Values(inName string) ([][]float64, bool) {
	if e == nil {
		return nil, false
	}
	for i, id := range e.IncomingIDs {
		if id == inName && i < len(e.InValues) {
			return e.InValues[i], true
		}
	}
	return nil, false
}
