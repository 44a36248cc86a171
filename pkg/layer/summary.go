package layer

import "github.com/sajal1123/curio/pkg/spec"

// Summary is a compact description of a loaded layer.
type Summary struct {
	ID         string             `json:"id"`
	Type       Type               `json:"type"`
	ZOrder     int                `json:"zOrder"`
	Dimensions int                `json:"dimensions"`
	StyleKey   string             `json:"styleKey,omitempty"`
	Elements   map[spec.Level]int `json:"elements"`
	Joins      int                `json:"joins"`
	External   []string           `json:"external,omitempty"`
}

// Summarize describes l. Elements only lists the levels l accepts values at.
func Summarize(l Layer) Summary {
	s := Summary{
		ID:         l.ID(),
		Type:       l.Type(),
		ZOrder:     l.ZOrder(),
		Dimensions: l.Dimensions(),
		StyleKey:   l.StyleKey(),
		Elements:   make(map[spec.Level]int, len(spec.Levels)),
	}
	for _, level := range spec.Levels {
		if l.CheckLevel(level) != nil {
			continue
		}
		if n, err := l.ElementCount(level); err == nil {
			s.Elements[level] = n
		}
	}
	if jx := l.Joins(); jx != nil {
		s.Joins = len(jx.JoinedLayers)
	}
	if ex := l.External(); ex != nil {
		s.External = ex.IncomingIDs
	}
	return s
}
