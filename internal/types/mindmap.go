package types

import (
	"fmt"
	"strings"
)

// MindMap is a two-level idea tree under a central title.
type MindMap struct {
	Title     string     `json:"title"`
	MainIdeas []MainIdea `json:"mainIdeas"`
}

type MainIdea struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	SubPoints []SubPoint `json:"subPoints"`
}

type SubPoint struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Validate requires a title and at least one main idea; every node needs text.
func (m MindMap) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("%w: mind map has no title", ErrInvalidOutput)
	}
	if len(m.MainIdeas) == 0 {
		return fmt.Errorf("%w: mind map has no main ideas", ErrInvalidOutput)
	}
	for i, idea := range m.MainIdeas {
		if strings.TrimSpace(idea.Text) == "" {
			return fmt.Errorf("%w: main idea %d has no text", ErrInvalidOutput, i)
		}
		for j, sp := range idea.SubPoints {
			if strings.TrimSpace(sp.Text) == "" {
				return fmt.Errorf("%w: sub-point %d.%d has no text", ErrInvalidOutput, i, j)
			}
		}
	}
	return nil
}

// AssignIDs replaces every node id with one from next, discarding whatever
// the model returned.
func (m *MindMap) AssignIDs(next func() string) {
	for i := range m.MainIdeas {
		m.MainIdeas[i].ID = next()
		if m.MainIdeas[i].SubPoints == nil {
			m.MainIdeas[i].SubPoints = []SubPoint{}
		}
		for j := range m.MainIdeas[i].SubPoints {
			m.MainIdeas[i].SubPoints[j].ID = next()
		}
	}
}
