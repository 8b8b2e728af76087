package ast

import (
	"fmt"

	"tfemit/internal/source"
)

// DuplicateLabelError reports a second definition of a named label.
type DuplicateLabelError struct {
	Name string
	Pos  source.Pos
}

func (e *DuplicateLabelError) Error() string {
	return fmt.Sprintf("Label '%s' already defined", e.Name)
}

// CollectLabels builds the label table of a function body. The value tells
// whether the label is defined somewhere inside a using block.
func CollectLabels(body []Stmt) (map[string]bool, error) {
	labels := make(map[string]bool)
	if err := collectLabels(body, false, labels); err != nil {
		return nil, err
	}
	return labels, nil
}

func collectLabels(stmts []Stmt, inUsing bool, labels map[string]bool) error {
	for i := range stmts {
		st := &stmts[i]
		var err error
		switch d := st.Data.(type) {
		case GotoData:
			if st.Kind != StmtLabel {
				continue
			}
			if _, dup := labels[d.Label]; dup {
				return &DuplicateLabelError{Name: d.Label, Pos: st.Pos}
			}
			labels[d.Label] = inUsing
		case IfData:
			if err = collectLabels(d.Then, inUsing, labels); err == nil {
				err = collectLabels(d.Else, inUsing, labels)
			}
		case WhileData:
			err = collectLabels(d.Body, inUsing, labels)
		case ForeachData:
			err = collectLabels(d.Body, inUsing, labels)
		case SwitchData:
			for j := range d.Cases {
				if err = collectLabels(d.Cases[j].Body, inUsing, labels); err != nil {
					break
				}
			}
		case TryData:
			if err = collectLabels(d.Body, inUsing, labels); err == nil {
				err = collectLabels(d.Finally, inUsing, labels)
			}
		case UsingData:
			err = collectLabels(d.Body, true, labels)
		case BlockData:
			err = collectLabels(d.Body, inUsing, labels)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// DirectLabels returns the labels a region owns: those defined in stmts
// outside any nested loop, switch, try or using.
func DirectLabels(stmts []Stmt) []string {
	var out []string
	var walk func([]Stmt)
	walk = func(ss []Stmt) {
		for i := range ss {
			switch d := ss[i].Data.(type) {
			case GotoData:
				if ss[i].Kind == StmtLabel {
					out = append(out, d.Label)
				}
			case IfData:
				walk(d.Then)
				walk(d.Else)
			case BlockData:
				walk(d.Body)
			}
		}
	}
	walk(stmts)
	return out
}
