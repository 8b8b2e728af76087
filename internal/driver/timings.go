package driver

import (
	"encoding/json"
	"fmt"

	"tfemit/internal/diag"
	"tfemit/internal/observ"
	"tfemit/internal/source"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	Path    string               `json:"path,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

func appendTimingDiagnostic(bag *diag.Bag, payload timingPayload) {
	if bag == nil {
		return
	}
	if payload.Kind == "" {
		payload.Kind = "pipeline"
	}
	msg := fmt.Sprintf("timings (%s): total %.2f ms", payload.Kind, payload.TotalMS)
	if payload.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, payload.Path)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	diag.ReportInfo(forcedReporter{bag}, diag.ObsTimings, source.NoPos, msg).WithNote(source.NoPos, string(data)).Emit()
}

// forcedReporter reports into a bag past its limit.
type forcedReporter struct {
	bag *diag.Bag
}

func (r forcedReporter) Report(d diag.Diagnostic) {
	forceAdd(r.bag, d)
}

// forceAdd adds d even when the bag is full.
func forceAdd(bag *diag.Bag, d diag.Diagnostic) {
	if bag.Add(d) {
		return
	}
	overflow := diag.NewBag(1)
	overflow.Add(d)
	bag.Merge(overflow)
}
