package driver

import (
	"encoding/json"
	"fmt"

	"monogen/internal/diag"
	"monogen/internal/observ"
	"monogen/internal/source"
)

type timingPayload struct {
	Kind   string `json:"kind"`
	Path   string `json:"path,omitempty"`
	Report observ.Report
}

type timingJSON struct {
	Kind    string               `json:"kind"`
	Path    string               `json:"path,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// appendTimingDiagnostic adds the timings as an info diagnostic whose note
// carries the JSON form. It bypasses the bag limit.
func appendTimingDiagnostic(bag *diag.Bag, payload timingPayload) {
	if bag == nil {
		return
	}
	if payload.Kind == "" {
		payload.Kind = "pipeline"
	}
	msg := fmt.Sprintf("timings (%s): total %.2f ms", payload.Kind, payload.Report.TotalMS)
	if payload.Path != "" {
		msg = fmt.Sprintf("%s in %s", msg, payload.Path)
	}

	data, err := json.Marshal(timingJSON{
		Kind:    payload.Kind,
		Path:    payload.Path,
		TotalMS: payload.Report.TotalMS,
		Phases:  payload.Report.Phases,
	})
	if err != nil {
		return
	}

	entry := diag.Diagnostic{
		Severity: diag.SevInfo,
		Code:     diag.ObsTimings,
		Message:  msg,
		Primary:  source.Span{},
		Notes: []diag.Note{
			{Span: source.Span{}, Msg: string(data)},
		},
	}

	if bag.Add(entry) {
		return
	}
	overflow := diag.NewBag(0)
	overflow.Add(entry)
	bag.Merge(overflow)
}
