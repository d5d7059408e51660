package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// ParamSet is a learned CPG parameter set in its raw tensor form, as
// produced by the outer learning loop. Nodes is indexed [node][param]
// with the column order (frequency, amplitude, phase bias, amplitude
// ramp, stiffness, damping). Edges is indexed
// [source][target][coupling][2] with the innermost pair being
// (weight, phase bias); zero-weight entries denote absent couplings.
type ParamSet struct {
	VersionedRecord
	ID    string          `json:"id"`
	Nodes [][]float64     `json:"nodes"`
	Edges [][][][]float64 `json:"edges"`
}

type RunSummary struct {
	VersionedRecord
	ID              string  `json:"id"`
	ParamSetID      string  `json:"param_set_id"`
	Segments        int     `json:"segments"`
	Steps           int     `json:"steps"`
	Dt              float64 `json:"dt"`
	Score           float64 `json:"score"`
	SaturatedSteps  int     `json:"saturated_steps"`
	MeanCableLength float64 `json:"mean_cable_length"`
	CableLengthStd  float64 `json:"cable_length_std"`
	CreatedUnix     int64   `json:"created_unix"`
}

// TraceStep is one recorded controller step: oscillator state after the
// advance, cable lengths after the dispatch reached the subject, and
// how many setpoints saturated against their length bounds.
type TraceStep struct {
	Time       float64   `json:"time"`
	Phases     []float64 `json:"phases"`
	Amplitudes []float64 `json:"amplitudes"`
	Lengths    []float64 `json:"lengths"`
	Saturated  int       `json:"saturated"`
}

type RunTrace struct {
	VersionedRecord
	RunID string      `json:"run_id"`
	Steps []TraceStep `json:"steps"`
}
