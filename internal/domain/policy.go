package domain

// ErrorPolicy defines how a parse reacts to malformed lines
type ErrorPolicy string

const (
	// PolicyFailFast stops at the first malformed line
	PolicyFailFast ErrorPolicy = "fail-fast"

	// PolicyCollect keeps going and reports every malformed line
	PolicyCollect ErrorPolicy = "collect"
)

// IsValid checks if the policy is a known value
func (p ErrorPolicy) IsValid() bool {
	switch p {
	case PolicyFailFast, PolicyCollect:
		return true
	}
	return false
}

// OutputFormat selects how results are printed
type OutputFormat string

const (
	OutputTable OutputFormat = "table"
	OutputJSON  OutputFormat = "json"
	OutputYAML  OutputFormat = "yaml"
)

// IsValid checks if the output format is a known value
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputTable, OutputJSON, OutputYAML:
		return true
	}
	return false
}
