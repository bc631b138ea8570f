package document

// OutputType discriminates the tagged union of execution outputs.
type OutputType string

const (
	// OutputTypeStream is plain text written to stdout or stderr.
	OutputTypeStream OutputType = "stream"
	// OutputTypeRich is a mime-type keyed payload map, optionally carrying
	// the kernel's execution counter.
	OutputTypeRich OutputType = "rich"
	// OutputTypeError is a captured kernel exception.
	OutputTypeError OutputType = "error"
)

// Output is one element of a block's output list. Exactly one variant's
// fields are populated, selected by Type. Arrival order is preserved.
type Output struct {
	Type OutputType `yaml:"type"`

	// Stream variant.
	Channel string `yaml:"channel,omitempty"`
	Text    string `yaml:"text,omitempty"`

	// Rich variant.
	Data           map[string]any `yaml:"data,omitempty"`
	ExecutionCount *int           `yaml:"executionCount,omitempty"`

	// Error variant.
	ErrorName    string   `yaml:"errorName,omitempty"`
	ErrorMessage string   `yaml:"errorMessage,omitempty"`
	Traceback    []string `yaml:"traceback,omitempty"`
}

// NewStreamOutput builds a stream output for the given channel ("stdout" or
// "stderr").
func NewStreamOutput(channel, text string) Output {
	return Output{Type: OutputTypeStream, Channel: channel, Text: text}
}

// NewRichOutput builds a rich output from a mime-type keyed payload map.
func NewRichOutput(data map[string]any, executionCount *int) Output {
	return Output{Type: OutputTypeRich, Data: data, ExecutionCount: executionCount}
}

// NewErrorOutput builds an error output from a captured kernel exception.
func NewErrorOutput(name, message string, traceback []string) Output {
	return Output{Type: OutputTypeError, ErrorName: name, ErrorMessage: message, Traceback: traceback}
}

// IsError reports whether this output is the error variant.
func (o Output) IsError() bool {
	return o.Type == OutputTypeError
}

// Clone returns a deep copy of the output.
func (o Output) Clone() Output {
	out := o
	if o.Data != nil {
		out.Data = make(map[string]any, len(o.Data))
		for k, v := range o.Data {
			out.Data[k] = v
		}
	}
	if o.Traceback != nil {
		out.Traceback = append([]string(nil), o.Traceback...)
	}
	if o.ExecutionCount != nil {
		count := *o.ExecutionCount
		out.ExecutionCount = &count
	}
	return out
}
