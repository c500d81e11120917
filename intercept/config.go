package intercept

// CallConfig selects which aspects of a call are logged.
type CallConfig struct {
	// Description is an optional human label attached to every record.
	Description string `yaml:"description" json:"description"`

	// LogParams enables the parameter record.
	LogParams bool `yaml:"logParams" json:"logParams"`

	// LogResponse enables logging the result on success.
	LogResponse bool `yaml:"logResponse" json:"logResponse"`

	// LogExecutionTime enables elapsedMs on success and failure records.
	LogExecutionTime bool `yaml:"logExecutionTime" json:"logExecutionTime"`
}

// DefaultCallConfig logs everything with an empty description.
func DefaultCallConfig() CallConfig {
	return CallConfig{
		LogParams:        true,
		LogResponse:      true,
		LogExecutionTime: true,
	}
}

// Resolve returns the operation's config when it declares one, else the
// type's config, else DefaultCallConfig. The two levels are never merged.
func Resolve(op OperationMeta, typ TypeMeta) CallConfig {
	switch {
	case op.Config != nil:
		return *op.Config
	case typ.Config != nil:
		return *typ.Config
	default:
		return DefaultCallConfig()
	}
}

// Source tags where a parameter was bound from.
type Source string

const (
	SourceNone   Source = ""
	SourcePath   Source = "path"
	SourceBody   Source = "body"
	SourceQuery  Source = "query"
	SourceHeader Source = "header"
)

// Param is one declared parameter of an operation.
type Param struct {
	Name   string
	Source Source
}

// LogName is the key used for the parameter in records: the declared name,
// prefixed with its source tag when one is set ("path:id").
func (p Param) LogName() string {
	if p.Source == SourceNone {
		return p.Name
	}
	return string(p.Source) + ":" + p.Name
}

// OperationMeta describes a callable unit.
type OperationMeta struct {
	// Name of the operation, e.g. "Create".
	Name string

	// Params are the declared parameters, in argument order.
	Params []Param

	// Config overrides the type-level config when non-nil.
	Config *CallConfig

	// Breaker names the circuit breaker guarding the operation, if any.
	Breaker string
}

// TypeMeta describes the type enclosing an operation.
type TypeMeta struct {
	Name   string
	Config *CallConfig
}

// Configure returns a pointer to c, for use in metadata literals.
func Configure(c CallConfig) *CallConfig {
	return &c
}
