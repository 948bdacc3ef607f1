package compiler

// Document is the typed form of a machine definition file. Keys follow the
// mapstructure tags; unknown keys are rejected.
type Document struct {
	Name        string          `mapstructure:"name" validate:"required"`
	Flags       []FlagDoc       `mapstructure:"flags" validate:"dive"`
	States      []StateDoc      `mapstructure:"states" validate:"dive"`
	Inputs      []SymbolDoc     `mapstructure:"inputs" validate:"dive"`
	Outputs     []SymbolDoc     `mapstructure:"outputs" validate:"dive"`
	Transitions []TransitionDoc `mapstructure:"transitions" validate:"required,min=1,dive"`
}

// FlagDoc declares one flag of a composite machine.
type FlagDoc struct {
	Name       string   `mapstructure:"name" validate:"required"`
	Values     []string `mapstructure:"values" validate:"min=2,unique"`
	Initial    string   `mapstructure:"initial" validate:"required"`
	Serialized string   `mapstructure:"serialized"`
}

// StateDoc declares one state of an atomic machine.
type StateDoc struct {
	Name       string `mapstructure:"name" validate:"required"`
	Initial    bool   `mapstructure:"initial"`
	Serialized string `mapstructure:"serialized"`
}

// SymbolDoc declares an input or an output and its parameter names.
type SymbolDoc struct {
	Name   string   `mapstructure:"name" validate:"required"`
	Params []string `mapstructure:"params" validate:"unique"`
}

// TransitionDoc declares one transition. From and To are flag assignments,
// or {state: Name} for atomic machines.
type TransitionDoc struct {
	From    map[string]string `mapstructure:"from" validate:"required,min=1"`
	Input   string            `mapstructure:"input" validate:"required"`
	To      map[string]string `mapstructure:"to" validate:"required,min=1"`
	Outputs []string          `mapstructure:"outputs"`
	Collect string            `mapstructure:"collect" validate:"omitempty,oneof=list last first none"`
}
