// Package modelfile reads and writes stock-and-flow models as YAML documents.
//
// A model file lists nodes per kind, each with a numeric id that is unique
// within its kind. Formulas reference nodes with the formula package syntax
// ("CN(1) * LN(2)") and rate flow ends are written as LN(<id>) or SS(<id>):
//
//	name: bathtub
//	constants:
//	  - {id: 1, name: tap, value: 2}
//	levels:
//	  - {id: 1, name: water, start: 10}
//	sourceSinks:
//	  - {id: 1}
//	rates:
//	  - {id: 1, name: fill, formula: "CN(1)", from: "SS(1)", to: "LN(1)"}
//
// Errors found while building or validating a loaded model are reported as
// *PositionError pointing at the entry that caused them.
package modelfile

// File is the on-disk form of a model
type File struct {
	Name        string            `yaml:"name,omitempty" validate:"omitempty,nodename"`
	Constants   []ConstantEntry   `yaml:"constants,omitempty" validate:"unique=ID,dive"`
	Levels      []LevelEntry      `yaml:"levels,omitempty" validate:"unique=ID,dive"`
	SourceSinks []SourceSinkEntry `yaml:"sourceSinks,omitempty" validate:"unique=ID,dive"`
	Auxiliaries []AuxiliaryEntry  `yaml:"auxiliaries,omitempty" validate:"unique=ID,dive"`
	Rates       []RateEntry       `yaml:"rates,omitempty" validate:"unique=ID,dive"`
}

// ConstantEntry describes a Constant node
type ConstantEntry struct {
	ID    int     `yaml:"id" validate:"min=1"`
	Name  string  `yaml:"name" validate:"nodename"`
	Value float64 `yaml:"value" validate:"finite"`
}

// LevelEntry describes a Level node
type LevelEntry struct {
	ID    int     `yaml:"id" validate:"min=1"`
	Name  string  `yaml:"name" validate:"nodename"`
	Start float64 `yaml:"start" validate:"finite"`
}

// SourceSinkEntry describes a SourceSink node
type SourceSinkEntry struct {
	ID int `yaml:"id" validate:"min=1"`
}

// AuxiliaryEntry describes an Auxiliary node. An empty formula is allowed
// while editing; validation reports it.
type AuxiliaryEntry struct {
	ID      int    `yaml:"id" validate:"min=1"`
	Name    string `yaml:"name" validate:"nodename"`
	Formula string `yaml:"formula,omitempty"`
}

// RateEntry describes a Rate node and its flow ends
type RateEntry struct {
	ID      int    `yaml:"id" validate:"min=1"`
	Name    string `yaml:"name" validate:"nodename"`
	Formula string `yaml:"formula,omitempty"`
	From    string `yaml:"from,omitempty"`
	To      string `yaml:"to,omitempty"`
}
