// Package types defines the table schemas, dataset contracts, error kinds,
// and run configuration shared by the strata pipeline stages.
//
// Every conformed (silver) and derived (gold) table is a Table of typed
// records. Stages that do not care about the concrete record type (the
// layer store, the validation gate, the catalog publisher) consume the
// type-erased Dataset view instead.
package types
