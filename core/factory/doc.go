// Package factory provides a small generic registry used to instantiate modules
// from configuration. Modules are defined by a type string and a map of raw
// settings. Factories decode the settings into typed structs and return the
// concrete implementation.
//
// Solvers, metrics sinks and run stores are all built through a Registry:
//
//	reg := factory.NewRegistry[milp.Solver]("solver")
//	reg.Register("branch_and_bound", func(conf map[string]any) (milp.Solver, error) {
//	    var o milp.Options
//	    if err := factory.Decode(conf, &o); err != nil {
//	        return nil, err
//	    }
//	    return milp.BranchAndBound{Options: o}, nil
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "branch_and_bound"})
package factory
