package milp

import "github.com/kilianp07/prosumer/core/factory"

var solverRegistry = factory.NewRegistry[Solver]("solver")

func init() {
	_ = RegisterSolver("branch_and_bound", func(conf map[string]any) (Solver, error) {
		var o Options
		if err := factory.Decode(conf, &o); err != nil {
			return nil, err
		}
		return BranchAndBound{Options: o}, nil
	})
	_ = RegisterSolver("relaxation", func(conf map[string]any) (Solver, error) {
		var o Options
		if err := factory.Decode(conf, &o); err != nil {
			return nil, err
		}
		return Relaxation{Options: o}, nil
	})
}

// RegisterSolver adds a solver factory identified by name.
func RegisterSolver(name string, f factory.Factory[Solver]) error {
	return solverRegistry.Register(name, f)
}

// NewSolver builds the solver described by cfg. An empty type selects
// branch and bound.
func NewSolver(cfg factory.ModuleConfig) (Solver, error) {
	if cfg.Type == "" {
		cfg.Type = "branch_and_bound"
	}
	return solverRegistry.Create(cfg)
}

// SolverNames lists the registered solvers.
func SolverNames() []string { return solverRegistry.Names() }
