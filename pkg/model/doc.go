// Package model implements the stock-and-flow graph engine.
//
// A Model owns five kinds of node: Constants hold fixed values, Levels
// accumulate, Rates move quantity between a source and a sink, Auxiliaries
// compute intermediate values, and SourceSinks stand for the world outside
// the model. Callers refer to nodes through typed handles (LevelID, RateID,
// ...) so that, for example, only Rates and Auxiliaries can be given a
// formula.
//
// A Model starts out changeable. Lock validates the graph, freezes it and
// returns a Simulation which advances all values one round at a time:
//
//	m := model.New(model.WithName("bathtub"))
//	water, _ := m.CreateLevelNode("water", 10)
//	tap, _ := m.CreateConstantNode("tap", 2)
//	fill, _ := m.CreateRateNode("fill")
//	outside, _ := m.CreateSourceSinkNode()
//	m.AddFlowFromSourceSinkToRate(outside, fill)
//	m.AddFlowFromRateToLevel(fill, water)
//	m.SetFormula(fill, tap.Leaf())
//
//	sim, err := m.Lock()
//	if err != nil {
//		return err
//	}
//	sim.Run(5) // water is now 20
package model
