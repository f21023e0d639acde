package indicator

import (
	"context"
	"fmt"

	"github.com/arijanluiken/tickscript/internal/tickscript"
	"github.com/arijanluiken/tickscript/pkg/market"
)

// ScriptIndicator runs a compiled TickScript program. The last plot is the
// indicator value.
type ScriptIndicator struct {
	name    string
	program *tickscript.Program
	params  map[string]interface{}
}

// NewScriptIndicator wraps a compiled program. An empty name falls back to
// the study title.
func NewScriptIndicator(name string, program *tickscript.Program, params map[string]interface{}) (*ScriptIndicator, error) {
	if name == "" {
		name = program.Study.Title
	}
	if name == "" {
		return nil, fmt.Errorf("script has no name and no study title")
	}

	return &ScriptIndicator{name: name, program: program, params: params}, nil
}

// CompileScript compiles source with engine and wraps it as an indicator.
func CompileScript(engine *tickscript.Engine, name, source string, params map[string]interface{}) (*ScriptIndicator, error) {
	program, err := engine.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("failed to compile script: %w", err)
	}
	return NewScriptIndicator(name, program, params)
}

// Name implements Indicator.
func (s *ScriptIndicator) Name() string {
	return s.name
}

// Study returns the script's study header.
func (s *ScriptIndicator) Study() tickscript.StudyInfo {
	return s.program.Study
}

// Calculate implements Indicator.
func (s *ScriptIndicator) Calculate(ctx context.Context, bars []market.Bar) ([]float64, error) {
	result, err := s.program.Run(ctx, bars, s.params)
	if err != nil {
		return nil, err
	}
	if len(result.Plots) == 0 {
		return nil, fmt.Errorf("script %s has no plot", s.name)
	}
	return result.Series, nil
}
