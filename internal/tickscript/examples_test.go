package tickscript

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"
)

func TestExamplesRun(t *testing.T) {
	engine := NewEngine(zerolog.New(nil), Options{CacheSize: 32})
	bars := syntheticBars(120)

	for _, ex := range Examples() {
		t.Run(ex.Name, func(t *testing.T) {
			if err := engine.Validate(ex.Source); err != nil {
				t.Fatalf("expected example to validate, got %v", err)
			}

			result, err := engine.Run(context.Background(), ex.Source, bars, nil)
			if err != nil {
				t.Fatalf("expected example to run, got %v", err)
			}
			if len(result.Series) != len(bars) {
				t.Fatalf("expected %d values, got %d", len(bars), len(result.Series))
			}
			if result.Study.Title != ex.Name {
				t.Errorf("expected study title %q, got %q", ex.Name, result.Study.Title)
			}

			// every example settles after its warm-up
			last := result.Series[len(result.Series)-1]
			if math.IsNaN(last) || math.IsInf(last, 0) {
				t.Errorf("expected a finite final value, got %v", last)
			}
		})
	}
}

func TestExamplesAcceptParameters(t *testing.T) {
	source, ok := LookupExample("Simple Moving Average")
	if !ok {
		t.Fatal("expected Simple Moving Average example")
	}

	program, err := Compile(source)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	bars := syntheticBars(30)
	result, err := program.Run(context.Background(), bars, map[string]interface{}{"Length": 5})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if math.IsNaN(result.Series[4]) {
		t.Error("expected a value once 5 bars are available")
	}
	if !math.IsNaN(result.Series[3]) {
		t.Error("expected NaN before 5 bars are available")
	}
}

func TestLookupExample(t *testing.T) {
	if _, ok := LookupExample("MACD"); !ok {
		t.Error("expected MACD example")
	}
	if _, ok := LookupExample("nope"); ok {
		t.Error("expected unknown example to be missing")
	}

	all := Examples()
	if len(all) != 15 {
		t.Errorf("expected 15 examples, got %d", len(all))
	}

	all[0].Name = "changed"
	if Examples()[0].Name == "changed" {
		t.Error("expected Examples to return a copy")
	}
}
