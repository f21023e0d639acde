package indicator

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/arijanluiken/tickscript/internal/tickscript"
)

func TestScriptIndicator(t *testing.T) {
	engine := tickscript.NewEngine(zerolog.New(nil), tickscript.Options{})
	source := `study("Fast Average")
length = input("Length", 2)
plot(sma(close(), length))
`

	ind, err := CompileScript(engine, "", source, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ind.Name() != "Fast Average" {
		t.Errorf("expected name from study title, got %s", ind.Name())
	}
	if ind.Study().Title != "Fast Average" {
		t.Errorf("expected study title, got %s", ind.Study().Title)
	}

	series, err := ind.Calculate(context.Background(), testBars(2, 4, 6))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !sameSeries(series, []float64{math.NaN(), 3, 5}) {
		t.Errorf("unexpected series %v", series)
	}

	withParams, err := CompileScript(engine, "Slow Average", source, map[string]interface{}{"Length": 3})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if withParams.Name() != "Slow Average" {
		t.Errorf("expected explicit name, got %s", withParams.Name())
	}
	series, err = withParams.Calculate(context.Background(), testBars(2, 4, 6))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if series[2] != 4 {
		t.Errorf("expected 3-period SMA of 4, got %v", series[2])
	}
}

func TestScriptIndicatorErrors(t *testing.T) {
	engine := tickscript.NewEngine(zerolog.New(nil), tickscript.Options{})

	if _, err := CompileScript(engine, "", "plot(close())", nil); err == nil {
		t.Error("expected error for script without name or title")
	}

	if _, err := CompileScript(engine, "x", "study(", nil); !errors.Is(err, tickscript.ErrSyntax) {
		t.Errorf("expected wrapped syntax error, got %v", err)
	}

	noPlot, err := CompileScript(engine, "quiet", "x = 1", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := noPlot.Calculate(context.Background(), testBars(1)); err == nil {
		t.Error("expected error for script without plot")
	}

	failing, err := CompileScript(engine, "failing", "plot(nope)", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := failing.Calculate(context.Background(), testBars(1)); !errors.Is(err, tickscript.ErrUndefinedVariable) {
		t.Errorf("expected undefined variable, got %v", err)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a_closes.tick":   "study(\"Closes\")\nplot(close())\n",
		"b_untitled.tick": "plot(open())\n",
		"c_momentum.star": momentumScript,
		"notes.txt":       "not a script",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.tick"), 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}

	engine := tickscript.NewEngine(zerolog.New(nil), tickscript.Options{})
	loaded, err := LoadDir(zerolog.New(nil), engine, dir, map[string]interface{}{"period": 1})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	expected := []string{"Closes", "b_untitled", "Momentum"}
	if len(loaded) != len(expected) {
		t.Fatalf("expected %d indicators, got %d", len(expected), len(loaded))
	}
	for i, name := range expected {
		if loaded[i].Name() != name {
			t.Errorf("indicator %d: expected %s, got %s", i, name, loaded[i].Name())
		}
	}

	manager := NewManager(zerolog.New(nil))
	for _, ind := range loaded {
		if err := manager.Add(ind); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}
	results, err := manager.CalculateAll(context.Background(), testBars(1, 2, 4))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !sameSeries(results["Momentum"], []float64{math.NaN(), 1, 2}) {
		t.Errorf("unexpected momentum %v", results["Momentum"])
	}
}

func TestLoadDirErrors(t *testing.T) {
	engine := tickscript.NewEngine(zerolog.New(nil), tickscript.Options{})

	if _, err := LoadDir(zerolog.New(nil), engine, filepath.Join(t.TempDir(), "missing"), nil); err == nil {
		t.Error("expected error for missing directory")
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.tick"), []byte("study("), 0o644); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	if _, err := LoadDir(zerolog.New(nil), engine, dir, nil); !errors.Is(err, tickscript.ErrSyntax) {
		t.Errorf("expected syntax error, got %v", err)
	}
}
