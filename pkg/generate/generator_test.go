package generate

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/loomml/loom/pkg/model"
	"github.com/loomml/loom/pkg/ops"
	"github.com/loomml/loom/pkg/tensor"
	"github.com/loomml/loom/pkg/text"
)

// buildCycleModel makes a toy language model over a 5-token vocabulary
// that always predicts (token + 1) mod 5. Looking up each input token's
// row in a constant table produces [1, seq, vocab] logits.
func buildCycleModel(t *testing.T, extraInputs ...string) *model.Model {
	t.Helper()
	const vocab = 5

	table := tensor.Zeros[float32]([]int{vocab, vocab})
	for i := 0; i < vocab; i++ {
		table.Set(1, i, (i+1)%vocab)
	}

	b := model.NewBuilder()
	tableID := b.AddConstant(table)
	inputIDs := b.AddInput("input_ids")
	for _, name := range extraInputs {
		b.AddInput(name)
	}
	logits := b.AddOp(ops.Gather{Axis: 0}, tableID, inputIDs)
	b.MarkOutput("logits", logits)
	return b.Finish()
}

func TestGenerate(t *testing.T) {
	m := buildCycleModel(t)

	got, err := Generate(context.Background(), m, []text.TokenID{0}, Config{MaxTokens: 3})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if diff := cmp.Diff([]text.TokenID{1, 2, 3}, got); diff != "" {
		t.Errorf("tokens (-want +got):\n%s", diff)
	}
}

func TestGenerateStopsOnStopToken(t *testing.T) {
	m := buildCycleModel(t)

	got, err := Generate(context.Background(), m, []text.TokenID{2}, Config{
		MaxTokens:  10,
		StopTokens: []text.TokenID{4},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	// 2 -> 3 -> 4, and the stop token itself is not emitted.
	if diff := cmp.Diff([]text.TokenID{3}, got); diff != "" {
		t.Errorf("tokens (-want +got):\n%s", diff)
	}
}

func TestGenerateFillsDeclaredAuxiliaryInputs(t *testing.T) {
	m := buildCycleModel(t, "attention_mask", "position_ids")

	got, err := Generate(context.Background(), m, []text.TokenID{0, 1}, Config{MaxTokens: 2})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if diff := cmp.Diff([]text.TokenID{2, 3}, got); diff != "" {
		t.Errorf("tokens (-want +got):\n%s", diff)
	}
}

func TestGeneratorNext(t *testing.T) {
	m := buildCycleModel(t)

	g, err := NewGenerator(m, []text.TokenID{0}, Config{MaxTokens: 2})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	token, ok, err := g.Next(context.Background())
	if err != nil || !ok || token != 1 {
		t.Fatalf("first Next = (%d, %v, %v), want (1, true, nil)", token, ok, err)
	}
	token, ok, err = g.Next(context.Background())
	if err != nil || !ok || token != 2 {
		t.Fatalf("second Next = (%d, %v, %v), want (2, true, nil)", token, ok, err)
	}
	if _, ok, err := g.Next(context.Background()); ok || err != nil {
		t.Fatalf("third Next should report the budget is spent, got ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff([]text.TokenID{1, 2}, g.Tokens()); diff != "" {
		t.Errorf("Tokens (-want +got):\n%s", diff)
	}
}

func TestNewGeneratorValidation(t *testing.T) {
	m := buildCycleModel(t)

	if _, err := NewGenerator(m, nil, Config{MaxTokens: 1}); err == nil {
		t.Error("expected an error for an empty prompt")
	}

	b := model.NewBuilder()
	b.AddInput("tokens")
	noLogits := b.Finish()
	if _, err := NewGenerator(noLogits, []text.TokenID{0}, Config{MaxTokens: 1}); err == nil {
		t.Error("expected an error for a model without the expected inputs and outputs")
	}
}
