// Package generate runs autoregressive language models: it feeds a growing
// token sequence through a model and greedily samples the next token from
// the logits until a stop token or the token budget is reached.
package generate

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/loomml/loom/pkg/graph"
	"github.com/loomml/loom/pkg/model"
	"github.com/loomml/loom/pkg/ops"
	"github.com/loomml/loom/pkg/tensor"
	"github.com/loomml/loom/pkg/text"
)

// Model input and output names the generator expects.
const (
	inputIDsName      = "input_ids"
	attentionMaskName = "attention_mask"
	positionIDsName   = "position_ids"
	logitsName        = "logits"
)

// Config bounds a generation run.
type Config struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int
	// StopTokens end generation when sampled; the stop token itself is not
	// emitted.
	StopTokens []text.TokenID
	// RunOptions are passed to each model run.
	RunOptions *graph.RunOptions
}

// Generator produces tokens one at a time from an autoregressive model.
//
// The model must have an "input_ids" input taking a [batch, sequence] int
// tensor and a "logits" output producing [batch, sequence, vocab] floats.
// If the model also declares "attention_mask" or "position_ids" inputs,
// the generator fills them in.
type Generator struct {
	model  *model.Model
	config Config

	hasAttentionMask bool
	hasPositionIDs   bool

	tokens    []text.TokenID
	promptLen int
	stop      map[text.TokenID]bool
}

// NewGenerator prepares a generation run starting from the prompt tokens.
func NewGenerator(m *model.Model, prompt []text.TokenID, config Config) (*Generator, error) {
	if _, ok := m.InputID(inputIDsName); !ok {
		return nil, fmt.Errorf("model has no %q input", inputIDsName)
	}
	if _, ok := m.OutputID(logitsName); !ok {
		return nil, fmt.Errorf("model has no %q output", logitsName)
	}
	if len(prompt) == 0 {
		return nil, fmt.Errorf("prompt is empty")
	}

	_, hasAttentionMask := m.InputID(attentionMaskName)
	_, hasPositionIDs := m.InputID(positionIDsName)

	stop := make(map[text.TokenID]bool, len(config.StopTokens))
	for _, id := range config.StopTokens {
		stop[id] = true
	}

	return &Generator{
		model:            m,
		config:           config,
		hasAttentionMask: hasAttentionMask,
		hasPositionIDs:   hasPositionIDs,
		tokens:           append([]text.TokenID(nil), prompt...),
		promptLen:        len(prompt),
		stop:             stop,
	}, nil
}

// Tokens returns the tokens generated so far, not including the prompt.
func (g *Generator) Tokens() []text.TokenID {
	return append([]text.TokenID(nil), g.tokens[g.promptLen:]...)
}

// Next runs the model for one step and returns the sampled token. It
// returns ok=false without an error when generation has finished, either
// because a stop token was sampled or the token budget is spent.
func (g *Generator) Next(ctx context.Context) (token text.TokenID, ok bool, err error) {
	if len(g.tokens)-g.promptLen >= g.config.MaxTokens {
		return 0, false, nil
	}

	seqLen := len(g.tokens)
	inputs := map[string]ops.Value{
		inputIDsName: tensor.FromData([]int{1, seqLen}, append([]int32(nil), g.tokens...)),
	}
	if g.hasAttentionMask {
		inputs[attentionMaskName] = tensor.Full([]int{1, seqLen}, int32(1))
	}
	if g.hasPositionIDs {
		positions := make([]int32, seqLen)
		for i := range positions {
			positions[i] = int32(i)
		}
		inputs[positionIDsName] = tensor.FromData([]int{1, seqLen}, positions)
	}

	outputs, err := g.model.Run(ctx, inputs, []string{logitsName}, g.config.RunOptions)
	if err != nil {
		return 0, false, fmt.Errorf("running model: %w", err)
	}

	next, err := sampleGreedy(outputs[0])
	if err != nil {
		return 0, false, err
	}
	if g.stop[next] {
		return 0, false, nil
	}
	g.tokens = append(g.tokens, next)
	return next, true, nil
}

// sampleGreedy picks the argmax over the final position's logits. The
// logits may have any rank; the last axis is the vocabulary.
func sampleGreedy(logits ops.Value) (text.TokenID, error) {
	t, ok := logits.(*tensor.Tensor[float32])
	if !ok {
		return 0, fmt.Errorf("logits output has type %T, want float tensor", logits)
	}
	shape := t.Shape()
	if len(shape) == 0 {
		return 0, fmt.Errorf("logits output is a scalar")
	}
	vocab := shape[len(shape)-1]
	if vocab == 0 || t.Len() == 0 {
		return 0, fmt.Errorf("logits output is empty")
	}

	data := t.Data()
	last := data[len(data)-vocab:]
	best := 0
	for i, v := range last {
		if v > last[best] {
			best = i
		}
	}
	return text.TokenID(best), nil
}

// Generate runs the model until a stop token or the token budget and
// returns the generated tokens, not including the prompt.
func Generate(ctx context.Context, m *model.Model, prompt []text.TokenID, config Config) ([]text.TokenID, error) {
	log := klog.FromContext(ctx)

	g, err := NewGenerator(m, prompt, config)
	if err != nil {
		return nil, err
	}
	for {
		token, ok, err := g.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		log.V(2).Info("generated token", "token", token, "position", len(g.tokens))
	}
	return g.Tokens(), nil
}
