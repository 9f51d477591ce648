/* ---------------------------------------------------------------------------
** This software is in the public domain, furnished "as is", without technical
** support, and with no warranty, express or implied, as to its usefulness for
** any purpose.
** -------------------------------------------------------------------------*/

package inference

import (
	"fmt"

	"github.com/mpromonet/ishotdog/internal/backend"
	"github.com/mpromonet/ishotdog/internal/model"
	"github.com/mpromonet/ishotdog/internal/tensor"
)

const (
	LabelHotDog    = "Is a HotDog!!"
	LabelNotHotDog = "Is not a hotdog :("

	DefaultThreshold float32 = 0.5
	DefaultModel             = "deepHotDog_quant.tflite"
)

// Classify returns LabelHotDog when score is strictly below threshold.
func Classify(score, threshold float32) string {
	if score < threshold {
		return LabelHotDog
	}
	return LabelNotHotDog
}

// Prediction is a classified model result.
type Prediction struct {
	Result
	Label string
}

// Pipeline chains encoder, selector and runner for one request.
type Pipeline struct {
	Models    model.Source
	ModelName string
	Encoder   tensor.Encoder
	Selector  backend.Selector
	Runner    Runner
	Threshold float32
}

func (p *Pipeline) threshold() float32 {
	if p.Threshold <= 0 {
		return DefaultThreshold
	}
	return p.Threshold
}

// Classify encodes img, opens the model, runs it with the configuration
// built from flags and labels the score. The model is opened on every call.
func (p *Pipeline) Classify(img *tensor.Bitmap, flags backend.Flags) (Prediction, error) {
	input, err := p.Encoder.Encode(img)
	if err != nil {
		return Prediction{}, Wrap(InvalidImage, err)
	}
	cfg := p.Selector.Build(flags)

	if p.Models == nil {
		return Prediction{}, Errorf(ModelLoadError, "no model source")
	}
	name := p.ModelName
	if name == "" {
		name = DefaultModel
	}
	artifact, err := p.Models.Open(name)
	if err != nil {
		return Prediction{}, Wrap(ModelLoadError, fmt.Errorf("open %s: %w", name, err))
	}
	defer artifact.Close()

	res, err := p.Runner.Run(artifact.Bytes(), input, cfg)
	if err != nil {
		return Prediction{}, err
	}
	return Prediction{Result: res, Label: Classify(res.Score, p.threshold())}, nil
}
