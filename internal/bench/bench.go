/* ---------------------------------------------------------------------------
** This software is in the public domain, furnished "as is", without technical
** support, and with no warranty, express or implied, as to its usefulness for
** any purpose.
** -------------------------------------------------------------------------*/

// Package bench profiles models over thread counts and backends, as described
// by a YAML workload file.
package bench

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/cpuid/v2"
	"gopkg.in/yaml.v3"

	"github.com/mpromonet/ishotdog/internal/backend"
	"github.com/mpromonet/ishotdog/internal/inference"
	"github.com/mpromonet/ishotdog/internal/model"
	"github.com/mpromonet/ishotdog/internal/tensor"
)

const (
	DefaultLoops      = 10
	DefaultOutputFile = "results.json"
)

type Workload struct {
	Name    string            `yaml:"name"`
	Model   string            `yaml:"model"`
	Threads []int             `yaml:"threads"`
	Options []backend.Backend `yaml:"options"`
	Loops   int               `yaml:"loops"`
}

type Global struct {
	OutputFile string `yaml:"outputfile"`
}

// Plan is the content of a workload file.
type Plan struct {
	Global    Global     `yaml:"global"`
	Workloads []Workload `yaml:"workloads"`
}

func LoadPlan(path string) (Plan, error) {
	var plan Plan
	data, err := os.ReadFile(path)
	if err != nil {
		return plan, err
	}
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return plan, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(plan.Workloads) == 0 {
		return plan, fmt.Errorf("no workloads in %s", path)
	}
	if plan.Global.OutputFile == "" {
		plan.Global.OutputFile = DefaultOutputFile
	}
	for i := range plan.Workloads {
		w := &plan.Workloads[i]
		if w.Model == "" {
			return plan, fmt.Errorf("workload %d: model option not found", i)
		}
		if w.Name == "" {
			w.Name = filepath.Base(w.Model)
		}
		if len(w.Threads) == 0 {
			w.Threads = []int{backend.DefaultThreads}
		}
		if len(w.Options) == 0 {
			w.Options = []backend.Backend{backend.CPU}
		}
		if w.Loops <= 0 {
			w.Loops = DefaultLoops
		}
	}
	return plan, nil
}

// Run is the profile of one backend and thread count. Times are in ms.
type Run struct {
	Type     string          `json:"type"`
	Backend  backend.Backend `json:"backend"`
	Threads  int             `json:"threads"`
	Loops    int             `json:"loops"`
	MeanTime float64         `json:"mean_time"`
	MinTime  float64         `json:"min_time"`
	MaxTime  float64         `json:"max_time"`
	Score    float32         `json:"score"`
}

type Host struct {
	CPU           string   `json:"cpu"`
	Vendor        string   `json:"vendor"`
	PhysicalCores int      `json:"physical_cores"`
	LogicalCores  int      `json:"logical_cores"`
	Features      []string `json:"features"`
}

func HostInfo() Host {
	return Host{
		CPU:           cpuid.CPU.BrandName,
		Vendor:        cpuid.CPU.VendorString,
		PhysicalCores: cpuid.CPU.PhysicalCores,
		LogicalCores:  cpuid.CPU.LogicalCores,
		Features:      cpuid.CPU.FeatureSet(),
	}
}

type Report struct {
	Host      Host             `json:"host"`
	Workloads map[string][]Run `json:"workloads"`
}

func (r Report) WriteFile(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Bench profiles workloads one combination at a time.
type Bench struct {
	Models  model.Source
	Runner  inference.Runner
	Verbose int
}

// RandomInput fills a tensor with reproducible values in [-1,1].
func RandomInput(seed int64) tensor.Buffer {
	rnd := rand.New(rand.NewSource(seed))
	buf := make(tensor.Buffer, tensor.Len)
	for i := range buf {
		buf[i] = rnd.Float32()*2 - 1
	}
	return buf
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Run executes every workload. Models are looked up by file name in Models.
// Combinations that fail are logged and left out.
func (b Bench) Run(plan Plan) Report {
	report := Report{Host: HostInfo(), Workloads: map[string][]Run{}}
	input := RandomInput(1)
	for _, w := range plan.Workloads {
		log.Printf("running workload %s", w.Name)
		runs := []Run{}
		artifact, err := b.Models.Open(filepath.Base(w.Model))
		if err != nil {
			log.Printf("workload %s: %v", w.Name, err)
			report.Workloads[w.Name] = runs
			continue
		}
		for _, threads := range w.Threads {
			for _, opt := range w.Options {
				flags, err := backend.FlagsFor(opt)
				if err != nil {
					log.Printf("workload %s: %v", w.Name, err)
					continue
				}
				cfg := backend.Selector{Threads: threads}.Build(flags)
				p, err := b.Runner.Profile(artifact.Bytes(), input, cfg, w.Loops)
				if err != nil {
					log.Printf("error executing %s on %s mode: %v", w.Name, opt, err)
					continue
				}
				runs = append(runs, Run{
					Type:     fmt.Sprintf("%s_%dThreads", opt, threads),
					Backend:  opt,
					Threads:  threads,
					Loops:    p.Loops,
					MeanTime: ms(p.Mean),
					MinTime:  ms(p.Min),
					MaxTime:  ms(p.Max),
					Score:    p.Score,
				})
				if b.Verbose > 0 {
					log.Printf("%s %s_%dThreads: %v", w.Name, opt, threads, p.Mean)
				}
			}
		}
		artifact.Close()
		report.Workloads[w.Name] = runs
	}
	return report
}
