/* ---------------------------------------------------------------------------
** This software is in the public domain, furnished "as is", without technical
** support, and with no warranty, express or implied, as to its usefulness for
** any purpose.
** -------------------------------------------------------------------------*/

package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/mpromonet/ishotdog/internal/backend"
	"github.com/mpromonet/ishotdog/internal/bench"
	"github.com/mpromonet/ishotdog/internal/config"
	"github.com/mpromonet/ishotdog/internal/dispatch"
	"github.com/mpromonet/ishotdog/internal/engine/onnx"
	"github.com/mpromonet/ishotdog/internal/engine/tflite"
	"github.com/mpromonet/ishotdog/internal/imageio"
	"github.com/mpromonet/ishotdog/internal/inference"
	"github.com/mpromonet/ishotdog/internal/model"
	"github.com/mpromonet/ishotdog/internal/server"
)

var (
	configPath    = flag.String("config", "", "path to YAML config file")
	engineName    = flag.String("engine", "", "inference engine: tflite or onnx")
	modelDir      = flag.String("models", "", "directory holding the model files")
	modelName     = flag.String("model", "", "model file name")
	threads       = flag.Int("threads", 0, "CPU threads")
	threshold     = flag.Float64("threshold", 0, "hot dog score threshold")
	interpolation = flag.String("interpolation", "", "resize interpolation: nearest or bilinear")
	addr          = flag.String("addr", "", "HTTP listen address")
	staticDir     = flag.String("static", "", "static content directory")
	singleFlight  = flag.Bool("singleflight", false, "share the running inference between concurrent requests")
	verbose       = flag.Int("verbose", 0, "verbosity level")

	useAccelerator = flag.Bool("accelerator", false, "use the hardware accelerator as primary backend")
	useGPU         = flag.Bool("gpu", false, "attach the GPU delegate")
	useDelegate    = flag.Bool("delegate", false, "attach the second hardware delegate")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] serve | classify <image> | bench <workloads.yaml>\n", os.Args[0])
	flag.PrintDefaults()
}

// loadConfig applies the command line over the config file.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return cfg, err
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "engine":
			cfg.Engine = *engineName
		case "models":
			cfg.ModelDir = *modelDir
		case "model":
			cfg.Model = *modelName
		case "threads":
			cfg.Threads = *threads
		case "threshold":
			cfg.Threshold = float32(*threshold)
		case "interpolation":
			cfg.Interpolation = *interpolation
		case "addr":
			cfg.Addr = *addr
		case "static":
			cfg.StaticDir = *staticDir
		case "singleflight":
			cfg.SingleFlight = *singleFlight
		case "verbose":
			cfg.Verbose = *verbose
		}
	})
	return cfg, cfg.Validate()
}

func newEngine(cfg config.Config) inference.Engine {
	if cfg.Engine == config.EngineONNX {
		return onnx.Engine{LibraryPath: cfg.ONNX.Library, InputName: cfg.ONNX.Input, OutputName: cfg.ONNX.Output}
	}
	return tflite.Engine{Verbose: cfg.Verbose}
}

func newBridge(cfg config.Config) *dispatch.Bridge {
	return &dispatch.Bridge{
		Classifier: &inference.Pipeline{
			Models:    model.Store{Dir: cfg.ModelDir},
			ModelName: cfg.Model,
			Encoder:   cfg.Encoder(),
			Selector:  backend.Selector{Threads: cfg.Threads},
			Runner:    inference.Runner{Engine: newEngine(cfg), Verbose: cfg.Verbose},
			Threshold: cfg.Threshold,
		},
		SingleFlight: cfg.SingleFlight,
		Verbose:      cfg.Verbose,
	}
}

func classify(cfg config.Config, path string) int {
	img, err := imageio.DecodeFile(path)
	if err != nil {
		log.Printf("cannot decode %s: %v", path, err)
		return 1
	}
	flags := backend.Flags{Accelerator: *useAccelerator, GPU: *useGPU, Delegate: *useDelegate}

	sink, result := dispatch.OneShot()
	display := dispatch.SinkFunc(func(m dispatch.Message) { fmt.Println(m.Text) })
	newBridge(cfg).Dispatch(img, flags, dispatch.Multi(display, sink))
	if msg := <-result; msg.Failed() {
		return 1
	}
	return 0
}

func serve(cfg config.Config) int {
	if cfg.Verbose == 0 {
		gin.SetMode(gin.ReleaseMode)
	}
	bridge := newBridge(cfg)
	display := dispatch.NewDisplay(cfg.Verbose)
	srv := &server.Server{
		Bridge:    bridge,
		Display:   display,
		Decoder:   imageio.Decoder{},
		StaticDir: cfg.StaticDir,
		Verbose:   cfg.Verbose,
	}
	httpServer := &http.Server{Addr: cfg.Addr, Handler: srv.Router()}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		httpServer.Close()
	}()

	log.Printf("serving %s/%s with %s on %s", cfg.ModelDir, cfg.Model, cfg.Engine, cfg.Addr)
	err := httpServer.ListenAndServe()
	bridge.Wait()
	display.Close()
	if err != nil && err != http.ErrServerClosed {
		log.Println("Error:", err.Error())
		return 1
	}
	return 0
}

func runBench(cfg config.Config, path string) int {
	plan, err := bench.LoadPlan(path)
	if err != nil {
		log.Println(err)
		return 1
	}
	b := bench.Bench{
		Models:  model.Store{Dir: cfg.ModelDir},
		Runner:  inference.Runner{Engine: newEngine(cfg), Verbose: cfg.Verbose},
		Verbose: cfg.Verbose,
	}
	report := b.Run(plan)
	if err := report.WriteFile(plan.Global.OutputFile); err != nil {
		log.Println(err)
		return 1
	}
	log.Printf("results written to %s", plan.Global.OutputFile)
	return 0
}

func main() {
	flag.Usage = usage
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}

	args := flag.Args()
	cmd := "serve"
	if len(args) > 0 {
		cmd = args[0]
	}
	switch {
	case cmd == "serve":
		os.Exit(serve(cfg))
	case cmd == "classify" && len(args) == 2:
		os.Exit(classify(cfg, args[1]))
	case cmd == "bench" && len(args) == 2:
		os.Exit(runBench(cfg, args[1]))
	}
	usage()
	os.Exit(2)
}
