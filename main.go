package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/dmorgan81/sdxlgen/internal/config"
	"github.com/dmorgan81/sdxlgen/internal/handler"
	"github.com/dmorgan81/sdxlgen/internal/inject"
	"github.com/dmorgan81/sdxlgen/internal/log"
	"github.com/samber/do"
)

func main() {
	envFile := flag.String("env", "", "dotenv file to load before reading the environment")
	promptFlag := flag.String("prompt", "", "prompt text, overrides PROMPT")
	negative := flag.String("negative", "", "negative prompt text, overrides NEGATIVE_PROMPT")
	out := flag.String("out", "", "output name, overrides OUTPUT")
	seed := flag.Int64("seed", 0, "sampler seed, overrides SEED; 0 lets the API pick")
	flag.Parse()

	var seedOverride *int64
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			seedOverride = seed
		}
	})

	os.Exit(run(*envFile, handler.Input{
		Prompt:         *promptFlag,
		NegativePrompt: *negative,
		Seed:           seedOverride,
		Output:         *out,
	}))
}

func run(envFile string, input handler.Input) int {
	cfg, err := config.Load(envFile)
	if err != nil {
		log.New(os.Stderr, nil).Error("loading config", log.Err(err))
		return 1
	}

	logger := log.New(os.Stderr, cfg.LogLevel)
	ctx := log.NewContext(context.Background(), logger)
	injector := inject.Setup(ctx, cfg)
	defer func() { _ = injector.Shutdown() }()

	h, err := do.Invoke[*handler.Handler](injector)
	if err != nil {
		logger.Error("wiring services", log.Err(err))
		return 1
	}

	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.StartWithOptions(h.Handle, lambda.WithContext(ctx), lambda.WithEnableSIGTERM(func() {
			_ = injector.Shutdown()
		}))
		return 0
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	output, err := h.Handle(ctx, input)
	if err != nil {
		logger.Error("generating image", log.Err(err))
		return 1
	}

	logger.Debug("done", "output", output)
	fmt.Printf("Image saved as '%s'\n", output.Location)
	return 0
}
