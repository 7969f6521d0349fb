package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"house-pricer/internal/client"
	"house-pricer/internal/common"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const usage = `usage: pricectl [flags] <command>

commands:
  predict    POST a feature mapping read from -data, -file or stdin
  health     GET /health
  info       GET /model/info
  versions   GET /model/versions
`

func main() {
	var (
		serverURL = flag.String("url", envOr(common.EnvServerURL, common.DefaultServerURL), "Pricing service base URL")
		data      = flag.String("data", "", "Inline JSON feature mapping for predict")
		file      = flag.String("file", "", "File holding a JSON feature mapping for predict")
		timeout   = flag.Duration("timeout", 5*time.Second, "Request timeout")
	)
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c := client.New(*serverURL, *timeout)

	var (
		out any
		err error
	)
	switch flag.Arg(0) {
	case "predict":
		var features map[string]any
		features, err = readFeatures(*data, *file)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid feature mapping")
		}
		out, err = c.Predict(ctx, features)
	case "health":
		out, err = c.Health(ctx)
	case "info":
		out, err = c.ModelInfo(ctx)
	case "versions":
		out, err = c.Versions(ctx)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", flag.Arg(0)).Msg("request failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatal().Err(err).Msg("failed to print response")
	}
}

func readFeatures(inline, path string) (map[string]any, error) {
	var raw []byte
	switch {
	case inline != "":
		raw = []byte(inline)
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		raw = b
	default:
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, err
		}
		raw = b
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var features map[string]any
	if err := dec.Decode(&features); err != nil {
		return nil, fmt.Errorf("decode features: %w", err)
	}
	return features, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
