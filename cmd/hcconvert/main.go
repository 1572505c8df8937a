// Package main provides the hcconvert command: converts harmonics databases
// between the binary container and the JSON document, in either direction.
// The direction is inferred from the file extensions.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"go.seastate.io/tidecore/internal/adapter/store"
	"go.seastate.io/tidecore/internal/adapter/store/hdb"
	"go.seastate.io/tidecore/internal/adapter/store/jsondb"
)

func main() {
	in := flag.String("in", "", "Input file (.hdb or .json)")
	out := flag.String("out", "", "Output file (.hdb or .json)")
	flag.Parse()

	if *in == "" || *out == "" {
		fmt.Fprintln(os.Stderr, "both -in and -out are required")
		flag.Usage()
		os.Exit(2)
	}

	src, err := sourceFor(*in)
	if err != nil {
		log.Fatal(err)
	}
	result, err := src.Load()
	if err != nil {
		log.Fatalf("load %s: %v", *in, err)
	}
	if result.Skipped > 0 {
		log.Printf("skipped %d malformed records in %s", result.Skipped, *in)
	}

	if err := write(*out, result); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %d stations to %s", len(result.Stations), *out)
}

func sourceFor(path string) (store.StationSource, error) {
	switch filepath.Ext(path) {
	case ".hdb":
		return hdb.New(path), nil
	case ".json":
		return jsondb.New(path), nil
	default:
		return nil, fmt.Errorf("unrecognized input extension on %s (want .hdb or .json)", path)
	}
}

func write(path string, result *store.LoadResult) error {
	switch filepath.Ext(path) {
	case ".hdb":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		if err := hdb.Write(f, result.Stations); err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		return f.Close()
	case ".json":
		raw, err := jsondb.Marshal(result.Stations)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		return os.WriteFile(path, raw, 0o644)
	default:
		return fmt.Errorf("unrecognized output extension on %s (want .hdb or .json)", path)
	}
}
