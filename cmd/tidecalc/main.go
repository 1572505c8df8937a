// Package main provides the tidecalc command: prediction tables and peak
// listings for a station or coordinate, printed to stdout.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.seastate.io/tidecore/internal/domain"
	"go.seastate.io/tidecore/internal/sun"
	"go.seastate.io/tidecore/internal/usecase"
)

const version = "0.1.0"

func main() {
	stationID := flag.String("station", "", "Station ID to predict for")
	lat := flag.Float64("lat", 0, "Latitude (gridded prediction, with -lon)")
	lon := flag.Float64("lon", 0, "Longitude (gridded prediction, with -lat)")
	startStr := flag.String("start", "", "Start of the window, RFC 3339 (default now)")
	days := flag.Int("days", 2, "Window length in days")
	peaksOnly := flag.Bool("peaks", false, "Print only highs, lows and slack events")
	sunTimes := flag.Bool("sun", false, "Include sunrise and sunset times")
	listStations := flag.Bool("list", false, "List available stations and exit")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("tidecalc version %s\n", version)
		return
	}

	cfg, err := usecase.ConfigFromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	engine := usecase.New(cfg)

	if *listStations {
		stations, err := engine.Stations()
		if err != nil {
			log.Fatalf("load stations: %v", err)
		}
		for _, st := range stations {
			fmt.Printf("%-10s %-8s %9.4f %10.4f  %s\n", st.ID, st.Kind, st.Latitude, st.Longitude, st.Name)
		}
		return
	}

	start := time.Now().UTC().Truncate(time.Minute)
	if *startStr != "" {
		start, err = time.Parse(time.RFC3339, *startStr)
		if err != nil {
			log.Fatalf("parse -start: %v", err)
		}
	}
	end := start.Add(time.Duration(*days) * 24 * time.Hour)

	var series *domain.Series
	switch {
	case *stationID != "":
		series, err = engine.GeneratePredictions(*stationID, start, end)
	case flagSet("lat") && flagSet("lon"):
		series, err = engine.PredictAt(*lat, *lon, start, end)
	default:
		fmt.Fprintln(os.Stderr, "either -station or -lat/-lon is required")
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("predict: %v", err)
	}

	if *peaksOnly {
		for _, e := range engine.DetectPeaks(series) {
			fmt.Printf("%s  %-9s %8.3f\n", e.Time.Format(time.RFC3339), e.Type, e.Value)
		}
	} else {
		for _, p := range series.Points {
			fmt.Printf("%s  %8.3f\n", p.Time.Format(time.RFC3339), p.Value)
		}
	}

	if *sunTimes {
		eventLat, eventLon := *lat, *lon
		if *stationID != "" {
			stations, err := engine.Stations()
			if err != nil {
				log.Fatalf("load stations: %v", err)
			}
			for _, st := range stations {
				if st.ID == *stationID {
					eventLat, eventLon = st.Latitude, st.Longitude
				}
			}
		}
		for _, e := range sun.Events(eventLat, eventLon, start, end.Sub(start)) {
			fmt.Printf("%s  %s\n", e.Time.Format(time.RFC3339), e.Kind)
		}
	}
}

func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
