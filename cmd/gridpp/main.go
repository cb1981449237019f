package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/khintz/gridpp/pkg/config"
	"github.com/khintz/gridpp/pkg/field"
	"github.com/khintz/gridpp/pkg/oi"
	"github.com/khintz/gridpp/pkg/spatial"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "gridpp.yaml", "Path to YAML configuration file")
	obsPath := flag.String("obs", "", "CSV file with observations (lat,lon,elev,laf,value)")
	outputPath := flag.String("output", "analysis.csv", "Output CSV filename")
	nY := flag.Int("ny", 100, "Number of grid rows")
	nX := flag.Int("nx", 100, "Number of grid columns")
	lat0 := flag.Float64("lat0", 59.0, "Latitude of the first grid row in degrees")
	lon0 := flag.Float64("lon0", 10.0, "Longitude of the first grid column in degrees")
	dLat := flag.Float64("dlat", 0.01, "Latitude spacing in degrees")
	dLon := flag.Float64("dlon", 0.01, "Longitude spacing in degrees")
	backgroundValue := flag.Float64("background", 0, "Constant background value")
	ratio := flag.Float64("ratio", 0.1, "Observation to background error variance ratio")
	flag.Parse()

	// Validate inputs
	if *obsPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Output.Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	oi.SetWorkers(cfg.OI.NumWorkers)

	fmt.Println("================================")
	fmt.Println("GRIDDED POST-PROCESSING: OPTIMAL INTERPOLATION OF POINT OBSERVATIONS")
	fmt.Println("================================")

	// Build the analysis grid and the constant background
	grid, err := spatial.NewRegularGrid(*nY, *nX, *lat0, *lon0, *dLat, *dLon)
	if err != nil {
		log.Fatalf("Failed to build grid: %v", err)
	}
	background := field.InitVec2Value(*nY, *nX, *backgroundValue)

	// Load observations
	points, pobs, err := readObservations(*obsPath)
	if err != nil {
		log.Fatalf("Failed to read observations: %v", err)
	}
	fmt.Printf("Loaded %d observations from %s\n", points.Size(), *obsPath)

	// Build the structure function from the configuration
	sf, err := cfg.BuildStructure()
	if err != nil {
		log.Fatalf("Failed to build structure function: %v", err)
	}

	// Sample the background at the observation sites
	pbackground, err := oi.BackgroundAtPoints(background, grid, points, cfg.OI.ElevGradient)
	if err != nil {
		log.Fatalf("Failed to sample background at observation sites: %v", err)
	}
	pratios := make(field.Vec, points.Size())
	for i := range pratios {
		pratios[i] = *ratio
	}

	// Run the analysis
	fmt.Println("Starting optimal interpolation...")
	startTime := time.Now()
	analysis, err := oi.OptimalInterpolation(grid, background, points, pobs, pratios, pbackground, sf, cfg.OI.MaxPoints)
	if err != nil {
		log.Fatalf("Optimal interpolation failed: %v", err)
	}
	processingTime := time.Since(startTime)

	if err := writeAnalysis(*outputPath, grid, analysis); err != nil {
		log.Fatalf("Failed to write analysis: %v", err)
	}

	fmt.Printf("\nAnalysis completed successfully in %.2f seconds!\n", processingTime.Seconds())
	fmt.Printf("Output field saved to: %s\n", *outputPath)
	fmt.Printf("Grid size: %dx%d, structure: %s, max points: %d\n",
		*nY, *nX, cfg.Structure.Type, cfg.OI.MaxPoints)
}

// readObservations parses a CSV file with columns lat,lon,elev,laf,value.
// A header row is skipped when its first column is not numeric. Missing
// elevation or land-area fraction may be left empty.
func readObservations(path string) (*spatial.Points, field.Vec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	var lats, lons, elevs, lafs, values field.Vec
	for i, record := range records {
		if len(record) < 5 {
			return nil, nil, fmt.Errorf("line %d: expected 5 columns, got %d", i+1, len(record))
		}
		lat, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			if i == 0 {
				// Header row
				continue
			}
			return nil, nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		lon, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		value, err := strconv.ParseFloat(record[4], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		lats = append(lats, lat)
		lons = append(lons, lon)
		elevs = append(elevs, parseOptional(record[2]))
		lafs = append(lafs, parseOptional(record[3]))
		values = append(values, value)
	}

	points, err := spatial.NewPoints(lats, lons, elevs, lafs, spatial.Geodetic)
	if err != nil {
		return nil, nil, err
	}
	return points, values, nil
}

// parseOptional returns the missing value for empty or unparseable fields.
func parseOptional(s string) float64 {
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return field.MissingValue
	}
	return value
}

// writeAnalysis writes one CSV row per gridpoint: y,x,lat,lon,value.
func writeAnalysis(path string, grid *spatial.Grid, analysis field.Vec2) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	if err := writer.Write([]string{"y", "x", "lat", "lon", "value"}); err != nil {
		return err
	}
	lats := grid.Lats()
	lons := grid.Lons()
	for y := range analysis {
		for x := range analysis[y] {
			record := []string{
				strconv.Itoa(y),
				strconv.Itoa(x),
				strconv.FormatFloat(lats[y][x], 'f', 6, 64),
				strconv.FormatFloat(lons[y][x], 'f', 6, 64),
				strconv.FormatFloat(analysis[y][x], 'g', -1, 64),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}
	return writer.Error()
}
