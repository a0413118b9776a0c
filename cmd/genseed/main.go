// Command genseed reads inspection and place CSV exports and writes the JSON
// seed file consumed by STORE_DRIVER=memory. It also prints per-grade and
// per-state counts for updating test assertions.
//
// Usage:
//
//	go run ./cmd/genseed \
//	  -inspections-csv data/inspections.csv \
//	  -places-csv data/cities.csv \
//	  -out internal/adapter/memory/testdata/seed.json
package main

import (
	"cmp"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"

	"github.com/couchcryptid/open-data-gateway/internal/adapter/memory"
	"github.com/couchcryptid/open-data-gateway/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	inspectionsCSV := flag.String("inspections-csv", "", "CSV export of the inspections table")
	placesCSV := flag.String("places-csv", "", "CSV export of the places table")
	out := flag.String("out", "", "output path for the JSON seed file")
	flag.Parse()

	if *out == "" || (*inspectionsCSV == "" && *placesCSV == "") {
		flag.Usage()
		return fmt.Errorf("missing required flags: -out and at least one of -inspections-csv, -places-csv")
	}

	var seed memory.Seed
	if *inspectionsCSV != "" {
		rows, err := readCSV(*inspectionsCSV)
		if err != nil {
			return err
		}
		seed.Inspections, err = parseInspections(rows)
		if err != nil {
			return fmt.Errorf("processing %s: %w", *inspectionsCSV, err)
		}
		log.Printf("inspections: %d records", len(seed.Inspections))
	}
	if *placesCSV != "" {
		rows, err := readCSV(*placesCSV)
		if err != nil {
			return err
		}
		seed.Places, err = parsePlaces(rows)
		if err != nil {
			return fmt.Errorf("processing %s: %w", *placesCSV, err)
		}
		log.Printf("places: %d records", len(seed.Places))
	}

	if err := writeJSON(*out, seed); err != nil {
		return fmt.Errorf("writing seed file: %w", err)
	}
	log.Printf("wrote seed file: %s", *out)

	printStats(seed)
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

type keyCount struct {
	key   string
	count int
}

func countBy[T any](records []T, key func(T) string) []keyCount {
	counts := map[string]int{}
	for _, r := range records {
		counts[key(r)]++
	}
	out := make([]keyCount, 0, len(counts))
	for k, c := range counts {
		out = append(out, keyCount{k, c})
	}
	slices.SortFunc(out, func(a, b keyCount) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.key, b.key)
	})
	return out
}

func printStats(seed memory.Seed) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Inspections: %d\n", len(seed.Inspections))
	fmt.Print("By GradeRecent:")
	for _, kc := range countBy(seed.Inspections, func(r domain.InspectionRecord) string { return r.GradeRecent }) {
		fmt.Printf(" %q=%d", kc.key, kc.count)
	}
	fmt.Println()

	fmt.Printf("Places: %d\n", len(seed.Places))
	fmt.Print("By State:")
	for _, kc := range countBy(seed.Places, func(r domain.PlaceRecord) string { return r.State }) {
		fmt.Printf(" %q=%d", kc.key, kc.count)
	}
	fmt.Println()
}
