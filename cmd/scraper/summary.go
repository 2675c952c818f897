package main

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/Jonatas020918/myflyticketsearcher/pipeline"
	"github.com/Jonatas020918/myflyticketsearcher/search"
)

func printSummary(resp *search.SearchResponse, duration time.Duration, outputFile string, stats pipeline.Stats) {
	separator := "--------------------------------------------------"
	md := resp.Metadata
	fmt.Println("\n" + separator)
	fmt.Printf("Search %s -> %s on %s complete\n", md.FromLocation, md.ToLocation, md.InitialDate)
	if !md.ReturnDate.IsZero() {
		fmt.Printf("  Return date:   %s\n", md.ReturnDate)
	}
	fmt.Printf("  Run:           %s\n", md.RunID)
	fmt.Printf("  Flights:       %d\n", md.TotalResults)

	failed := 0
	for _, s := range md.Sources {
		outcome := fmt.Sprintf("%d flights", s.Flights)
		if s.Skipped > 0 {
			outcome += fmt.Sprintf(", %d skipped", s.Skipped)
		}
		if s.Error != "" {
			failed++
			outcome = fmt.Sprintf("%s (%s)", s.ErrorType, s.Error)
		}
		fmt.Printf("  %-14s %-8s %s\n", s.Source+":", s.State, outcome)
	}
	if failed > 0 {
		fmt.Printf("  Failed:        %d of %d sources\n", failed, len(md.Sources))
	}

	tips := resp.PriceTips
	if tips.AveragePrice != nil {
		fmt.Printf("  Prices:        avg $%s, min $%s, max $%s\n",
			tips.AveragePrice.StringFixed(2), tips.MinPrice.StringFixed(2), tips.MaxPrice.StringFixed(2))
	}
	for _, r := range tips.Recommendations {
		fmt.Printf("  Tip:           %s\n", r)
	}

	fmt.Printf("  Exported:      %d\n", stats.Processed)
	if len(stats.Rejected) > 0 {
		for _, k := range slices.Sorted(maps.Keys(stats.Rejected)) {
			fmt.Printf("  Rejected:      %s=%d\n", k, stats.Rejected[k])
		}
	}
	fmt.Printf("  Duration:      %v\n", duration.Round(time.Millisecond))
	fmt.Printf("  Output file:   %s\n", outputFile)
	fmt.Println(separator)
}

func printValidation(verr *search.ValidationError) {
	fmt.Println("Invalid search:")
	for _, field := range slices.Sorted(maps.Keys(verr.Fields)) {
		for _, msg := range verr.Fields[field] {
			fmt.Printf("  %s: %s\n", field, msg)
		}
	}
}
