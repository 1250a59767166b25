// Command benchmark measures a running shelfscan server: it searches a fixed
// set of keywords several times each and reports latency and field coverage.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"

	"github.com/use-agent/shelfscan/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// CLI flags
var (
	apiURL = flag.String("api-url", "http://localhost:3000", "shelfscan API base URL")
	runs   = flag.Int("runs", 3, "Number of runs per keyword for averaging")
	pause  = flag.Duration("pause", 2*time.Second, "Pause between requests")
	output = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Keywords covering differently shaped result pages.
var keywords = []string{
	"headphones",
	"usb c cable",
	"cast iron skillet",
	"lego",
	"kindle",
}

// --- Benchmark result types ---

type runResult struct {
	Run        int    `json:"run"`
	LatencyMs  int64  `json:"latency_ms"`
	StatusCode int    `json:"status_code"`
	RequestID  string `json:"request_id"`
	Products   int    `json:"products"`
	WithImage  int    `json:"with_image"`
	WithRating int    `json:"with_rating"`
	Untitled   int    `json:"untitled"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

type keywordAverages struct {
	LatencyMs      float64 `json:"latency_ms"`
	Products       float64 `json:"products"`
	ImageCoverage  float64 `json:"image_coverage_percent"`
	RatingCoverage float64 `json:"rating_coverage_percent"`
}

type keywordResult struct {
	Keyword  string           `json:"keyword"`
	Runs     []runResult      `json:"runs"`
	Averages *keywordAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp      string          `json:"timestamp"`
	APIURL         string          `json:"api_url"`
	RunsPerKeyword int             `json:"runs_per_keyword"`
	Results        []keywordResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== shelfscan benchmark ===")
	fmt.Printf("API URL:      %s\n", *apiURL)
	fmt.Printf("Runs/keyword: %d\n", *runs)
	fmt.Printf("Output:       %s\n", *output)
	fmt.Println()

	client := &http.Client{Timeout: 90 * time.Second}

	if err := checkAPI(client, *apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure shelfscan is running (shelfscan serve)\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		APIURL:         *apiURL,
		RunsPerKeyword: *runs,
	}

	for _, kw := range keywords {
		fmt.Printf("Benchmarking %q ...\n", kw)
		kr := keywordResult{Keyword: kw}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := benchmarkKeyword(client, *apiURL, kw, i)
			if rr.Success {
				fmt.Printf("OK  %dms  %d products\n", rr.LatencyMs, rr.Products)
			} else {
				fmt.Printf("FAILED: %s\n", rr.Error)
			}
			kr.Runs = append(kr.Runs, rr)
			time.Sleep(*pause)
		}

		kr.Averages = computeAverages(kr.Runs)
		report.Results = append(report.Results, kr)
		fmt.Println()
	}

	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(client *http.Client, baseURL string) error {
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health returned %d", resp.StatusCode)
	}
	return nil
}

func benchmarkKeyword(client *http.Client, baseURL, keyword string, run int) runResult {
	rr := runResult{Run: run}

	start := time.Now()
	resp, err := client.Get(baseURL + "/api/scrape?keyword=" + url.QueryEscape(keyword))
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	rr.LatencyMs = time.Since(start).Milliseconds()
	rr.StatusCode = resp.StatusCode
	rr.RequestID = resp.Header.Get("X-Request-Id")

	if resp.StatusCode != http.StatusOK {
		var er models.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
			rr.Error = fmt.Sprintf("status %d", resp.StatusCode)
			return rr
		}
		rr.Error = strings.TrimSpace(er.Error + ": " + er.Message)
		return rr
	}

	var sr models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}

	rr.Success = sr.Success
	summarize(&rr, sr.Data)
	return rr
}

// summarize counts how many products carry each optional field.
func summarize(rr *runResult, products []models.Product) {
	rr.Products = len(products)
	rr.WithImage = lo.CountBy(products, func(p models.Product) bool { return p.ImageURL != nil })
	rr.WithRating = lo.CountBy(products, func(p models.Product) bool { return p.Rating.Valid })
	rr.Untitled = lo.CountBy(products, func(p models.Product) bool { return p.Title == models.DefaultTitle })
}

func computeAverages(runs []runResult) *keywordAverages {
	ok := lo.Filter(runs, func(r runResult, _ int) bool { return r.Success })
	if len(ok) == 0 {
		return nil
	}

	n := float64(len(ok))
	products := lo.SumBy(ok, func(r runResult) int { return r.Products })
	avg := &keywordAverages{
		LatencyMs: float64(lo.SumBy(ok, func(r runResult) int64 { return r.LatencyMs })) / n,
		Products:  float64(products) / n,
	}
	if products > 0 {
		avg.ImageCoverage = 100 * float64(lo.SumBy(ok, func(r runResult) int { return r.WithImage })) / float64(products)
		avg.RatingCoverage = 100 * float64(lo.SumBy(ok, func(r runResult) int { return r.WithRating })) / float64(products)
	}
	return avg
}

func printTable(results []keywordResult) {
	fmt.Println(strings.Repeat("─", 72))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Keyword\tAvg Latency\tProducts\tImages\tRatings\n")
	fmt.Fprintf(w, "───────\t───────────\t────────\t──────\t───────\n")

	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\tFAILED\t-\t-\t-\n", r.Keyword)
			continue
		}
		fmt.Fprintf(w, "%s\t%dms\t%.1f\t%.0f%%\t%.0f%%\n",
			r.Keyword,
			int64(r.Averages.LatencyMs),
			r.Averages.Products,
			r.Averages.ImageCoverage,
			r.Averages.RatingCoverage,
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 72))
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
