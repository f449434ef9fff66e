// Standalone generator for synthetic statement files. The extractor CLI
// exposes the same functionality as `extractor generate`; this program
// exists so test data can be produced without building the full CLI:
//
//	go run testdata/generators/statement_generator.go -layout paired -count 50
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"statement-extraction-service/internal/generate"
)

func main() {
	var (
		layout    = flag.String("layout", "generic", "statement layout: paired, generic, pnb")
		count     = flag.Int("count", 25, "transactions per statement")
		files     = flag.Int("files", 1, "number of statement files")
		seed      = flag.Int64("seed", time.Now().UnixNano(), "random seed for reproducible generation")
		outputDir = flag.String("output-dir", "generated_statements", "output directory for statement files")
	)
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	for i := 0; i < *files; i++ {
		config := generate.DefaultConfig()
		config.Layout = generate.Layout(*layout)
		config.Count = *count
		config.Seed = *seed + int64(i)

		generator, err := generate.NewGenerator(config)
		if err != nil {
			log.Fatalf("Failed to create generator: %v", err)
		}

		path := filepath.Join(*outputDir, fmt.Sprintf("%s_statement_%d.txt", *layout, i+1))
		if err := generator.WriteFile(path); err != nil {
			log.Fatalf("Failed to write %s: %v", path, err)
		}
		fmt.Printf("Generated %s (%d transactions)\n", path, *count)
	}
}
