package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/retailpulse/retailpulse/scripts/internal"
)

// Command represents a script that can be run
type Command struct {
	Name        string
	Description string
	Run         func() error
}

var commands = []Command{
	{
		Name:        "run-pipeline",
		Description: "Run the analytics pipeline and print the result as JSON",
		Run:         internal.RunPipeline,
	},
	{
		Name:        "active-promotions",
		Description: "List the calendar promotions active on a date",
		Run:         internal.ListActivePromotions,
	},
	{
		Name:        "seed-sample",
		Description: "Generate a sample snapshot and load it into postgres",
		Run:         internal.SeedSample,
	},
}

func main() {
	var (
		listCommands bool
		cmdName      string
		datasetFile  string
		date         string
		customers    int
		seed         int64
		dryRun       bool
	)

	flag.BoolVar(&listCommands, "list", false, "List all available commands")
	flag.StringVar(&cmdName, "cmd", "", "Command to run")
	flag.StringVar(&datasetFile, "dataset-file", "", "Path to a snapshot JSON file, postgres is used when empty")
	flag.StringVar(&date, "date", "", "Date as YYYY-MM-DD")
	flag.IntVar(&customers, "customers", 0, "Number of customers to generate")
	flag.Int64Var(&seed, "seed", 0, "Random seed for generated data")
	flag.BoolVar(&dryRun, "dry-run", false, "Print generated data instead of writing it")

	flag.Parse()

	if listCommands {
		fmt.Println("Available commands:")
		for _, cmd := range commands {
			fmt.Printf("  %-20s %s\n", cmd.Name, cmd.Description)
		}
		return
	}

	if cmdName == "" {
		log.Fatal("Please specify a command to run using -cmd flag. Use -list to see available commands.")
	}

	// Set command-specific environment variables
	if datasetFile != "" {
		os.Setenv("DATASET_FILE", datasetFile)
	}
	if date != "" {
		os.Setenv("PROMOTION_DATE", date)
	}
	if customers > 0 {
		os.Setenv("SEED_CUSTOMERS", strconv.Itoa(customers))
	}
	if seed != 0 {
		os.Setenv("SEED", strconv.FormatInt(seed, 10))
	}
	if dryRun {
		os.Setenv("DRY_RUN", "true")
	}

	for _, cmd := range commands {
		if cmd.Name == cmdName {
			if err := cmd.Run(); err != nil {
				log.Fatalf("Error running command %s: %v", cmdName, err)
			}
			return
		}
	}

	log.Fatalf("Unknown command: %s. Use -list to see available commands.", cmdName)
}
