package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/n0tnow/Wisentia-sub006/internal/adapter/repo"
)

// pipelinectl inspects the job journal: list jobs by status, show one job,
// purge old resolved rows.
func main() {
	var (
		listFlag  string
		showFlag  string
		purgeDays int
		limitFlag int
	)
	flag.StringVar(&listFlag, "list", "", "list journaled jobs with this status (queued, processing, completed, failed, timed_out, approved, rejected, discarded)")
	flag.StringVar(&showFlag, "show", "", "show one journaled job by content id")
	flag.IntVar(&purgeDays, "purge-older-than", 0, "delete resolved journal rows older than this many days")
	flag.IntVar(&limitFlag, "limit", 50, "maximum rows for -list")
	flag.Parse()

	mode := 0
	for _, set := range []bool{listFlag != "", showFlag != "", purgeDays > 0} {
		if set {
			mode++
		}
	}
	if mode != 1 {
		fmt.Fprintln(os.Stderr, "exactly one of -list, -show or -purge-older-than is required")
		os.Exit(1)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	journal := repo.NewJobJournal(pool)

	switch {
	case listFlag != "":
		jobs, err := journal.ListByStatus(ctx, strings.ToLower(strings.TrimSpace(listFlag)), limitFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "list failed: %v\n", err)
			os.Exit(1)
		}
		for _, job := range jobs {
			fmt.Printf("%s  %-10s  %-5s  %s  %s\n",
				job.ContentID, job.Status, job.Request.Kind, job.RequesterID, job.UpdatedAt.Format(time.RFC3339))
		}
		fmt.Printf("%d job(s)\n", len(jobs))

	case showFlag != "":
		job, err := journal.Get(ctx, strings.TrimSpace(showFlag))
		if err != nil {
			fmt.Fprintf(os.Stderr, "show failed: %v\n", err)
			os.Exit(1)
		}
		out, _ := json.MarshalIndent(job, "", "  ")
		fmt.Println(string(out))

	case purgeDays > 0:
		cutoff := time.Now().AddDate(0, 0, -purgeDays)
		removed, err := journal.PurgeResolvedBefore(ctx, cutoff)
		if err != nil {
			fmt.Fprintf(os.Stderr, "purge failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("purged %d resolved job(s) older than %s\n", removed, cutoff.Format(time.RFC3339))
	}
}
