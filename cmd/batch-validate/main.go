// Command batch-validate runs the validation pipeline over an email
// list file — local or s3://bucket/key — and writes results as JSON or
// CSV. Progress goes to stderr so stdout stays parseable.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/mailcheck/internal/analytics"
	"github.com/ignite/mailcheck/internal/batch"
	"github.com/ignite/mailcheck/internal/cache"
	"github.com/ignite/mailcheck/internal/checks"
	"github.com/ignite/mailcheck/internal/config"
	"github.com/ignite/mailcheck/internal/dedup"
	"github.com/ignite/mailcheck/internal/pkg/httpretry"
	"github.com/ignite/mailcheck/internal/pkg/logger"
	"github.com/ignite/mailcheck/internal/ratelimit"
	"github.com/ignite/mailcheck/internal/source"
	"github.com/ignite/mailcheck/internal/validator"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config file (optional)")
		input      = flag.String("input", "", "email list: local path or s3://bucket/key")
		format     = flag.String("format", "json", "output format: json or csv")
		noSMTP     = flag.Bool("no-smtp", false, "skip the SMTP mailbox probe")
		noDedupe   = flag.Bool("no-dedupe", false, "skip duplicate collapsing")
	)
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: batch-validate -input emails.csv [-format csv] [-no-smtp]")
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("[BatchValidate] Config load failed: %v", err)
		}
		cfg = loaded
	}
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.SetRedactPII(cfg.RedactPII())

	ctx := context.Background()

	emails, err := loadEmails(ctx, cfg, *input)
	if err != nil {
		log.Fatalf("[BatchValidate] Load failed: %v", err)
	}
	if len(emails) == 0 {
		log.Fatalf("[BatchValidate] No emails found in %s", *input)
	}

	deduplicator := dedup.New(cfg.Dedup.SimilarityThreshold)
	if !*noDedupe {
		outcome := deduplicator.Deduplicate(emails)
		fmt.Fprintf(os.Stderr, "dedup: %d total, %d unique, %d exact duplicates, %d similar\n",
			outcome.Stats.Total, outcome.Stats.Unique, outcome.Stats.ExactDuplicates, outcome.Stats.Similar)
		emails = outcome.UniqueEmails
	}

	engine := buildEngine(cfg)
	processor := batch.NewProcessor(engine, cfg.Batch.ChunkSize, cfg.Batch.Workers)
	processor.SetProgressFunc(func(completed, total int) {
		fmt.Fprintf(os.Stderr, "\rvalidated %d/%d", completed, total)
	})

	opts := validator.AllEnabled()
	if *noSMTP {
		opts.CheckSMTP = false
	}
	opts.Session = dedup.NewSession(cfg.Dedup.SimilarityThreshold)

	start := time.Now()
	jobID, results := processor.Process(ctx, emails, &opts)
	fmt.Fprintf(os.Stderr, "\njob %s finished in %s\n", jobID, time.Since(start).Round(time.Millisecond))

	summary := analytics.Summarize(results)
	fmt.Fprintf(os.Stderr, "valid: %d  invalid: %d  average score: %.1f\n",
		summary.Valid, summary.Invalid, summary.AverageScore)

	if err := writeResults(os.Stdout, *format, results); err != nil {
		log.Fatalf("[BatchValidate] Output failed: %v", err)
	}
}

func loadEmails(ctx context.Context, cfg *config.Config, input string) ([]string, error) {
	if strings.HasPrefix(input, "s3://") {
		trimmed := strings.TrimPrefix(input, "s3://")
		parts := strings.SplitN(trimmed, "/", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid s3 URI: %s", input)
		}
		src, err := source.NewS3Source(ctx, source.S3Config{
			Bucket:     parts[0],
			Region:     cfg.S3Source.Region,
			AWSProfile: cfg.S3Source.AWSProfile,
		})
		if err != nil {
			return nil, err
		}
		return src.Read(ctx, parts[1])
	}
	return source.ReadFile(input)
}

func buildEngine(cfg *config.Config) *validator.Engine {
	resolver := net.DefaultResolver
	limiter := ratelimit.New(cfg.RateLimit.RequestsPerSecond)
	httpClient := httpretry.NewRetryClient(&http.Client{
		Timeout: time.Duration(cfg.Reputation.TimeoutSeconds) * time.Second,
	}, cfg.SMTP.MaxRetries)

	store := cache.NewMemoryStore(cache.Options{
		Enabled:       cfg.CacheEnabled(),
		DefaultTTL:    cfg.CacheDefaultTTL(),
		MaxSize:       cfg.Cache.MaxSize,
		EvictionSlack: cfg.Cache.EvictionSlack,
		CategoryTTLs:  cfg.CacheCategoryTTLs(),
	})

	return validator.NewEngine(validator.Deps{
		Store:  store,
		Domain: checks.NewDomainCheck(resolver, limiter),
		Reputation: checks.NewReputationCheck(
			resolver, limiter,
			cfg.Reputation.BlacklistZones,
			cfg.Reputation.WhoisURL,
			httpClient,
		),
		Spam: checks.NewSpamCheck(checks.NewRoleCheck(nil)),
		Disposable: checks.NewDisposableCheck(
			cfg.Disposable.ListPath,
			cfg.Disposable.LookupURL,
			httpClient,
		),
		SMTP: checks.NewSMTPCheck(resolver, limiter, checks.SMTPOptions{
			HeloDomain: cfg.SMTP.HeloDomain,
			MailFrom:   cfg.SMTP.MailFrom,
			Port:       cfg.SMTP.Port,
			Timeout:    cfg.SMTPTimeout(),
			MaxRetries: cfg.SMTP.MaxRetries,
		}),
		Typo: checks.NewTypoCheck(),
	})
}

func writeResults(out *os.File, format string, results []validator.Result) error {
	switch format {
	case "csv":
		w := csv.NewWriter(out)
		if err := w.Write([]string{"email", "is_valid", "score", "issues", "suggestions"}); err != nil {
			return err
		}
		for _, r := range results {
			record := []string{
				r.Email,
				strconv.FormatBool(r.IsValid),
				strconv.Itoa(r.Score),
				strings.Join(r.Issues, "; "),
				strings.Join(r.Suggestions, "; "),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	default:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
}
