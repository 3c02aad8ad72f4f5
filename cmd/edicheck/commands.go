package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path"
	"strconv"
	"syscall"

	"github.com/viant/afs"

	"github.com/viant/edicheck/document"
	"github.com/viant/edicheck/insight"
	"github.com/viant/edicheck/knowledge"
	"github.com/viant/edicheck/prompt"
	"github.com/viant/edicheck/service"
	"github.com/viant/edicheck/validation"
)

func initCmd(args []string) {
	flags := flag.NewFlagSet("init", flag.ExitOnError)
	common := registerCommon(flags)
	noSeed := flags.Bool("no-seed", false, "create tables only")
	flags.Parse(args)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	svc, _ := openService(ctx, "init", common)
	defer svc.Close()
	if *noSeed {
		return
	}
	report, err := svc.Seed(ctx)
	if err != nil {
		log.Fatalf("init: seed: %v", err)
	}
	printJSON(report)
}

func ingestCmd(args []string) {
	flags := flag.NewFlagSet("ingest", flag.ExitOnError)
	common := registerCommon(flags)
	docType := flags.String("type", document.TypeInvoice, "document type")
	owner := flags.Int64("owner", 0, "owner id")
	validate := flags.Bool("validate", true, "validate new documents")
	schemaName := flags.String("schema", "", "validation schema name (defaults to config)")
	analyze := flags.Bool("analyze", false, "analyze new documents right away")
	enqueue := flags.Bool("enqueue", false, "enqueue new documents for analysis")
	flags.Parse(args)
	if flags.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "ingest: at least one file or URL is required")
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	svc, _ := openService(ctx, "ingest", common)
	defer svc.Close()

	fs := afs.New()
	var out []any
	for _, location := range flags.Args() {
		markup, err := loadText(ctx, fs, location)
		if err != nil {
			log.Fatalf("ingest: %v", err)
		}
		res, err := svc.Ingest(ctx, service.IngestRequest{
			Filename:   path.Base(location),
			Markup:     markup,
			Type:       *docType,
			OwnerID:    *owner,
			Validate:   *validate,
			SchemaName: *schemaName,
		})
		if err != nil {
			log.Fatalf("ingest %s: %v", location, err)
		}
		entry := map[string]any{"location": location, "result": res}
		if !res.Duplicate {
			switch {
			case *analyze:
				outcome, err := svc.Analyze(ctx, res.Document.ID)
				if err != nil {
					log.Fatalf("ingest: analyze %d: %v", res.Document.ID, err)
				}
				entry["analysis"] = outcome
			case *enqueue:
				msg, err := svc.Enqueue(ctx, res.Document.ID)
				if err != nil {
					log.Fatalf("ingest: enqueue %d: %v", res.Document.ID, err)
				}
				entry["messageId"] = msg.ID
			}
		}
		out = append(out, entry)
	}
	printJSON(out)
}

func validateCmd(args []string) {
	flags := flag.NewFlagSet("validate", flag.ExitOnError)
	common := registerCommon(flags)
	id := flags.Int64("id", 0, "stored document id (updates its status)")
	schemaName := flags.String("schema", "", "stored schema name")
	xsdURL := flags.String("xsd", "", "inline XSD file or URL (file mode only)")
	flags.Parse(args)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	svc, _ := openService(ctx, "validate", common)
	defer svc.Close()

	if *id > 0 {
		verdict, err := svc.ValidateDocument(ctx, *id, *schemaName)
		if err != nil {
			log.Fatalf("validate: %v", err)
		}
		printJSON(verdict)
		return
	}
	if flags.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "validate: --id or a file is required")
		flags.Usage()
		os.Exit(2)
	}
	fs := afs.New()
	var schema string
	if *xsdURL != "" {
		content, err := loadText(ctx, fs, *xsdURL)
		if err != nil {
			log.Fatalf("validate: %v", err)
		}
		schema = content
	}
	verdicts := map[string]*validation.Verdict{}
	for _, location := range flags.Args() {
		markup, err := loadText(ctx, fs, location)
		if err != nil {
			log.Fatalf("validate: %v", err)
		}
		verdict, err := svc.ValidateAndParse(ctx, service.ValidateRequest{Markup: markup, Schema: schema, SchemaName: *schemaName})
		if err != nil {
			log.Fatalf("validate %s: %v", location, err)
		}
		verdicts[location] = verdict
	}
	printJSON(verdicts)
}

func analyzeCmd(args []string) {
	flags := flag.NewFlagSet("analyze", flag.ExitOnError)
	common := registerCommon(flags)
	flags.Parse(args)
	ids := parseIDs("analyze", flags)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	svc, _ := openService(ctx, "analyze", common)
	defer svc.Close()
	if svc.Engine() == nil {
		log.Fatalf("analyze: no inference engine configured")
	}
	var out []any
	for _, id := range ids {
		outcome, err := svc.Analyze(ctx, id)
		if err != nil {
			log.Fatalf("analyze %d: %v", id, err)
		}
		out = append(out, outcome)
	}
	printJSON(out)
}

func enqueueCmd(args []string) {
	flags := flag.NewFlagSet("enqueue", flag.ExitOnError)
	common := registerCommon(flags)
	flags.Parse(args)
	ids := parseIDs("enqueue", flags)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	svc, cfg := openService(ctx, "enqueue", common)
	defer svc.Close()
	if cfg.Queue.Provider == "" || cfg.Queue.Provider == "memory" {
		log.Printf("enqueue: memory queue tasks are lost when this process exits, use --queue redis")
	}
	for _, id := range ids {
		msg, err := svc.Enqueue(ctx, id)
		if err != nil {
			log.Fatalf("enqueue %d: %v", id, err)
		}
		fmt.Printf("%d\t%s\n", id, msg.ID)
	}
}

func workerCmd(args []string) {
	flags := flag.NewFlagSet("worker", flag.ExitOnError)
	common := registerCommon(flags)
	concurrency := flags.Int("concurrency", 0, "parallel analyses (overrides config)")
	flags.Parse(args)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	svc, cfg := openService(ctx, "worker", common)
	defer svc.Close()
	if *concurrency > 0 {
		cfg.Queue.Concurrency = *concurrency
	}
	log.Printf("worker: queue=%s concurrency=%d", cfg.Queue.Provider, cfg.Queue.Concurrency)
	if err := svc.RunWorker(ctx, cfg.Queue.WorkerOptions()...); err != nil && ctx.Err() == nil {
		log.Fatalf("worker: %v", err)
	}
	log.Printf("worker: stopped")
}

func searchCmd(args []string) {
	flags := flag.NewFlagSet("search", flag.ExitOnError)
	common := registerCommon(flags)
	k := flags.Int("k", 3, "number of rules")
	mcpAddr := flags.String("mcp-addr", "", "query a running MCP server instead of the local store")
	flags.Parse(args)
	if flags.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "search: query text is required")
		os.Exit(2)
	}
	query := flags.Arg(0)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if *mcpAddr != "" {
		out, err := mcpSearchRules(ctx, *mcpAddr, query, *k)
		if err != nil {
			log.Fatalf("search: %v", err)
		}
		printJSON(out.Rules)
		return
	}
	svc, _ := openService(ctx, "search", common)
	defer svc.Close()
	matches, err := svc.SearchRulesText(ctx, query, *k)
	if err != nil {
		log.Fatalf("search: %v", err)
	}
	for _, m := range matches {
		fmt.Printf("%.4f\t%d\t%s\t%s\n", m.Distance, m.Entry.ID, m.Entry.Topic, m.Entry.RuleText)
	}
}

func ruleCmd(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: edicheck rule add|status [options]")
		os.Exit(2)
	}
	action := args[0]
	flags := flag.NewFlagSet("rule "+action, flag.ExitOnError)
	common := registerCommon(flags)
	topic := flags.String("topic", "", "rule topic")
	status := flags.String("status", "", "review status: draft|review|approved")
	id := flags.Int64("id", 0, "rule id")
	flags.Parse(args[1:])

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	parsed := knowledge.Status(*status)
	if *status != "" {
		var err error
		if parsed, err = knowledge.ParseStatus(*status); err != nil {
			log.Fatalf("rule: %v", err)
		}
	}
	switch action {
	case "add":
		if flags.NArg() == 0 {
			log.Fatalf("rule add: rule text is required")
		}
		svc, _ := openService(ctx, "rule", common)
		defer svc.Close()
		entry, err := svc.AddRule(ctx, *topic, flags.Arg(0), parsed)
		if err != nil {
			log.Fatalf("rule add: %v", err)
		}
		printJSON(entry)
	case "status":
		if *id <= 0 || *status == "" {
			log.Fatalf("rule status: --id and --status are required")
		}
		svc, _ := openService(ctx, "rule", common)
		defer svc.Close()
		if err := svc.SetRuleStatus(ctx, *id, parsed); err != nil {
			log.Fatalf("rule status: %v", err)
		}
	default:
		log.Fatalf("rule: unknown action %q", action)
	}
}

func templateCmd(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: edicheck template create|list [options]")
		os.Exit(2)
	}
	action := args[0]
	flags := flag.NewFlagSet("template "+action, flag.ExitOnError)
	common := registerCommon(flags)
	name := flags.String("name", prompt.DefaultTemplateName, "template name")
	file := flags.String("file", "", "template text file or URL")
	description := flags.String("description", "", "version description")
	configJSON := flags.String("gen-config", "", `generation config JSON, e.g. {"temperature":0.2}`)
	flags.Parse(args[1:])

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	switch action {
	case "create":
		if *file == "" {
			log.Fatalf("template create: --file is required")
		}
		cfg, err := prompt.DecodeConfig([]byte(*configJSON))
		if err != nil {
			log.Fatalf("template create: %v", err)
		}
		svc, _ := openService(ctx, "template", common)
		defer svc.Close()
		text, err := loadText(ctx, afs.New(), *file)
		if err != nil {
			log.Fatalf("template create: %v", err)
		}
		tpl, err := svc.CreateTemplateVersion(ctx, *name, text, *description, cfg)
		if err != nil {
			log.Fatalf("template create: %v", err)
		}
		printJSON(tpl)
	case "list":
		svc, _ := openService(ctx, "template", common)
		defer svc.Close()
		versions, err := svc.Templates(ctx, *name)
		if err != nil {
			log.Fatalf("template list: %v", err)
		}
		for _, tpl := range versions {
			fmt.Printf("%s\tv%d\tactive=%t\t%s\n", tpl.Name, tpl.Version, tpl.Active, tpl.Description)
		}
	default:
		log.Fatalf("template: unknown action %q", action)
	}
}

func schemaCmd(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: edicheck schema create|list [options]")
		os.Exit(2)
	}
	action := args[0]
	flags := flag.NewFlagSet("schema "+action, flag.ExitOnError)
	common := registerCommon(flags)
	name := flags.String("name", service.DefaultSchemaName, "schema name")
	file := flags.String("file", "", "XSD file or URL")
	flags.Parse(args[1:])

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	switch action {
	case "create":
		if *file == "" {
			log.Fatalf("schema create: --file is required")
		}
		svc, _ := openService(ctx, "schema", common)
		defer svc.Close()
		content, err := loadText(ctx, afs.New(), *file)
		if err != nil {
			log.Fatalf("schema create: %v", err)
		}
		schema, err := svc.CreateSchemaVersion(ctx, *name, content)
		if err != nil {
			log.Fatalf("schema create: %v", err)
		}
		fmt.Printf("%s\tv%d\n", schema.Name, schema.Version)
	case "list":
		svc, _ := openService(ctx, "schema", common)
		defer svc.Close()
		versions, err := svc.Schemas(ctx, *name)
		if err != nil {
			log.Fatalf("schema list: %v", err)
		}
		for _, s := range versions {
			fmt.Printf("%s\tv%d\tactive=%t\t%s\n", s.Name, s.Version, s.Active, s.CreatedAt.Format("2006-01-02 15:04:05"))
		}
	default:
		log.Fatalf("schema: unknown action %q", action)
	}
}

func feedbackCmd(args []string) {
	flags := flag.NewFlagSet("feedback", flag.ExitOnError)
	common := registerCommon(flags)
	resultID := flags.Int64("result", 0, "analysis result id")
	helpful := flags.Bool("helpful", false, "mark the result as helpful")
	comment := flags.String("comment", "", "reviewer comment")
	flags.Parse(args)
	if *resultID <= 0 {
		log.Fatalf("feedback: --result is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	svc, _ := openService(ctx, "feedback", common)
	defer svc.Close()
	if err := svc.SubmitFeedback(ctx, *resultID, document.Feedback{Helpful: *helpful, Comment: *comment}); err != nil {
		log.Fatalf("feedback: %v", err)
	}
}

func reportCmd(args []string) {
	flags := flag.NewFlagSet("report", flag.ExitOnError)
	common := registerCommon(flags)
	ask := flags.Bool("ask", false, "ask the inference engine for an analyst report")
	flags.Parse(args)
	if flags.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "report: log file or URL is required")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	maybeDebugSleep("report", common.debugSleep)
	reader, err := afs.New().OpenURL(ctx, flags.Arg(0))
	if err != nil {
		log.Fatalf("report: %v", err)
	}
	defer reader.Close()
	summary, err := insight.Scan(reader)
	if err != nil {
		log.Fatalf("report: %v", err)
	}
	if !*ask {
		fmt.Println(summary.Report())
		return
	}
	cfg, err := common.config()
	if err != nil {
		log.Fatalf("report: %v", err)
	}
	engine, err := service.BuildEngine(cfg.Engine)
	if err != nil {
		log.Fatalf("report: %v", err)
	}
	if engine == nil {
		log.Fatalf("report: --ask requires an inference engine")
	}
	text, err := insight.Ask(ctx, engine, summary)
	if err != nil {
		log.Fatalf("report: %v", err)
	}
	fmt.Println(text)
}

func parseIDs(cmd string, flags *flag.FlagSet) []int64 {
	if flags.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "%s: at least one document id is required\n", cmd)
		os.Exit(2)
	}
	ids := make([]int64, 0, flags.NArg())
	for _, arg := range flags.Args() {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			log.Fatalf("%s: invalid document id %q", cmd, arg)
		}
		ids = append(ids, id)
	}
	return ids
}
