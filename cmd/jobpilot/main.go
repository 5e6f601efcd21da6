// Command jobpilot runs the job-application engine over a single job
// description: analyze the posting, tailor the resume, compile the document,
// pause for review, and submit.
//
// Two modes are available. The default planner mode drives the fixed workflow
// state machine step by step. Agent mode hands the same tools to the model and
// lets it plan the run itself.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"jobpilot/pkg/agent"
	"jobpilot/pkg/config"
	"jobpilot/pkg/events"
	"jobpilot/pkg/job"
	"jobpilot/pkg/logx"
	"jobpilot/pkg/metrics"
	"jobpilot/pkg/persistence"
	"jobpilot/pkg/planner"
	"jobpilot/pkg/resilience/circuit"
	"jobpilot/pkg/resilience/deadletter"
	"jobpilot/pkg/session"
	"jobpilot/pkg/tools"
)

type cliOptions struct {
	configPath string
	jdPath     string
	resumePath string
	portalURL  string
	outDir     string
	resumeJob  string
	agentMode  bool
	autoYes    bool
}

func main() {
	var opts cliOptions
	flag.StringVar(&opts.configPath, "config", "", "Path to engine config YAML (defaults apply when empty)")
	flag.StringVar(&opts.jdPath, "jd", "", "Path to the job description text file")
	flag.StringVar(&opts.resumePath, "resume", "", "Path to the base resume text file")
	flag.StringVar(&opts.portalURL, "portal", "https://jobs.example.com/apply", "Application portal URL")
	flag.StringVar(&opts.outDir, "out", "out", "Directory for compiled documents")
	flag.StringVar(&opts.resumeJob, "resume-job", "", "Job ID of a persisted planner snapshot to resume")
	flag.BoolVar(&opts.agentMode, "agent", false, "Let the model drive the workflow instead of the planner")
	flag.BoolVar(&opts.autoYes, "yes", false, "Approve review and submission prompts automatically")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "jobpilot: %v\n", err)
		os.Exit(1)
	}
}

func run(opts cliOptions) error {
	logger := logx.NewLogger("jobpilot")

	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if opts.jdPath == "" && opts.resumeJob == "" {
		return fmt.Errorf("either -jd or -resume-job is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persistence is optional: without a database path, dead letters and
	// sessions stay in memory and crash recovery is unavailable.
	var store *persistence.Store
	var dlArchive deadletter.Archive
	var sessArchive session.Archive
	if cfg.DatabasePath != "" {
		s, err := persistence.Open(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
		dlArchive = s
		sessArchive = s
	}

	recorder := metrics.NewPrometheusRecorder(prometheus.NewRegistry())
	emitter := events.NewEmitter()

	breakers := circuit.NewRegistry(cfg.Circuit)
	breakers.OnStateChange(func(change circuit.StateChange) {
		recorder.IncCircuitTransition(change.Name, change.FromState.String(), change.ToState.String())
		emitter.Emit(events.CircuitStateChange, change)
	})

	client, err := agent.NewLLMClient(cfg.Model)
	if err != nil {
		return err
	}

	registry := tools.NewRegistry()
	workflowTools := []tools.Tool{
		tools.NewAnalyzeJDTool(&modelAnalyzer{client: client}),
		tools.NewTailorResumeTool(&modelTailor{client: client}),
		tools.NewCompilePDFTool(&fileCompiler{dir: opts.outDir}),
		tools.NewPortalAutofillTool(&dryRunPortal{logger: logger}),
		tools.NewReviewStatusTool(),
	}
	for _, tool := range workflowTools {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}

	runtime := agent.NewRuntime(cfg.Agent, agent.Deps{
		Client:   client,
		Registry: registry,
		Breakers: breakers,
		Profiles: cfg.BuildProfiles(),
		Sink:     deadletter.NewSink(dlArchive),
		Sessions: session.NewStore(sessArchive),
		Emitter:  emitter,
		Recorder: recorder,
	})

	emitter.Subscribe(events.StreamChunk, func(payload any) {
		if chunk, ok := payload.(agent.StreamChunkPayload); ok {
			fmt.Print(chunk.Chunk)
		}
	})
	emitter.Subscribe(events.ApprovalRequested, func(payload any) {
		req, ok := payload.(agent.ApprovalRequest)
		if !ok {
			return
		}
		approved := opts.autoYes || promptYesNo(fmt.Sprintf("Tool %s requests approval", req.ToolName))
		if err := runtime.ApproveTool(req.ToolCallID, approved); err != nil {
			logger.Warn("approval resolution failed: %v", err)
		}
	})

	if opts.agentMode {
		return runAgent(ctx, runtime, opts)
	}
	return runPlanner(ctx, logger, registry, store, cfg, opts)
}

// runAgent hands the job description and resume to the model in one session
// and lets the loop decide which tools to call.
func runAgent(ctx context.Context, runtime *agent.Runtime, opts cliOptions) error {
	jdText, err := readInput(opts.jdPath, "job description")
	if err != nil {
		return err
	}
	baseResume, err := readInput(opts.resumePath, "base resume")
	if err != nil {
		return err
	}

	input := fmt.Sprintf(
		"Apply to the job below. Analyze the description, tailor my resume, compile the document, then submit it to %s.\n\nJob description:\n%s\n\nMy resume:\n%s",
		opts.portalURL, jdText, baseResume,
	)

	result := runtime.Execute(ctx, uuid.New().String(), input, agent.Options{})
	fmt.Println()
	if !result.Success {
		return fmt.Errorf("agent run failed after %d iterations: %s", len(result.Iterations), result.Error)
	}

	fmt.Printf("\nDone in %d iterations, %d tokens.\n%s\n",
		len(result.Iterations), result.TotalTokensUsed, result.FinalOutput)
	return nil
}

// runPlanner drives the workflow state machine, persisting a snapshot after
// every step so an interrupted run can be resumed with -resume-job.
func runPlanner(ctx context.Context, logger *logx.Logger, registry *tools.Registry, store *persistence.Store, cfg config.Config, opts cliOptions) error {
	baseResume, err := readInput(opts.resumePath, "base resume")
	if err != nil {
		return err
	}

	executor := &toolExecutor{
		registry:   registry,
		baseResume: baseResume,
		portalURL:  opts.portalURL,
		fields:     map[string]any{"source": "jobpilot"},
	}

	var p *planner.Planner
	var res planner.StepResult
	if opts.resumeJob != "" {
		if store == nil {
			return fmt.Errorf("-resume-job requires database_path in the config")
		}
		raw, err := store.LoadPlannerSnapshot(opts.resumeJob)
		if err != nil {
			return err
		}
		p, err = planner.Deserialize(raw, executor)
		if err != nil {
			return err
		}
		logger.Info("🔄 resumed job %s in state %s", p.JobID(), p.State())
		res = planner.StepResult{Success: true, State: p.State(), NextEvent: p.NextEvent(), Data: p.Snapshot().Data}
		if p.State() == job.StateError {
			res = planner.StepResult{State: p.State(), NextEvent: job.EventRetry, Error: "resumed from a failed state"}
		}
	} else {
		jdText, err := readInput(opts.jdPath, "job description")
		if err != nil {
			return err
		}
		p = planner.New(executor, planner.ConfigFrom(cfg.Planner))
		logger.Info("📦 starting job %s", p.JobID())
		res = p.Start(ctx, jdText)
	}

	for {
		if err := saveSnapshot(store, p); err != nil {
			logger.Warn("snapshot save failed: %v", err)
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("interrupted in state %s: %w", p.State(), err)
		}

		switch {
		case !res.Success && res.NextEvent == job.EventRetry:
			logger.Warn("step failed: %s", res.Error)
			res = p.Retry(ctx)

		case !res.Success && res.NextEvent == job.EventAbort:
			logger.Error("☠️ aborting job %s: %s", p.JobID(), res.Error)
			p.Abort(ctx)
			if store != nil {
				if err := store.DeletePlannerSnapshot(p.JobID()); err != nil {
					logger.Warn("snapshot cleanup failed: %v", err)
				}
			}
			return fmt.Errorf("job aborted: %s", res.Error)

		case !res.Success:
			return fmt.Errorf("planner rejected step: %s", res.Error)

		case p.State() == job.StateReady:
			res = reviewStep(ctx, p, opts)

		case p.State() == job.StateClosed:
			if store != nil {
				if err := store.DeletePlannerSnapshot(p.JobID()); err != nil {
					logger.Warn("snapshot cleanup failed: %v", err)
				}
			}
			outcome, _ := res.Data[job.KeyOutcome].(string)
			fmt.Printf("Job %s closed: %s\n", p.JobID(), outcome)
			return nil

		case res.NextEvent != "":
			res = p.ExecuteStep(ctx, res.NextEvent, nil)

		default:
			return fmt.Errorf("planner stalled in state %s", p.State())
		}
	}
}

// reviewStep shows the compiled document and asks the reviewer to approve,
// reject, or abort.
func reviewStep(ctx context.Context, p *planner.Planner, opts cliOptions) planner.StepResult {
	pdfPath, _ := p.Snapshot().Data[job.KeyPDFPath].(string)
	fmt.Printf("\nDocument ready for review: %s\n", pdfPath)

	if opts.autoYes || promptYesNo("Approve and submit") {
		return p.Approve(ctx, nil)
	}
	if promptYesNo("Re-tailor the resume (no aborts the job)") {
		return p.Reject(ctx)
	}
	return p.Abort(ctx)
}

func saveSnapshot(store *persistence.Store, p *planner.Planner) error {
	if store == nil {
		return nil
	}
	raw, err := p.Serialize()
	if err != nil {
		return err
	}
	return store.SavePlannerSnapshot(p.JobID(), raw)
}

func promptYesNo(question string) bool {
	fmt.Printf("%s? [y/N]: ", question)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func readInput(path, what string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path to the %s is required", what)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", what, err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return "", fmt.Errorf("%s file %s is empty", what, path)
	}
	return string(raw), nil
}
