package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"campusvote/internal/config"
	"campusvote/internal/container"
	"campusvote/internal/domain"
	"campusvote/pkg/logger"
)

const usage = `campusvote - campus election portal client

Usage:
  campusvote <command> [flags]

Commands:
  register    Create an account and sign in
  login       Sign in with student ID and password
  logout      Sign out and clear local state
  profile     Show the authenticated user's profile
  positions   List positions open for voting
  status      Show per-position voting status
  vote        Cast a vote for a candidate
  results     Show live results
  stats       Show election statistics
  insights    Show AI-generated analysis
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	app, err := container.New(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create container")
	}

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, app, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, app *container.Container, command string, args []string) error {
	switch command {
	case "register":
		return runRegister(ctx, app, args)
	case "login":
		return runLogin(ctx, app, args)
	case "logout":
		app.Auth.Logout()
		fmt.Println("Logged out.")
		return nil
	case "profile":
		return runProfile(ctx, app)
	case "positions":
		return runPositions(ctx, app)
	case "status":
		return runStatus(ctx, app)
	case "vote":
		return runVote(ctx, app, args)
	case "results":
		return runResults(ctx, app, args)
	case "stats":
		return runStats(ctx, app)
	case "insights":
		return runInsights(ctx, app, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func requireAuth(app *container.Container) error {
	if !app.IsAuthenticated() {
		return fmt.Errorf("not signed in, run 'campusvote login' first")
	}
	return nil
}

func runRegister(ctx context.Context, app *container.Container, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	studentID := fs.String("student-id", "", "student ID")
	email := fs.String("email", "", "email address")
	nickname := fs.String("nickname", "", "display name")
	password := fs.String("password", "", "password")
	confirm := fs.String("confirm", "", "password confirmation (defaults to -password)")
	_ = fs.Parse(args)

	if *confirm == "" {
		*confirm = *password
	}
	user, err := app.Auth.Register(ctx, domain.RegisterRequest{
		StudentID:       *studentID,
		Email:           *email,
		Nickname:        *nickname,
		Password:        *password,
		PasswordConfirm: *confirm,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Welcome, %s! You are now signed in.\n", user.Nickname)
	return nil
}

func runLogin(ctx context.Context, app *container.Container, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	studentID := fs.String("student-id", "", "student ID")
	password := fs.String("password", "", "password")
	_ = fs.Parse(args)

	user, err := app.Auth.Login(ctx, domain.LoginRequest{
		StudentID: *studentID,
		Password:  *password,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s (%s).\n", user.Nickname, user.StudentID)
	return nil
}

func runProfile(ctx context.Context, app *container.Container) error {
	if err := requireAuth(app); err != nil {
		return err
	}
	user, err := app.Auth.Profile(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s)\nStudent ID: %s\nEmail: %s\n", user.Nickname, user.Username, user.StudentID, user.Email)
	return nil
}

func runPositions(ctx context.Context, app *container.Container) error {
	if err := requireAuth(app); err != nil {
		return err
	}
	positions, err := app.Voting.GetPositions(ctx)
	if err != nil {
		return err
	}
	for _, p := range positions {
		fmt.Printf("[%d] %s\n", p.ID, p.Name)
		if p.Description != "" {
			fmt.Printf("    %s\n", p.Description)
		}
		for _, c := range p.Candidates {
			fmt.Printf("    - [%d] %s\n", c.ID, c.Name)
		}
	}
	return nil
}

func runStatus(ctx context.Context, app *container.Container) error {
	if err := requireAuth(app); err != nil {
		return err
	}
	view, err := app.Workflow.LoadVotingView(ctx)
	if err != nil {
		return err
	}
	for _, p := range view.Positions {
		mark := " "
		if view.Status[p.ID] {
			mark = "x"
		}
		fmt.Printf("[%s] %s\n", mark, p.Name)
	}
	if view.AllVoted() {
		fmt.Println("You have completed voting for all positions!")
	}
	return nil
}

func runVote(ctx context.Context, app *container.Container, args []string) error {
	fs := flag.NewFlagSet("vote", flag.ExitOnError)
	positionID := fs.Int("position", 0, "position ID")
	candidateID := fs.Int("candidate", 0, "candidate ID")
	_ = fs.Parse(args)

	if err := requireAuth(app); err != nil {
		return err
	}
	resp, err := app.Workflow.SubmitVote(ctx, *positionID, *candidateID)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s for %s)\n", resp.Message, resp.Vote.CandidateName, resp.Vote.PositionName)
	return nil
}

func runResults(ctx context.Context, app *container.Container, args []string) error {
	fs := flag.NewFlagSet("results", flag.ExitOnError)
	positionID := fs.Int("position", 0, "show a single position")
	_ = fs.Parse(args)

	if err := requireAuth(app); err != nil {
		return err
	}

	var results []domain.PositionResult
	if *positionID > 0 {
		result, err := app.Voting.GetPositionResult(ctx, *positionID)
		if err != nil {
			return err
		}
		results = []domain.PositionResult{*result}
	} else {
		all, err := app.Voting.GetResults(ctx)
		if err != nil {
			return err
		}
		results = all.Results
	}

	for _, r := range results {
		fmt.Printf("%s (%d votes)\n", r.PositionName, r.TotalVotes)
		for _, c := range r.Candidates {
			marker := ""
			if r.Winner != nil && r.Winner.ID == c.ID {
				marker = " *"
			}
			fmt.Printf("  %-24s %4d  %5.1f%%%s\n", c.Name, c.VoteCount, c.Percentage, marker)
		}
	}
	return nil
}

func runStats(ctx context.Context, app *container.Container) error {
	if err := requireAuth(app); err != nil {
		return err
	}
	stats, err := app.Voting.GetStats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Registered users:  %d\n", stats.TotalRegisteredUsers)
	fmt.Printf("Voters:            %d\n", stats.TotalVoters)
	fmt.Printf("Turnout:           %.1f%%\n", stats.VoterTurnoutPercentage)
	fmt.Printf("Votes cast:        %d\n", stats.TotalVotesCast)
	fmt.Printf("Positions:         %d\n", stats.PositionsCount)
	fmt.Printf("Candidates:        %d\n", stats.CandidatesCount)
	if stats.MostCompetitivePosition != "" {
		fmt.Printf("Most competitive:  %s\n", stats.MostCompetitivePosition)
	}
	return nil
}

func runInsights(ctx context.Context, app *container.Container, args []string) error {
	fs := flag.NewFlagSet("insights", flag.ExitOnError)
	kind := fs.String("kind", "summary", "summary, prediction, or turnout")
	_ = fs.Parse(args)

	if err := requireAuth(app); err != nil {
		return err
	}

	var (
		insight *domain.AIInsight
		err     error
	)
	switch strings.ToLower(*kind) {
	case "summary":
		insight, err = app.AI.GetSummary(ctx)
	case "prediction":
		insight, err = app.AI.GetPrediction(ctx)
	case "turnout":
		insight, err = app.AI.GetTurnoutAnalysis(ctx)
	default:
		return fmt.Errorf("unknown insight kind %q", *kind)
	}
	if err != nil {
		return err
	}
	fmt.Println(insight.Text())
	return nil
}
